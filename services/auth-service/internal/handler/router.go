package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// NewRouter creates the root router with request ids, access logging, panic
// recovery and the health endpoint.
func NewRouter(logger *zerolog.Logger) *chi.Mux {
	router := chi.NewRouter()
	router.Use(RequestID(logger))
	router.Use(AccessLog)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return router
}
