package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/payload"
	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/usecase"
	"github.com/IsaacNewtonTingo/nikopeshe-api/shared/validation"
)

const maxBodyBytes = 1 << 20

const msgSubjectBusy = "Another request for this account is in progress. Try again shortly"

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// decode reads a JSON body into dst, trims its strings and validates it. It
// writes the failure response itself and reports whether the caller may go on.
func (h *userHTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, payload.Failed("Invalid request body"))
		return false
	}

	payload.TrimStrings(dst)

	if err := h.validator.Struct(dst); err != nil {
		var validationErr *validation.Error
		if errors.As(err, &validationErr) {
			writeJSON(w, http.StatusBadRequest, payload.Failed(validationErr.Error()))
			return false
		}

		h.log(r).Error().Err(err).Msg("failed to validate request")
		writeJSON(w, http.StatusInternalServerError, payload.Failed("Something went wrong"))
		return false
	}

	return true
}

// internalError logs err and answers with a generic message. Dispatch
// failures are reported as a bad gateway.
func (h *userHTTPHandler) internalError(w http.ResponseWriter, r *http.Request, err error, logMsg, message string) {
	h.log(r).Error().Err(err).Msg(logMsg)

	status := http.StatusInternalServerError
	if errors.Is(err, usecase.ErrDispatchFailed) {
		status = http.StatusBadGateway
	}

	writeJSON(w, status, payload.Failed(message))
}

// log returns the request scoped logger, falling back to the handler's own.
func (h *userHTTPHandler) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return h.logger
}
