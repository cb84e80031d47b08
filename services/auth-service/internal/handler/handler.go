package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/usecase"
	"github.com/IsaacNewtonTingo/nikopeshe-api/shared/validation"
)

type userHTTPHandler struct {
	accountUsecase           usecase.AccountUsecase
	emailVerificationUsecase usecase.EmailVerificationUsecase
	passwordResetUsecase     usecase.PasswordResetUsecase
	emailChangeUsecase       usecase.EmailChangeUsecase
	validator                *validation.Validator
	logger                   *zerolog.Logger
}

// NewUserHTTPHandler mounts the user routes under /api/user on router.
func NewUserHTTPHandler(
	router chi.Router,
	accountUsecase usecase.AccountUsecase,
	emailVerificationUsecase usecase.EmailVerificationUsecase,
	passwordResetUsecase usecase.PasswordResetUsecase,
	emailChangeUsecase usecase.EmailChangeUsecase,
	validator *validation.Validator,
	logger *zerolog.Logger,
) {
	h := &userHTTPHandler{
		accountUsecase:           accountUsecase,
		emailVerificationUsecase: emailVerificationUsecase,
		passwordResetUsecase:     passwordResetUsecase,
		emailChangeUsecase:       emailChangeUsecase,
		validator:                validator,
		logger:                   logger,
	}

	router.Route("/api/user", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/signin", h.Signin)
		r.Get("/get-user-profile/{id}", h.GetProfile)
		r.Put("/update-profile/{id}", h.UpdateProfile)
		r.Post("/edit-phone-number/{id}", h.EditPhoneNumber)

		r.Post("/verify-email/{id}", h.VerifyEmail)
		r.Post("/resend-email-verification-code/{id}", h.ResendVerificationCode)

		r.Post("/request-password-reset", h.RequestPasswordReset)
		r.Post("/reset-password", h.ResetPassword)

		r.Post("/edit-email/{id}", h.EditEmail)
		r.Post("/verify-new-email/{id}", h.VerifyNewEmail)
	})
}
