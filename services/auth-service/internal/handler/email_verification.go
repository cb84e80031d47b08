package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/payload"
	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/usecase"
)

func (h *userHTTPHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req payload.VerifyEmailRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.emailVerificationUsecase.VerifyEmail(r.Context(), chi.URLParam(r, "id"), req.ConfirmationCode)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrCodeNotFound):
			writeJSON(w, http.StatusNotFound, payload.Failed(
				"No email verification records found. You might have already verified your email",
			))
		case errors.Is(err, usecase.ErrCodeExpired):
			writeJSON(w, http.StatusGone, payload.Failed(
				"The code you entered has already expired. Please sign up again",
			))
		case errors.Is(err, usecase.ErrInvalidCode):
			writeJSON(w, http.StatusUnauthorized, payload.Failed("Invalid code"))
		case errors.Is(err, usecase.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, payload.Failed("User not found. Please create an account"))
		case errors.Is(err, usecase.ErrSubjectBusy):
			writeJSON(w, http.StatusLocked, payload.Failed(msgSubjectBusy))
		default:
			h.internalError(w, r, err, "failed to verify email", "An error occurred while verifying email")
		}
		return
	}

	writeJSON(w, http.StatusOK, payload.Success("Email confirmed successfully. You can login", nil))
}

func (h *userHTTPHandler) ResendVerificationCode(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	err := h.emailVerificationUsecase.ResendVerificationCode(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, payload.Failed("User not found. Please create an account"))
		case errors.Is(err, usecase.ErrAlreadyVerified):
			writeJSON(w, http.StatusConflict, payload.Failed("Email has already been verified. You can login"))
		case errors.Is(err, usecase.ErrSubjectBusy):
			writeJSON(w, http.StatusLocked, payload.Failed(msgSubjectBusy))
		case errors.Is(err, usecase.ErrDispatchFailed):
			h.internalError(w, r, err, "failed to resend verification code", "Error occurred sending verification email")
		default:
			h.internalError(w, r, err, "failed to resend verification code", "Couldn't save verification email data")
		}
		return
	}

	writeJSON(w, http.StatusOK, payload.Pending("Verification email sent", payload.UserIDResponse{UserID: userID}))
}
