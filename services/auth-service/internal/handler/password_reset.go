package handler

import (
	"errors"
	"net/http"

	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/payload"
	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/usecase"
)

func (h *userHTTPHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req payload.RequestPasswordResetRequest
	if !h.decode(w, r, &req) {
		return
	}

	userID, err := h.passwordResetUsecase.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, payload.Failed("No account with the given email exists"))
		case errors.Is(err, usecase.ErrEmailNotVerified):
			writeJSON(w, http.StatusForbidden, payload.Failed("Email hasn't been verified yet. Check your email"))
		case errors.Is(err, usecase.ErrSubjectBusy):
			writeJSON(w, http.StatusLocked, payload.Failed(msgSubjectBusy))
		case errors.Is(err, usecase.ErrDispatchFailed):
			h.internalError(w, r, err, "failed to request password reset", "Error sending password reset email")
		default:
			h.internalError(w, r, err, "failed to request password reset", "Error occurred saving reset record")
		}
		return
	}

	writeJSON(w, http.StatusOK, payload.Pending("Password reset email sent", payload.UserIDResponse{UserID: userID}))
}

func (h *userHTTPHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.passwordResetUsecase.ResetPassword(r.Context(), req.UserID, req.ResetString, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrCodeNotFound):
			writeJSON(w, http.StatusNotFound, payload.Failed("Password reset request not found"))
		case errors.Is(err, usecase.ErrCodeExpired):
			writeJSON(w, http.StatusGone, payload.Failed("Password reset code has expired"))
		case errors.Is(err, usecase.ErrInvalidCode):
			writeJSON(w, http.StatusUnauthorized, payload.Failed("Invalid password reset details passed"))
		case errors.Is(err, usecase.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, payload.Failed("User not found"))
		case errors.Is(err, usecase.ErrSubjectBusy):
			writeJSON(w, http.StatusLocked, payload.Failed(msgSubjectBusy))
		default:
			h.internalError(w, r, err, "failed to reset password", "Updating user password failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, payload.Success("You have successfully reset your password. You can now login", nil))
}
