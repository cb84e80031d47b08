package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/payload"
	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/usecase"
)

func (h *userHTTPHandler) EditEmail(w http.ResponseWriter, r *http.Request) {
	var req payload.EditEmailRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.emailChangeUsecase.RequestEmailChange(r.Context(), chi.URLParam(r, "id"), req.NewEmail, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, payload.Failed("User not found"))
		case errors.Is(err, usecase.ErrInvalidPassword):
			writeJSON(w, http.StatusUnauthorized, payload.Failed("Invalid password"))
		case errors.Is(err, usecase.ErrEmailAlreadyUsed):
			writeJSON(w, http.StatusConflict, payload.Failed("Email provided has already been used. Try a different one"))
		case errors.Is(err, usecase.ErrSubjectBusy):
			writeJSON(w, http.StatusLocked, payload.Failed(msgSubjectBusy))
		case errors.Is(err, usecase.ErrDispatchFailed):
			h.internalError(w, r, err, "failed to request email change", "Error occurred sending verification email")
		default:
			h.internalError(w, r, err, "failed to request email change", "Couldn't save verification email data")
		}
		return
	}

	writeJSON(w, http.StatusOK, payload.Pending("Verification email sent. Check your mailbox to verify new email", nil))
}

func (h *userHTTPHandler) VerifyNewEmail(w http.ResponseWriter, r *http.Request) {
	var req payload.VerifyNewEmailRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.emailChangeUsecase.ConfirmEmailChange(r.Context(), chi.URLParam(r, "id"), req.NewEmail, req.SecretCode)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, payload.Failed("User not found"))
		case errors.Is(err, usecase.ErrCodeNotFound):
			writeJSON(w, http.StatusNotFound, payload.Failed("Email change request not found"))
		case errors.Is(err, usecase.ErrCodeExpired):
			writeJSON(w, http.StatusGone, payload.Failed("The code you entered has expired. Please request another"))
		case errors.Is(err, usecase.ErrInvalidCode):
			writeJSON(w, http.StatusUnauthorized, payload.Failed("Invalid code"))
		case errors.Is(err, usecase.ErrEmailAlreadyUsed):
			writeJSON(w, http.StatusConflict, payload.Failed("Email provided has already been used. Try a different one"))
		case errors.Is(err, usecase.ErrSubjectBusy):
			writeJSON(w, http.StatusLocked, payload.Failed(msgSubjectBusy))
		default:
			h.internalError(w, r, err, "failed to confirm email change", "An error occurred while updating email")
		}
		return
	}

	writeJSON(w, http.StatusOK, payload.Success("Email updated successfully", nil))
}
