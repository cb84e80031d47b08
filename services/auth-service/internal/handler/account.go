package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/payload"
	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/usecase"
)

func (h *userHTTPHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req payload.SignupRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.accountUsecase.Register(r.Context(), usecase.RegisterParams{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserAlreadyExists):
			writeJSON(w, http.StatusConflict, payload.Failed("User with the given email/phone number already exists"))
		case user != nil:
			// The account exists; the client can ask for the code again.
			h.log(r).Error().Err(err).Str("user_id", user.ID.Hex()).Msg("failed to send verification code")

			status := http.StatusInternalServerError
			message := "Couldn't save verification email data"
			if errors.Is(err, usecase.ErrDispatchFailed) {
				status = http.StatusBadGateway
				message = "Error occurred sending verification email"
			}
			writeJSON(w, status, payload.FailedWithData(message, payload.UserIDResponse{UserID: user.ID.Hex()}))
		default:
			h.internalError(w, r, err, "failed to register user", "Error occurred while creating account")
		}
		return
	}

	writeJSON(w, http.StatusCreated, payload.Pending(
		"Verification email sent",
		payload.UserIDResponse{UserID: user.ID.Hex()},
	))
}

func (h *userHTTPHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req payload.SigninRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.accountUsecase.Login(r.Context(), usecase.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidCredentials):
			writeJSON(w, http.StatusUnauthorized, payload.Failed("Invalid credentials entered"))
		case errors.Is(err, usecase.ErrEmailNotVerified):
			writeJSON(w, http.StatusForbidden, payload.Failed("Email hasn't been verified"))
		case errors.Is(err, usecase.ErrInvalidPassword):
			writeJSON(w, http.StatusUnauthorized, payload.Failed("Invalid password"))
		default:
			h.internalError(w, r, err, "failed to login", "Error occurred checking existing user")
		}
		return
	}

	writeJSON(w, http.StatusOK, payload.Success(
		"Login successful",
		[]payload.LoginResponse{{ID: user.ID.Hex()}},
	))
}

func (h *userHTTPHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.accountUsecase.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, payload.Failed("User not found"))
			return
		}

		h.internalError(w, r, err, "failed to get user profile", "An error occurred while getting user records")
		return
	}

	writeJSON(w, http.StatusOK, payload.Success("User found", payload.NewProfileResponse(user)))
}

func (h *userHTTPHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req payload.UpdateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.accountUsecase.UpdateProfile(r.Context(), chi.URLParam(r, "id"), usecase.UpdateProfileParams{
		Email:          req.Email,
		Password:       req.Password,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound), errors.Is(err, usecase.ErrInvalidCredentials):
			writeJSON(w, http.StatusUnauthorized, payload.Failed("Invalid credentials entered"))
		case errors.Is(err, usecase.ErrInvalidPassword):
			writeJSON(w, http.StatusUnauthorized, payload.Failed("Invalid password"))
		default:
			h.internalError(w, r, err, "failed to update profile", "Error occurred while updating user")
		}
		return
	}

	writeJSON(w, http.StatusOK, payload.Success("Profile updated successfully", payload.NewProfileResponse(user)))
}

func (h *userHTTPHandler) EditPhoneNumber(w http.ResponseWriter, r *http.Request) {
	var req payload.EditPhoneNumberRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.accountUsecase.ChangePhoneNumber(r.Context(), chi.URLParam(r, "id"), req.PhoneNumber, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, payload.Failed("User not found"))
		case errors.Is(err, usecase.ErrInvalidPassword):
			writeJSON(w, http.StatusUnauthorized, payload.Failed("Incorrect password"))
		case errors.Is(err, usecase.ErrPhoneNumberAlreadyUsed):
			writeJSON(w, http.StatusConflict, payload.Failed("Phone number already registered. Use another"))
		default:
			h.internalError(w, r, err, "failed to change phone number", "Error occurred while updating user phone number")
		}
		return
	}

	writeJSON(w, http.StatusOK, payload.Success("Phone number updated successfully", nil))
}
