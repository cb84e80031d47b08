package payload

import (
	"time"

	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/model"
)

// Status tags every response. Clients branch on it rather than on the HTTP
// status code.
type Status string

const (
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
	StatusPending Status = "Pending"
)

type Response struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func Success(message string, data any) Response {
	return Response{Status: StatusSuccess, Message: message, Data: data}
}

func Pending(message string, data any) Response {
	return Response{Status: StatusPending, Message: message, Data: data}
}

func Failed(message string) Response {
	return Response{Status: StatusFailed, Message: message}
}

// FailedWithData is used when the client needs an id to recover, e.g. to
// resend a verification code after signup.
func FailedWithData(message string, data any) Response {
	return Response{Status: StatusFailed, Message: message, Data: data}
}

type UserIDResponse struct {
	UserID string `json:"userId"`
}

// LoginResponse keeps the "_id" key existing clients read after signin.
type LoginResponse struct {
	ID string `json:"_id"`
}

// ProfileResponse is a user without the password hash or verified flag.
type ProfileResponse struct {
	ID             string    `json:"_id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	PhoneNumber    string    `json:"phoneNumber"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func NewProfileResponse(user *model.User) ProfileResponse {
	return ProfileResponse{
		ID:             user.ID.Hex(),
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Email:          user.Email,
		PhoneNumber:    user.PhoneNumber,
		ProfilePicture: user.ProfilePicture,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}
