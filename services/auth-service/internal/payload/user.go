package payload

type SignupRequest struct {
	FirstName   string `json:"firstName"   validate:"required,alphaspace"`
	LastName    string `json:"lastName"    validate:"required,alphaspace"`
	Email       string `json:"email"       validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"required,number"`
	Password    string `json:"password"    validate:"required,min=8"`
}

type SigninRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyEmailRequest struct {
	ConfirmationCode string `json:"confirmationCode" validate:"required,numeric"`
}

type RequestPasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest only requires a new password to be present.
type ResetPasswordRequest struct {
	UserID      string `json:"userId"      validate:"required"`
	ResetString string `json:"resetString" validate:"required,numeric"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type UpdateProfileRequest struct {
	Email          string `json:"email"          validate:"required,email"`
	Password       string `json:"password"       validate:"required"`
	FirstName      string `json:"firstName"      validate:"omitempty,alphaspace"`
	LastName       string `json:"lastName"       validate:"omitempty,alphaspace"`
	ProfilePicture string `json:"profilePicture" validate:"omitempty,url"`
}

type EditEmailRequest struct {
	NewEmail string `json:"newEmail" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyNewEmailRequest struct {
	NewEmail   string `json:"newEmail"   validate:"required,email"`
	SecretCode string `json:"secretCode" validate:"required,numeric"`
}

type EditPhoneNumberRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,number"`
	Password    string `json:"password"    validate:"required"`
}
