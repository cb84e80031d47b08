package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/model"
	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/repository"
)

// AccountUsecase defines the interface for account-related use cases.
type AccountUsecase interface {
	// Register creates an unverified account and sends it a verification
	// code. When only the code could not be issued the created user is
	// returned together with the error.
	Register(ctx context.Context, params RegisterParams) (*model.User, error)
	Login(ctx context.Context, params LoginParams) (*model.User, error)
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, params UpdateProfileParams) (*model.User, error)
	ChangePhoneNumber(ctx context.Context, userID, phoneNumber, password string) error
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Password    string
}

// LoginParams defines the parameters for user login.
type LoginParams struct {
	Email    string
	Password string
}

// UpdateProfileParams defines the parameters for a profile update. Email and
// Password identify the account; empty profile fields are left unchanged.
type UpdateProfileParams struct {
	Email          string
	Password       string
	FirstName      string
	LastName       string
	ProfilePicture string
}

var (
	ErrUserAlreadyExists      = errors.New("user already exists")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrPhoneNumberAlreadyUsed = errors.New("phone number has already been used")
)

type accountUsecase struct {
	userRepo     repository.UserRepository
	hasher       CredentialHasher
	verification EmailVerificationUsecase
}

// NewAccountUsecase creates a new instance of AccountUsecase.
func NewAccountUsecase(
	userRepo repository.UserRepository,
	hasher CredentialHasher,
	verification EmailVerificationUsecase,
) AccountUsecase {
	return &accountUsecase{
		userRepo:     userRepo,
		hasher:       hasher,
		verification: verification,
	}
}

func (u *accountUsecase) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	params.PhoneNumber = normalizePhoneNumber(params.PhoneNumber)

	if _, err := u.userRepo.GetUserByEmailOrPhoneNumber(ctx, params.Email, params.PhoneNumber); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := u.hasher.Hash(params.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Email:        params.Email,
		PhoneNumber:  params.PhoneNumber,
		PasswordHash: passwordHash,
		Verified:     false,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUserAlreadyExists
		}

		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := u.verification.SendVerificationCode(ctx, user); err != nil {
		return user, err
	}

	return user, nil
}

func (u *accountUsecase) Login(ctx context.Context, params LoginParams) (*model.User, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, params.Email)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.Verified {
		return nil, ErrEmailNotVerified
	}

	if ok, err := u.hasher.Compare(params.Password, user.PasswordHash); err != nil {
		return nil, fmt.Errorf("failed to compare password: %w", err)
	} else if !ok {
		return nil, ErrInvalidPassword
	}

	return user, nil
}

func (u *accountUsecase) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (u *accountUsecase) UpdateProfile(
	ctx context.Context,
	userID string,
	params UpdateProfileParams,
) (*model.User, error) {
	user, err := u.checkPassword(ctx, userID, params.Password)
	if err != nil {
		return nil, err
	}

	if user.Email != params.Email {
		return nil, ErrInvalidCredentials
	}

	var update repository.UpdateUserParams
	if params.FirstName != "" {
		update.FirstName = &params.FirstName
	}
	if params.LastName != "" {
		update.LastName = &params.LastName
	}
	if params.ProfilePicture != "" {
		update.ProfilePicture = &params.ProfilePicture
	}

	if update == (repository.UpdateUserParams{}) {
		return user, nil
	}

	updated, err := u.userRepo.UpdateUser(ctx, userID, update)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return updated, nil
}

func (u *accountUsecase) ChangePhoneNumber(ctx context.Context, userID, phoneNumber, password string) error {
	if _, err := u.checkPassword(ctx, userID, password); err != nil {
		return err
	}

	phoneNumber = normalizePhoneNumber(phoneNumber)

	if _, err := u.userRepo.GetUserByPhoneNumber(ctx, phoneNumber); err == nil {
		return ErrPhoneNumberAlreadyUsed
	} else if !isNotFound(err) {
		return fmt.Errorf("failed to check phone number: %w", err)
	}

	if _, err := u.userRepo.UpdateUser(ctx, userID, repository.UpdateUserParams{
		PhoneNumber: &phoneNumber,
	}); err != nil {
		switch {
		case mongo.IsDuplicateKeyError(err):
			return ErrPhoneNumberAlreadyUsed
		case isNotFound(err):
			return ErrUserNotFound
		default:
			return fmt.Errorf("failed to update phone number: %w", err)
		}
	}

	return nil
}

// checkPassword loads the user and confirms password is theirs.
func (u *accountUsecase) checkPassword(ctx context.Context, userID, password string) (*model.User, error) {
	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if ok, err := u.hasher.Compare(password, user.PasswordHash); err != nil {
		return nil, fmt.Errorf("failed to compare password: %w", err)
	} else if !ok {
		return nil, ErrInvalidPassword
	}

	return user, nil
}

// normalizePhoneNumber drops leading zeros so that "0712345678" and
// "712345678" are stored as the same number.
func normalizePhoneNumber(phoneNumber string) string {
	trimmed := strings.TrimLeft(phoneNumber, "0")
	if trimmed == "" && phoneNumber != "" {
		return "0"
	}

	return trimmed
}
