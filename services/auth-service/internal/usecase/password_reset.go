package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/config"
	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/model"
	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/repository"
	"github.com/IsaacNewtonTingo/nikopeshe-api/shared/lock"
)

// PasswordResetUsecase defines the business logic for resetting a forgotten password.
type PasswordResetUsecase interface {
	// RequestPasswordReset emails a reset code to the account registered with
	// email and returns the account id.
	RequestPasswordReset(ctx context.Context, email string) (string, error)

	// ResetPassword replaces the user's password when code matches the
	// outstanding reset code.
	ResetPassword(ctx context.Context, userID, code, newPassword string) error
}

type passwordResetUsecase struct {
	userRepo repository.UserRepository
	hasher   CredentialHasher
	codes    *codeService
}

// NewPasswordResetUsecase creates a new instance of PasswordResetUsecase.
func NewPasswordResetUsecase(
	userRepo repository.UserRepository,
	tokenRepo repository.VerificationTokenRepository,
	hasher CredentialHasher,
	mailer EmailSender,
	locker lock.Locker,
	logger *zerolog.Logger,
	authServiceCfg *config.AuthServiceConfig,
) PasswordResetUsecase {
	return &passwordResetUsecase{
		userRepo: userRepo,
		hasher:   hasher,
		codes: newCodeService(
			model.PurposePasswordReset,
			tokenRepo,
			hasher,
			mailer,
			locker,
			logger,
			authServiceCfg.Code.Digits,
			authServiceCfg.Code.PasswordResetExpiresIn,
		),
	}
}

func (u *passwordResetUsecase) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	// Get user by email
	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if !user.Verified {
		return "", ErrEmailNotVerified
	}

	userID := user.ID.Hex()

	release, err := u.codes.lock(ctx, userID)
	if err != nil {
		return "", err
	}
	defer release()

	// Invalidate any outstanding reset code for this user
	if err := u.codes.clear(ctx, userID); err != nil {
		return "", err
	}

	err = u.codes.issue(ctx, user.ID, "", codeEmail{
		to:      user.Email,
		subject: "Reset your password",
		body: func(code, expiresIn string) string {
			return fmt.Sprintf(`
		<p>You have initiated a reset password process.</p>
		<p>Code <b>expires in %s</b>.</p>
		<p>Here is your secret code:</p>
		<p><strong>%s</strong></p>
		<p>Enter the code in the app, with your new password.</p>
		<p>If you did not request a password reset, you can safely ignore this email.</p>
	`, expiresIn, code)
		},
	})
	if err != nil {
		return "", err
	}

	return userID, nil
}

func (u *passwordResetUsecase) ResetPassword(ctx context.Context, userID, code, newPassword string) error {
	release, err := u.codes.lock(ctx, userID)
	if err != nil {
		return err
	}
	defer release()

	token, err := u.codes.redeem(ctx, userID, code, nil)
	if err != nil {
		return err
	}

	// Hash new password
	passwordHash, err := u.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// Update user's password
	if _, err := u.userRepo.UpdateUser(ctx, userID, repository.UpdateUserParams{
		PasswordHash: &passwordHash,
	}); err != nil {
		if isNotFound(err) {
			u.codes.consume(ctx, token)
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	u.codes.consume(ctx, token)

	return nil
}
