package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/config"
	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/model"
	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/repository"
	"github.com/IsaacNewtonTingo/nikopeshe-api/shared/lock"
)

// EmailChangeUsecase moves an account to a new email address once the user
// proves they own it.
type EmailChangeUsecase interface {
	// RequestEmailChange emails a code to newEmail after checking the user's
	// current password.
	RequestEmailChange(ctx context.Context, userID, newEmail, password string) error

	// ConfirmEmailChange switches the account to newEmail when code matches the
	// code issued for that same address.
	ConfirmEmailChange(ctx context.Context, userID, newEmail, code string) error
}

var ErrEmailAlreadyUsed = errors.New("email has already been used")

type emailChangeUsecase struct {
	userRepo repository.UserRepository
	hasher   CredentialHasher
	codes    *codeService
}

// NewEmailChangeUsecase creates a new instance of EmailChangeUsecase.
func NewEmailChangeUsecase(
	userRepo repository.UserRepository,
	tokenRepo repository.VerificationTokenRepository,
	hasher CredentialHasher,
	mailer EmailSender,
	locker lock.Locker,
	logger *zerolog.Logger,
	authServiceCfg *config.AuthServiceConfig,
) EmailChangeUsecase {
	return &emailChangeUsecase{
		userRepo: userRepo,
		hasher:   hasher,
		codes: newCodeService(
			model.PurposeEmailChange,
			tokenRepo,
			hasher,
			mailer,
			locker,
			logger,
			authServiceCfg.Code.Digits,
			authServiceCfg.Code.EmailChangeExpiresIn,
		),
	}
}

func (u *emailChangeUsecase) RequestEmailChange(ctx context.Context, userID, newEmail, password string) error {
	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if ok, err := u.hasher.Compare(password, user.PasswordHash); err != nil {
		return fmt.Errorf("failed to compare password: %w", err)
	} else if !ok {
		return ErrInvalidPassword
	}

	// Any account holding the address blocks the change, including this one.
	if _, err := u.userRepo.GetUserByEmail(ctx, newEmail); err == nil {
		return ErrEmailAlreadyUsed
	} else if !isNotFound(err) {
		return fmt.Errorf("failed to check email: %w", err)
	}

	release, err := u.codes.lock(ctx, userID)
	if err != nil {
		return err
	}
	defer release()

	if err := u.codes.clear(ctx, userID); err != nil {
		return err
	}

	return u.codes.issue(ctx, user.ID, newEmail, codeEmail{
		to:      newEmail,
		subject: "Verify your email",
		body: func(code, expiresIn string) string {
			return fmt.Sprintf(`
		<p>Hello,</p>
		<p>You have requested to change the email address on your account.</p>
		<p>Here is your verification code:</p>
		<h2>%s</h2>
		<p>The code expires in %s.</p>
	`, code, expiresIn)
		},
	})
}

func (u *emailChangeUsecase) ConfirmEmailChange(ctx context.Context, userID, newEmail, code string) error {
	if _, err := u.userRepo.GetUser(ctx, userID); err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	release, err := u.codes.lock(ctx, userID)
	if err != nil {
		return err
	}
	defer release()

	token, err := u.codes.redeem(ctx, userID, code, func(t *model.VerificationToken) bool {
		return t.NewEmail == newEmail
	})
	if err != nil {
		return err
	}

	if _, err := u.userRepo.UpdateUser(ctx, userID, repository.UpdateUserParams{Email: &newEmail}); err != nil {
		switch {
		case mongo.IsDuplicateKeyError(err):
			// Someone registered the address after the code was sent.
			u.codes.consume(ctx, token)
			return ErrEmailAlreadyUsed
		case isNotFound(err):
			u.codes.consume(ctx, token)
			return ErrUserNotFound
		default:
			return fmt.Errorf("failed to update email: %w", err)
		}
	}

	u.codes.consume(ctx, token)

	return nil
}
