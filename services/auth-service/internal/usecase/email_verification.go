package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/config"
	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/model"
	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/repository"
	"github.com/IsaacNewtonTingo/nikopeshe-api/shared/lock"
)

// EmailVerificationUsecase confirms that a newly registered user owns the
// email address they signed up with.
type EmailVerificationUsecase interface {
	// SendVerificationCode issues a code for user and emails it to the
	// account's address.
	SendVerificationCode(ctx context.Context, user *model.User) error

	// ResendVerificationCode replaces the user's outstanding code with a new one.
	ResendVerificationCode(ctx context.Context, userID string) error

	// VerifyEmail marks the account as verified when code matches. An expired
	// code deletes the unverified account.
	VerifyEmail(ctx context.Context, userID, code string) error
}

var ErrAlreadyVerified = errors.New("email has already been verified")

type emailVerificationUsecase struct {
	userRepo repository.UserRepository
	codes    *codeService
}

// NewEmailVerificationUsecase creates a new instance of EmailVerificationUsecase.
func NewEmailVerificationUsecase(
	userRepo repository.UserRepository,
	tokenRepo repository.VerificationTokenRepository,
	hasher CredentialHasher,
	mailer EmailSender,
	locker lock.Locker,
	logger *zerolog.Logger,
	authServiceCfg *config.AuthServiceConfig,
) EmailVerificationUsecase {
	return &emailVerificationUsecase{
		userRepo: userRepo,
		codes: newCodeService(
			model.PurposeEmailVerification,
			tokenRepo,
			hasher,
			mailer,
			locker,
			logger,
			authServiceCfg.Code.Digits,
			authServiceCfg.Code.VerificationExpiresIn,
		),
	}
}

func (u *emailVerificationUsecase) SendVerificationCode(ctx context.Context, user *model.User) error {
	release, err := u.codes.lock(ctx, user.ID.Hex())
	if err != nil {
		return err
	}
	defer release()

	return u.issue(ctx, user)
}

func (u *emailVerificationUsecase) ResendVerificationCode(ctx context.Context, userID string) error {
	release, err := u.codes.lock(ctx, userID)
	if err != nil {
		return err
	}
	defer release()

	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.Verified {
		return ErrAlreadyVerified
	}

	if err := u.codes.clear(ctx, userID); err != nil {
		return err
	}

	return u.issue(ctx, user)
}

func (u *emailVerificationUsecase) VerifyEmail(ctx context.Context, userID, code string) error {
	release, err := u.codes.lock(ctx, userID)
	if err != nil {
		return err
	}
	defer release()

	token, err := u.codes.redeem(ctx, userID, code, nil)
	if errors.Is(err, ErrCodeExpired) {
		// The signup was never confirmed in time, so the account goes too.
		if _, err := u.userRepo.DeleteUnverifiedUser(ctx, userID); err != nil && !isNotFound(err) {
			return fmt.Errorf("failed to delete unverified user: %w", err)
		}
		return ErrCodeExpired
	}
	if err != nil {
		return err
	}

	verified := true
	if _, err := u.userRepo.UpdateUser(ctx, userID, repository.UpdateUserParams{Verified: &verified}); err != nil {
		if isNotFound(err) {
			u.codes.consume(ctx, token)
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to mark user as verified: %w", err)
	}

	u.codes.consume(ctx, token)

	return nil
}

func (u *emailVerificationUsecase) issue(ctx context.Context, user *model.User) error {
	return u.codes.issue(ctx, user.ID, "", codeEmail{
		to:      user.Email,
		subject: "Verify your email",
		body: func(code, expiresIn string) string {
			return fmt.Sprintf(`
		<p>Hello,</p>
		<p>Verify your email to complete your signup process.</p>
		<p>Here is your verification code:</p>
		<h2>%s</h2>
		<p>The code expires in %s.</p>
	`, code, expiresIn)
		},
	})
}
