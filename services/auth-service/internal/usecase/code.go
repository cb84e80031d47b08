package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/model"
	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/repository"
	"github.com/IsaacNewtonTingo/nikopeshe-api/shared/lock"
	"github.com/IsaacNewtonTingo/nikopeshe-api/shared/security"
)

// CredentialHasher hashes passwords and codes one way and compares them in
// constant time.
type CredentialHasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, hash string) (bool, error)
}

// EmailSender delivers HTML emails.
type EmailSender interface {
	SendHTML(ctx context.Context, to []string, subject, htmlBody string) error
}

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrEmailNotVerified = errors.New("email has not been verified")

	ErrCodeNotFound = errors.New("no pending code found")
	ErrCodeExpired  = errors.New("code has expired")
	ErrInvalidCode  = errors.New("invalid code")

	ErrCodeStoreFailed = errors.New("failed to store code")
	ErrDispatchFailed  = errors.New("failed to send code email")
	ErrSubjectBusy     = errors.New("another request for this account is in progress")
)

// codeService issues and redeems the codes of a single purpose.
type codeService struct {
	purpose   model.Purpose
	tokenRepo repository.VerificationTokenRepository
	hasher    CredentialHasher
	mailer    EmailSender
	locker    lock.Locker
	logger    *zerolog.Logger
	digits    int
	ttl       time.Duration
	now       func() time.Time
}

func newCodeService(
	purpose model.Purpose,
	tokenRepo repository.VerificationTokenRepository,
	hasher CredentialHasher,
	mailer EmailSender,
	locker lock.Locker,
	logger *zerolog.Logger,
	digits int,
	ttl time.Duration,
) *codeService {
	if locker == nil {
		locker = lock.NoopLocker{}
	}

	return &codeService{
		purpose:   purpose,
		tokenRepo: tokenRepo,
		hasher:    hasher,
		mailer:    mailer,
		locker:    locker,
		logger:    logger,
		digits:    digits,
		ttl:       ttl,
		now:       time.Now,
	}
}

// codeEmail describes the message carrying a freshly issued code.
type codeEmail struct {
	to      string
	subject string
	body    func(code, expiresIn string) string
}

// lock takes the lease for the user's tokens of this purpose.
func (s *codeService) lock(ctx context.Context, userID string) (func(), error) {
	release, err := s.locker.Acquire(ctx, string(s.purpose)+":"+userID)
	if errors.Is(err, lock.ErrNotAcquired) {
		return nil, ErrSubjectBusy
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire %s lease: %w", s.purpose, err)
	}

	return release, nil
}

// issue replaces the user's outstanding token with a new one and emails the
// plaintext code. The code never leaves this function in any other form.
func (s *codeService) issue(ctx context.Context, userID bson.ObjectID, newEmail string, email codeEmail) error {
	code, err := security.GenerateNumericCode(s.digits)
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	codeHash, err := s.hasher.Hash(code)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	now := s.now()
	if _, err := s.tokenRepo.PutToken(ctx, &model.VerificationToken{
		UserID:    userID,
		CodeHash:  codeHash,
		NewEmail:  newEmail,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}); err != nil {
		return fmt.Errorf("%w: %w", ErrCodeStoreFailed, err)
	}

	body := email.body(code, formatExpiry(s.ttl))
	if err := s.mailer.SendHTML(ctx, []string{email.to}, email.subject, body); err != nil {
		return fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}

	return nil
}

// clear removes the user's outstanding token, if any.
func (s *codeService) clear(ctx context.Context, userID string) error {
	if err := s.tokenRepo.DeleteToken(ctx, userID); err != nil {
		return fmt.Errorf("%w: failed to clear previous %s token: %w", ErrCodeStoreFailed, s.purpose, err)
	}
	return nil
}

// redeem checks code against the user's outstanding token. Tokens rejected by
// match are treated as missing. An expired token is deleted before
// ErrCodeExpired is returned; a wrong code leaves the token in place.
func (s *codeService) redeem(
	ctx context.Context,
	userID, code string,
	match func(*model.VerificationToken) bool,
) (*model.VerificationToken, error) {
	token, err := s.tokenRepo.GetToken(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to get %s token: %w", s.purpose, err)
	}

	if match != nil && !match(token) {
		return nil, ErrCodeNotFound
	}

	if token.IsExpired(s.now()) {
		if err := s.tokenRepo.DeleteToken(ctx, userID); err != nil {
			return nil, fmt.Errorf("failed to delete expired %s token: %w", s.purpose, err)
		}
		return nil, ErrCodeExpired
	}

	ok, err := s.hasher.Compare(code, token.CodeHash)
	if err != nil {
		return nil, fmt.Errorf("failed to compare %s code: %w", s.purpose, err)
	}
	if !ok {
		return nil, ErrInvalidCode
	}

	return token, nil
}

// consume deletes the redeemed token. It runs after the account mutation has
// been stored, so a failure here only leaves a stale token behind and is
// logged rather than returned.
func (s *codeService) consume(ctx context.Context, token *model.VerificationToken) {
	deleted, err := s.tokenRepo.ConsumeToken(ctx, token.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("purpose", string(s.purpose)).
			Str("user_id", token.UserID.Hex()).
			Msg("failed to consume token after successful redemption")
		return
	}

	if !deleted {
		s.logger.Warn().
			Str("purpose", string(s.purpose)).
			Str("user_id", token.UserID.Hex()).
			Msg("token was already consumed or replaced")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, repository.ErrInvalidID)
}

// formatExpiry renders a code lifetime for email bodies, e.g. "60 minutes".
func formatExpiry(d time.Duration) string {
	minutes := int(d.Round(time.Minute) / time.Minute)
	if minutes <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
