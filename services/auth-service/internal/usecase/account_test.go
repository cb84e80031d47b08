package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerParams() RegisterParams {
	return RegisterParams{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       "a@x.com",
		PhoneNumber: "254700000001",
		Password:    "secret123",
	}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.account.Register(context.Background(), registerParams())
	require.NoError(t, err)

	stored, ok := env.users.get(user.ID.Hex())
	require.True(t, ok)
	assert.Equal(t, "hashed:secret123", stored.PasswordHash)
	assert.False(t, stored.Verified)
	assert.Equal(t, 1, env.verifyTokens.count())
	assert.Equal(t, 1, env.mailer.count())
}

func TestRegister_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.account.Register(ctx, registerParams())
	require.NoError(t, err)

	params := registerParams()
	params.Email = "other@x.com"
	_, err = env.account.Register(ctx, params)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	params = registerParams()
	params.PhoneNumber = "254700000002"
	_, err = env.account.Register(ctx, params)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegister_IssueFailureKeepsAccount(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.err = assert.AnError

	user, err := env.account.Register(context.Background(), registerParams())
	require.ErrorIs(t, err, ErrDispatchFailed)
	require.NotNil(t, user)

	_, ok := env.users.get(user.ID.Hex())
	assert.True(t, ok)

	env.mailer.err = nil
	require.NoError(t, env.verification.ResendVerificationCode(context.Background(), user.ID.Hex()))
}

func TestRegister_PhoneNumberWithLeadingZeros(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	params := registerParams()
	params.PhoneNumber = "0712345678"
	user, err := env.account.Register(ctx, params)
	require.NoError(t, err)

	stored, _ := env.users.get(user.ID.Hex())
	assert.Equal(t, "712345678", stored.PhoneNumber)

	for i, phone := range []string{"712345678", "00712345678"} {
		params := registerParams()
		params.Email = fmt.Sprintf("other%d@x.com", i)
		params.PhoneNumber = phone
		_, err = env.account.Register(ctx, params)
		assert.ErrorIs(t, err, ErrUserAlreadyExists, phone)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	verified := env.addUser("a@x.com", true)
	env.addUser("pending@x.com", false)

	user, err := env.account.Login(ctx, LoginParams{Email: "a@x.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, verified.ID, user.ID)

	_, err = env.account.Login(ctx, LoginParams{Email: "a@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = env.account.Login(ctx, LoginParams{Email: "nobody@x.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.account.Login(ctx, LoginParams{Email: "pending@x.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestGetProfile(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser("a@x.com", true)

	got, err := env.account.GetProfile(context.Background(), user.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)

	_, err = env.account.GetProfile(context.Background(), "bad-id")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.addUser("a@x.com", true)
	other := env.addUser("b@x.com", true)
	userID := user.ID.Hex()

	updated, err := env.account.UpdateProfile(ctx, userID, UpdateProfileParams{
		Email:          "a@x.com",
		Password:       "secret123",
		FirstName:      "Grace",
		ProfilePicture: "https://cdn.example.com/p.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "Grace", updated.FirstName)
	assert.Equal(t, "Tingo", updated.LastName)
	assert.Equal(t, "https://cdn.example.com/p.png", updated.ProfilePicture)

	_, err = env.account.UpdateProfile(ctx, userID, UpdateProfileParams{Email: "a@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = env.account.UpdateProfile(ctx, userID, UpdateProfileParams{Email: other.Email, Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePhoneNumber(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.addUser("a@x.com", true)
	other := env.addUser("b@x.com", true)
	userID := user.ID.Hex()

	err := env.account.ChangePhoneNumber(ctx, userID, other.PhoneNumber, "secret123")
	assert.ErrorIs(t, err, ErrPhoneNumberAlreadyUsed)

	err = env.account.ChangePhoneNumber(ctx, userID, "254799999999", "wrong")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	require.NoError(t, env.account.ChangePhoneNumber(ctx, userID, "254799999999", "secret123"))
	stored, _ := env.users.get(userID)
	assert.Equal(t, "254799999999", stored.PhoneNumber)
}

func TestChangePhoneNumber_LeadingZeros(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.addUser("a@x.com", true)
	other := env.addUser("b@x.com", true)

	require.NoError(t, env.account.ChangePhoneNumber(ctx, other.ID.Hex(), "0712345678", "secret123"))
	stored, _ := env.users.get(other.ID.Hex())
	assert.Equal(t, "712345678", stored.PhoneNumber)

	err := env.account.ChangePhoneNumber(ctx, user.ID.Hex(), "00712345678", "secret123")
	assert.ErrorIs(t, err, ErrPhoneNumberAlreadyUsed)

	err = env.account.ChangePhoneNumber(ctx, user.ID.Hex(), "712345678", "secret123")
	assert.ErrorIs(t, err, ErrPhoneNumberAlreadyUsed)
}

func TestNormalizePhoneNumber(t *testing.T) {
	assert.Equal(t, "712345678", normalizePhoneNumber("0712345678"))
	assert.Equal(t, "254712345678", normalizePhoneNumber("254712345678"))
	assert.Equal(t, "0", normalizePhoneNumber("000"))
}

func TestFormatExpiry(t *testing.T) {
	assert.Equal(t, "60 minutes", formatExpiry(time.Hour))
	assert.Equal(t, "15 minutes", formatExpiry(15*time.Minute))
	assert.Equal(t, "1 minute", formatExpiry(30*time.Second))
}
