package usecase

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/config"
	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/model"
	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/repository"
	"github.com/IsaacNewtonTingo/nikopeshe-api/shared/lock"
)

var errStore = errors.New("store unavailable")

func duplicateKeyError() error {
	return mongo.WriteException{
		WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}},
	}
}

// ---- users ----

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User

	// emailTakenOnUpdate makes the next email update fail with a duplicate key.
	emailTakenOnUpdate bool
	createErr          error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (r *fakeUserRepo) add(u model.User) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	r.users[u.ID.Hex()] = &u
	copied := u
	return &copied
}

func (r *fakeUserRepo) get(id string) (model.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return model.User{}, false
	}
	return *u, true
}

func (r *fakeUserRepo) find(match func(*model.User) bool) (*model.User, error) {
	for _, u := range r.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, u := range r.users {
		if u.Email == user.Email || u.PhoneNumber == user.PhoneNumber {
			return nil, duplicateKeyError()
		}
	}

	user.ID = bson.NewObjectID()
	stored := *user
	r.users[user.ID.Hex()] = &stored
	return user, nil
}

func (r *fakeUserRepo) GetUser(_ context.Context, id string) (*model.User, error) {
	if _, err := bson.ObjectIDFromHex(id); err != nil {
		return nil, repository.ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(u *model.User) bool { return u.ID.Hex() == id })
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) GetUserByPhoneNumber(_ context.Context, phoneNumber string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(u *model.User) bool { return u.PhoneNumber == phoneNumber })
}

func (r *fakeUserRepo) GetUserByEmailOrPhoneNumber(_ context.Context, email, phoneNumber string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(u *model.User) bool { return u.Email == email || u.PhoneNumber == phoneNumber })
}

func (r *fakeUserRepo) UpdateUser(
	_ context.Context,
	id string,
	params repository.UpdateUserParams,
) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	if params.Email != nil {
		if r.emailTakenOnUpdate {
			return nil, duplicateKeyError()
		}
		u.Email = *params.Email
	}
	if params.PhoneNumber != nil {
		u.PhoneNumber = *params.PhoneNumber
	}
	if params.FirstName != nil {
		u.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		u.LastName = *params.LastName
	}
	if params.ProfilePicture != nil {
		u.ProfilePicture = *params.ProfilePicture
	}
	if params.PasswordHash != nil {
		u.PasswordHash = *params.PasswordHash
	}
	if params.Verified != nil {
		u.Verified = *params.Verified
	}

	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) DeleteUnverifiedUser(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok || u.Verified {
		return false, nil
	}
	delete(r.users, id)
	return true, nil
}

// ---- tokens ----

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*model.VerificationToken

	putErr    error
	getErr    error
	deleteErr error
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: map[string]*model.VerificationToken{}}
}

func (r *fakeTokenRepo) PutToken(_ context.Context, token *model.VerificationToken) (*model.VerificationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.putErr != nil {
		return nil, r.putErr
	}

	token.ID = bson.NewObjectID()
	stored := *token
	r.tokens[token.UserID.Hex()] = &stored
	return token, nil
}

func (r *fakeTokenRepo) GetToken(_ context.Context, userID string) (*model.VerificationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.getErr != nil {
		return nil, r.getErr
	}

	t, ok := r.tokens[userID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTokenRepo) DeleteToken(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.tokens, userID)
	return nil
}

func (r *fakeTokenRepo) ConsumeToken(_ context.Context, tokenID bson.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, t := range r.tokens {
		if t.ID == tokenID {
			delete(r.tokens, userID)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTokenRepo) token(userID string) (model.VerificationToken, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[userID]
	if !ok {
		return model.VerificationToken{}, false
	}
	return *t, true
}

func (r *fakeTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// ---- hasher ----

type fakeHasher struct {
	hashErr error
}

func (h *fakeHasher) Hash(plaintext string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hashed:" + plaintext, nil
}

func (h *fakeHasher) Compare(plaintext, hash string) (bool, error) {
	return hash == "hashed:"+plaintext, nil
}

// ---- mailer ----

type sentEmail struct {
	to      []string
	subject string
	body    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (m *fakeMailer) SendHTML(_ context.Context, to []string, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{to: to, subject: subject, body: htmlBody})
	return nil
}

var codePattern = regexp.MustCompile(`\b\d{4,10}\b`)

// lastCode returns the code in the most recent email sent to address.
func (m *fakeMailer) lastCode(t *testing.T, address string) string {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.sent) - 1; i >= 0; i-- {
		if len(m.sent[i].to) == 1 && m.sent[i].to[0] == address {
			code := codePattern.FindString(m.sent[i].body)
			if code == "" {
				t.Fatalf("no code in email to %s", address)
			}
			return code
		}
	}

	t.Fatalf("no email sent to %s", address)
	return ""
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// ---- locker ----

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string) (func(), error) {
	return nil, lock.ErrNotAcquired
}

// ---- clock ----

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ---- wiring ----

type testEnv struct {
	users        *fakeUserRepo
	verifyTokens *fakeTokenRepo
	resetTokens  *fakeTokenRepo
	changeTokens *fakeTokenRepo
	hasher       *fakeHasher
	mailer       *fakeMailer
	clock        *fakeClock

	verification *emailVerificationUsecase
	reset        *passwordResetUsecase
	change       *emailChangeUsecase
	account      AccountUsecase
}

func testConfig() *config.AuthServiceConfig {
	return &config.AuthServiceConfig{
		Code: config.CodeConfig{
			Digits:                 4,
			VerificationExpiresIn:  time.Hour,
			PasswordResetExpiresIn: time.Hour,
			EmailChangeExpiresIn:   time.Hour,
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:        newFakeUserRepo(),
		verifyTokens: newFakeTokenRepo(),
		resetTokens:  newFakeTokenRepo(),
		changeTokens: newFakeTokenRepo(),
		hasher:       &fakeHasher{},
		mailer:       &fakeMailer{},
		clock:        newFakeClock(),
	}

	logger := zerolog.Nop()
	cfg := testConfig()

	env.verification = NewEmailVerificationUsecase(
		env.users, env.verifyTokens, env.hasher, env.mailer, lock.NoopLocker{}, &logger, cfg,
	).(*emailVerificationUsecase)
	env.reset = NewPasswordResetUsecase(
		env.users, env.resetTokens, env.hasher, env.mailer, lock.NoopLocker{}, &logger, cfg,
	).(*passwordResetUsecase)
	env.change = NewEmailChangeUsecase(
		env.users, env.changeTokens, env.hasher, env.mailer, lock.NoopLocker{}, &logger, cfg,
	).(*emailChangeUsecase)
	env.account = NewAccountUsecase(env.users, env.hasher, env.verification)

	for _, codes := range []*codeService{env.verification.codes, env.reset.codes, env.change.codes} {
		codes.now = env.clock.Now
	}

	return env
}

// addUser stores a user whose password is "secret123".
func (e *testEnv) addUser(email string, verified bool) *model.User {
	return e.users.add(model.User{
		FirstName:    "Isaac",
		LastName:     "Tingo",
		Email:        email,
		PhoneNumber:  "2547" + bson.NewObjectID().Hex()[16:],
		PasswordHash: "hashed:secret123",
		Verified:     verified,
	})
}

// wrongCode returns a code with the same length as code that does not match it.
func wrongCode(code string) string {
	if code == "1000" {
		return "1001"
	}
	return "1000"
}
