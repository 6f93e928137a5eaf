package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authflow/authflow-go/internal/apperr"
	"github.com/authflow/authflow-go/internal/crypto"
	"github.com/authflow/authflow-go/internal/mailer"
	"github.com/authflow/authflow-go/internal/model"
	"github.com/authflow/authflow-go/internal/repository"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []mailer.Email
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, email mailer.Email) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, email)
	return nil
}

func (n *recordingNotifier) last() mailer.Email {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

type fixedOTP struct{ code string }

func (g fixedOTP) Generate() (string, error) { return g.code, nil }

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	svc      *AuthService
	users    *repository.MemoryUserRepository
	notifier *recordingNotifier
	tokens   *crypto.TokenCodec
	clock    *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := &clock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	f := &fixture{
		users:    repository.NewMemoryUserRepository(),
		notifier: &recordingNotifier{},
		tokens:   crypto.NewTokenCodec("test-secret", "authflow", 7*24*time.Hour).WithClock(clk.now),
		clock:    clk,
	}
	f.svc = NewAuthService(Deps{
		Users:        f.users,
		Hasher:       crypto.NewArgon2Hasher(crypto.HashParams{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}),
		Tokens:       f.tokens,
		OTP:          fixedOTP{code: "123456"},
		Notifier:     f.notifier,
		Now:          clk.now,
		VerifyOTPTTL: 24 * time.Hour,
		ResetOTPTTL:  15 * time.Minute,
	})
	return f
}

func (f *fixture) register(t *testing.T, name, email, password string) *model.User {
	t.Helper()
	_, err := f.svc.Register(context.Background(), model.RegisterRequest{Name: name, Email: email, Password: password})
	require.NoError(t, err)
	u, err := f.users.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return u
}

func TestRegister_CreatesUnverifiedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.Register(ctx, model.RegisterRequest{Name: "Ann", Email: "ann@x.com", Password: "pw1"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, f.clock.t.Add(7*24*time.Hour), session.ExpiresAt)

	u, err := f.users.GetByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.False(t, u.Verified)
	assert.NotEqual(t, "pw1", u.PasswordHash)
	assert.NotEmpty(t, u.ID)

	claims, err := f.tokens.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	assert.Equal(t, "ann@x.com", f.notifier.last().To)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  model.RegisterRequest
		want error
	}{
		{"missing name", model.RegisterRequest{Email: "a@x.io", Password: "pw"}, ErrMissingDetails},
		{"missing email", model.RegisterRequest{Name: "A", Password: "pw"}, ErrMissingDetails},
		{"missing password", model.RegisterRequest{Name: "A", Email: "a@x.io"}, ErrMissingDetails},
		{"malformed email", model.RegisterRequest{Name: "A", Email: "not-an-email", Password: "pw"}, ErrInvalidEmailAddr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.register(t, "Ann", "ann@x.com", "pw1")

	_, err := f.svc.Register(ctx, model.RegisterRequest{Name: "Other", Email: "ann@x.com", Password: "pw2"})
	require.ErrorIs(t, err, ErrUserExists)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	stored, err := f.users.GetByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, "Ann", stored.Name)
	assert.Equal(t, first.PasswordHash, stored.PasswordHash)
}

func TestEmailIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, model.RegisterRequest{Name: "Ann", Email: "Ann@X.com", Password: "pw1"})
	require.NoError(t, err)

	stored, err := f.users.GetByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", stored.Email)

	_, err = f.svc.Register(ctx, model.RegisterRequest{Name: "Other", Email: "ANN@x.com", Password: "pw2"})
	require.ErrorIs(t, err, ErrUserExists)

	_, err = f.svc.Login(ctx, model.LoginRequest{Email: "aNN@X.COM", Password: "pw1"})
	require.NoError(t, err)

	require.NoError(t, f.svc.SendResetOTP(ctx, model.SendResetOTPRequest{Email: "ANN@X.COM"}))
	require.NoError(t, f.svc.ResetPassword(ctx, model.ResetPasswordRequest{Email: "Ann@x.Com", OTP: "123456", NewPassword: "pw2"}))
}

func TestRegister_WelcomeEmailFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("smtp down")

	_, err := f.svc.Register(context.Background(), model.RegisterRequest{Name: "Ann", Email: "ann@x.com", Password: "pw1"})
	require.NoError(t, err)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "Ann", "ann@x.com", "pw1")

	_, err := f.svc.Login(ctx, model.LoginRequest{Email: "ann@x.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidPassword)
	assert.Equal(t, "Invalid Password", apperr.MessageOf(err))

	_, err = f.svc.Login(ctx, model.LoginRequest{Email: "nobody@x.com", Password: "pw1"})
	require.ErrorIs(t, err, ErrInvalidEmail)

	_, err = f.svc.Login(ctx, model.LoginRequest{Email: "ann@x.com"})
	require.ErrorIs(t, err, ErrCredentialsEmpty)

	session, err := f.svc.Login(ctx, model.LoginRequest{Email: "ann@x.com", Password: "pw1"})
	require.NoError(t, err)
	claims, err := f.tokens.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
}

func TestGetUserData(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "Ann", "ann@x.com", "pw1")

	data, err := f.svc.GetUserData(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UserData{Name: "Ann", Verified: false}, data)

	_, err = f.svc.GetUserData(context.Background(), "missing")
	require.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

type failingRepo struct {
	repository.UserRepository
}

func (failingRepo) GetByEmail(context.Context, string) (*model.User, error) {
	return nil, errors.New("connection reset")
}

func TestLogin_StoreFailureIsDependencyError(t *testing.T) {
	f := newFixture(t)
	f.svc.users = failingRepo{UserRepository: f.users}

	_, err := f.svc.Login(context.Background(), model.LoginRequest{Email: "ann@x.com", Password: "pw1"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindDependency, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "connection reset")
}
