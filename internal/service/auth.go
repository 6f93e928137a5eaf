package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/authflow/authflow-go/internal/apperr"
	"github.com/authflow/authflow-go/internal/crypto"
	"github.com/authflow/authflow-go/internal/mailer"
	"github.com/authflow/authflow-go/internal/metrics"
	"github.com/authflow/authflow-go/internal/model"
	"github.com/authflow/authflow-go/internal/repository"
)

var (
	ErrMissingDetails   = apperr.Validation("Missing Details")
	ErrInvalidEmailAddr = apperr.Validation("Invalid email address")
	ErrCredentialsEmpty = apperr.Validation("Email & Password are required")
	ErrUserExists       = apperr.Conflict("User already exists")
	ErrInvalidEmail     = apperr.Auth("Invalid email")
	ErrInvalidPassword  = apperr.Auth("Invalid Password")
	ErrUserNotFound     = apperr.NotFound("User not found")
)

// Session is a freshly issued session token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Deps are the collaborators of AuthService. Metrics, Logger and Now default
// to no-op, slog.Default and time.Now.
type Deps struct {
	Users    repository.UserRepository
	Hasher   crypto.PasswordHasher
	Tokens   *crypto.TokenCodec
	OTP      crypto.OTPGenerator
	Notifier mailer.Notifier
	Metrics  metrics.Recorder
	Logger   *slog.Logger
	Now      func() time.Time

	VerifyOTPTTL time.Duration
	ResetOTPTTL  time.Duration
}

// AuthService handles registration, login and the OTP workflows.
type AuthService struct {
	users    repository.UserRepository
	hasher   crypto.PasswordHasher
	tokens   *crypto.TokenCodec
	otp      crypto.OTPGenerator
	notifier mailer.Notifier
	metrics  metrics.Recorder
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time

	verifyOTPTTL time.Duration
	resetOTPTTL  time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(d Deps) *AuthService {
	s := &AuthService{
		users:        d.Users,
		hasher:       d.Hasher,
		tokens:       d.Tokens,
		otp:          d.OTP,
		notifier:     d.Notifier,
		metrics:      d.Metrics,
		logger:       d.Logger,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		now:          d.Now,
		verifyOTPTTL: d.VerifyOTPTTL,
		resetOTPTTL:  d.ResetOTPTTL,
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Register creates an unverified account and returns a session for it.
// A failed welcome email is logged and does not fail the registration.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (Session, error) {
	if err := s.check(req, ErrMissingDetails); err != nil {
		s.metrics.RecordAuth("register", "invalid_request")
		return Session{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return Session{}, oops.In("auth_service").With("operation", "Register").Wrapf(err, "hash password")
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			s.metrics.RecordAuth("register", "conflict")
			return Session{}, ErrUserExists
		}
		return Session{}, storeError(err)
	}

	session, err := s.issue(user.ID)
	if err != nil {
		return Session{}, err
	}

	if err := s.notifier.Send(ctx, mailer.WelcomeEmail(user.Email, user.Name)); err != nil {
		apperr.Log(s.logger, "welcome email failed", err)
	}

	s.metrics.RecordAuth("register", "success")
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return session, nil
}

// Login checks the credentials and returns a new session.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (Session, error) {
	if err := s.check(req, ErrCredentialsEmpty); err != nil {
		s.metrics.RecordAuth("login", "invalid_request")
		return Session{}, err
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.RecordAuth("login", "invalid_email")
			return Session{}, ErrInvalidEmail
		}
		return Session{}, storeError(err)
	}

	match, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return Session{}, oops.In("auth_service").With("operation", "Login").With("user_id", user.ID).Wrapf(err, "verify password")
	}
	if !match {
		s.metrics.RecordAuth("login", "invalid_password")
		return Session{}, ErrInvalidPassword
	}

	session, err := s.issue(user.ID)
	if err != nil {
		return Session{}, err
	}

	s.metrics.RecordAuth("login", "success")
	return session, nil
}

// GetUserData returns the profile of the signed-in user.
func (s *AuthService) GetUserData(ctx context.Context, userID string) (model.UserData, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.UserData{}, storeError(err)
	}

	return model.UserData{
		Name:     user.Name,
		Verified: user.Verified,
	}, nil
}

func (s *AuthService) issue(userID string) (Session, error) {
	token, expiresAt, err := s.tokens.Issue(userID)
	if err != nil {
		return Session{}, oops.In("auth_service").With("user_id", userID).Wrapf(err, "issue session token")
	}
	return Session{Token: token, ExpiresAt: expiresAt}, nil
}

// check validates req, reporting a malformed email separately from missing fields.
func (s *AuthService) check(req any, missing *apperr.Error) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return missing
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return missing
		}
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "email" {
			return ErrInvalidEmailAddr
		}
	}
	return missing
}

// normalizeEmail folds an address to the form stored and looked up, so every
// credential store treats emails case-insensitively.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// storeError converts a repository failure to the error reported to callers.
func storeError(err error) error {
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrUserExists
	default:
		return apperr.Dependency("credential store unavailable", err)
	}
}
