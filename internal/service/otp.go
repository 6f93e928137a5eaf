package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/samber/oops"

	"github.com/authflow/authflow-go/internal/apperr"
	"github.com/authflow/authflow-go/internal/mailer"
	"github.com/authflow/authflow-go/internal/metrics"
	"github.com/authflow/authflow-go/internal/model"
)

var (
	ErrAlreadyVerified  = apperr.Conflict("Account already verified")
	ErrInvalidOTP       = apperr.Auth("Invalid OTP")
	ErrOTPExpired       = apperr.Auth("OTP Expired")
	ErrEmailRequired    = apperr.Validation("Email is required")
	ErrResetFieldsEmpty = apperr.Validation("Email, OTP, and new password are required")
)

// SendVerifyOTP issues a verification code to the account's email. The stored
// code stays in place if delivery fails.
func (s *AuthService) SendVerifyOTP(ctx context.Context, userID string) error {
	code, err := s.generateOTP()
	if err != nil {
		return err
	}
	expireAt := s.now().Add(s.verifyOTPTTL)

	user, err := s.users.Update(ctx, userID, func(u *model.User) error {
		if u.Verified {
			return ErrAlreadyVerified
		}
		u.SetVerifyOTP(code, expireAt)
		return nil
	})
	if err != nil {
		return storeError(err)
	}
	s.metrics.RecordOTPIssued(metrics.PurposeVerify)

	if err := s.notifier.Send(ctx, mailer.VerifyOTPEmail(user.Email, code, s.verifyOTPTTL)); err != nil {
		return apperr.Dependency("failed to send verification email", err)
	}
	return nil
}

// VerifyAccount consumes the verification code and marks the account verified.
func (s *AuthService) VerifyAccount(ctx context.Context, req model.VerifyAccountRequest) error {
	if err := s.check(req, ErrMissingDetails); err != nil {
		return err
	}

	now := s.now()
	_, err := s.users.Update(ctx, req.UserID, func(u *model.User) error {
		if err := checkOTP(u.VerifyOTP, u.VerifyOTPExpireAt, req.OTP, now); err != nil {
			return err
		}
		u.MarkVerified()
		return nil
	})
	if err != nil {
		s.recordRejection(metrics.PurposeVerify, err)
		return storeError(err)
	}

	s.metrics.RecordOTPConsumed(metrics.PurposeVerify)
	s.logger.InfoContext(ctx, "account verified", "user_id", req.UserID)
	return nil
}

// SendResetOTP issues a password reset code to email.
func (s *AuthService) SendResetOTP(ctx context.Context, req model.SendResetOTPRequest) error {
	if err := s.check(req, ErrEmailRequired); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return storeError(err)
	}

	code, err := s.generateOTP()
	if err != nil {
		return err
	}
	expireAt := s.now().Add(s.resetOTPTTL)

	if _, err := s.users.Update(ctx, user.ID, func(u *model.User) error {
		u.SetResetOTP(code, expireAt)
		return nil
	}); err != nil {
		return storeError(err)
	}
	s.metrics.RecordOTPIssued(metrics.PurposeReset)

	if err := s.notifier.Send(ctx, mailer.ResetOTPEmail(user.Email, code, s.resetOTPTTL)); err != nil {
		return apperr.Dependency("failed to send password reset email", err)
	}
	return nil
}

// ResetPassword consumes the reset code and replaces the password hash.
// Sessions issued before the reset stay valid until they expire.
func (s *AuthService) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error {
	if err := s.check(req, ErrResetFieldsEmpty); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return storeError(err)
	}

	now := s.now()
	if err := checkOTP(user.ResetOTP, user.ResetOTPExpireAt, req.OTP, now); err != nil {
		s.recordRejection(metrics.PurposeReset, err)
		return err
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return oops.In("auth_service").With("operation", "ResetPassword").Wrapf(err, "hash password")
	}

	// The code is checked again under the update lock in case it was consumed
	// or reissued while hashing.
	if _, err := s.users.Update(ctx, user.ID, func(u *model.User) error {
		if err := checkOTP(u.ResetOTP, u.ResetOTPExpireAt, req.OTP, now); err != nil {
			return err
		}
		u.ReplacePassword(hash)
		return nil
	}); err != nil {
		s.recordRejection(metrics.PurposeReset, err)
		return storeError(err)
	}

	s.metrics.RecordOTPConsumed(metrics.PurposeReset)
	s.logger.InfoContext(ctx, "password reset", "user_id", user.ID)
	return nil
}

// checkOTP compares the code before looking at expiry, so a matching but stale
// code reports ErrOTPExpired and anything else reports ErrInvalidOTP.
func checkOTP(stored string, expireAt time.Time, submitted string, now time.Time) error {
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) != 1 {
		return ErrInvalidOTP
	}
	if !now.Before(expireAt) {
		return ErrOTPExpired
	}
	return nil
}

func (s *AuthService) generateOTP() (string, error) {
	code, err := s.otp.Generate()
	if err != nil {
		return "", oops.In("auth_service").Wrapf(err, "generate otp")
	}
	return code, nil
}

func (s *AuthService) recordRejection(purpose string, err error) {
	switch {
	case errors.Is(err, ErrInvalidOTP):
		s.metrics.RecordOTPRejected(purpose, "invalid")
	case errors.Is(err, ErrOTPExpired):
		s.metrics.RecordOTPRejected(purpose, "expired")
	}
}

