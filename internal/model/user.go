package model

import "time"

// User is a credential record. An OTP and its expiry are always set and cleared
// together; a zero expiry means no code is outstanding.
type User struct {
	ID                string    `bson:"_id"`
	Name              string    `bson:"name"`
	Email             string    `bson:"email"`
	PasswordHash      string    `bson:"password_hash"`
	Verified          bool      `bson:"verified"`
	VerifyOTP         string    `bson:"verify_otp"`
	VerifyOTPExpireAt time.Time `bson:"verify_otp_expire_at"`
	ResetOTP          string    `bson:"reset_otp"`
	ResetOTPExpireAt  time.Time `bson:"reset_otp_expire_at"`
	Version           int64     `bson:"version"`
	CreatedAt         time.Time `bson:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at"`
}

// SetVerifyOTP stores a verification code expiring at expireAt, replacing any previous one.
func (u *User) SetVerifyOTP(code string, expireAt time.Time) {
	u.VerifyOTP = code
	u.VerifyOTPExpireAt = expireAt
}

// MarkVerified flags the account verified and discards the verification code.
func (u *User) MarkVerified() {
	u.Verified = true
	u.VerifyOTP = ""
	u.VerifyOTPExpireAt = time.Time{}
}

// SetResetOTP stores a password reset code expiring at expireAt, replacing any previous one.
func (u *User) SetResetOTP(code string, expireAt time.Time) {
	u.ResetOTP = code
	u.ResetOTPExpireAt = expireAt
}

// ReplacePassword swaps the stored hash and discards the reset code.
func (u *User) ReplacePassword(hash string) {
	u.PasswordHash = hash
	u.ResetOTP = ""
	u.ResetOTPExpireAt = time.Time{}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// VerifyAccountRequest carries the submitted verification code. The identity comes
// from the session, never from the body.
type VerifyAccountRequest struct {
	UserID string `json:"-"   validate:"required"`
	OTP    string `json:"otp" validate:"required"`
}

// SendResetOTPRequest starts the password reset flow.
type SendResetOTPRequest struct {
	Email string `json:"email" validate:"required"`
}

// ResetPasswordRequest completes the password reset flow.
type ResetPasswordRequest struct {
	Email       string `json:"email"       validate:"required"`
	OTP         string `json:"otp"         validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// Response is the envelope returned by every endpoint.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// UserData is the profile view exposed to the signed-in user.
type UserData struct {
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
}

// UserDataResponse wraps UserData in the success envelope.
type UserDataResponse struct {
	Success  bool     `json:"success"`
	UserData UserData `json:"userData"`
}
