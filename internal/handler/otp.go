package handler

import (
	"net/http"

	"github.com/authflow/authflow-go/internal/middleware"
	"github.com/authflow/authflow-go/internal/model"
)

// HandleSendVerifyOTP handles POST /auth/send-verify-otp requests.
func (h *AuthHandler) HandleSendVerifyOTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, middleware.ErrNotAuthorized)
		return
	}

	if err := h.service.SendVerifyOTP(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, "Verification OTP sent on Email")
}

// HandleVerifyAccount handles POST /auth/verify-account requests.
func (h *AuthHandler) HandleVerifyAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, middleware.ErrNotAuthorized)
		return
	}

	var req model.VerifyAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.UserID = userID

	if err := h.service.VerifyAccount(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, "Email verified successfully")
}

// HandleSendResetOTP handles POST /auth/send-reset-otp requests.
func (h *AuthHandler) HandleSendResetOTP(w http.ResponseWriter, r *http.Request) {
	var req model.SendResetOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.SendResetOTP(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, "OTP sent to your email")
}

// HandleResetPassword handles POST /auth/reset-password requests.
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, "Password has been reset successfully")
}
