package handler

import (
	"net/http"
	"time"

	"github.com/authflow/authflow-go/internal/model"
	"github.com/authflow/authflow-go/internal/service"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	service    *service.AuthService
	cookie     SessionCookie
	sessionTTL time.Duration
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, cookie SessionCookie, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{service: svc, cookie: cookie, sessionTTL: sessionTTL}
}

// HandleRegister handles POST /auth/register requests.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookie.Set(w, session.Token, session.ExpiresAt, h.sessionTTL)
	writeJSON(w, http.StatusOK, model.Response{Success: true})
}

// HandleLogin handles POST /auth/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookie.Set(w, session.Token, session.ExpiresAt, h.sessionTTL)
	writeJSON(w, http.StatusOK, model.Response{Success: true})
}

// HandleLogout handles POST /auth/logout requests.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.cookie.Clear(w)
	writeSuccess(w, "Logged Out")
}

// HandleIsAuth handles GET /auth/is-auth requests. The session middleware
// has already accepted the request.
func (h *AuthHandler) HandleIsAuth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.Response{Success: true})
}
