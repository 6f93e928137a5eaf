package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/authflow/authflow-go/internal/apperr"
	"github.com/authflow/authflow-go/internal/crypto"
)

type contextKey string

const userIDKey contextKey = "userID"

var (
	ErrNotAuthorized  = apperr.Auth("Not Authorized! Login again")
	ErrSessionExpired = apperr.Auth("Session expired! Login again")
	ErrInvalidSession = apperr.Auth("Invalid session! Login again")
)

// TokenParser verifies a session token and returns its claims.
type TokenParser interface {
	Parse(token string) (*crypto.SessionClaims, error)
}

// NewSessionMiddleware rejects requests without a valid session cookie and
// puts the session's user ID in the request context.
func NewSessionMiddleware(tokens TokenParser, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				writeError(w, ErrNotAuthorized)
				return
			}

			claims, err := tokens.Parse(cookie.Value)
			if err != nil {
				if errors.Is(err, crypto.ErrTokenExpired) {
					writeError(w, ErrSessionExpired)
					return
				}
				writeError(w, ErrInvalidSession)
				return
			}

			setLoggedUserID(r.Context(), claims.UserID)
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), claims.UserID)))
		})
	}
}

// ContextWithUserID returns a copy of ctx carrying userID.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
