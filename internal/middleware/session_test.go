package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authflow/authflow-go/internal/crypto"
	"github.com/authflow/authflow-go/internal/model"
)

func protected(t *testing.T, codec *crypto.TokenCodec) (http.Handler, *string) {
	t.Helper()
	var captured string
	h := NewSessionMiddleware(codec, "token")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		if !ok {
			t.Error("expected user ID in context")
		}
		captured = id
		w.WriteHeader(http.StatusOK)
	}))
	return h, &captured
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) model.Response {
	t.Helper()
	var resp model.Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestSessionMiddleware_ValidToken_InjectsUserID(t *testing.T) {
	codec := crypto.NewTokenCodec("secret", "authflow", time.Hour)
	token, _, err := codec.Issue("user-123")
	require.NoError(t, err)

	h, captured := protected(t, codec)
	req := httptest.NewRequest(http.MethodGet, "/auth/is-auth", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-123", *captured)
}

func TestSessionMiddleware_Rejects(t *testing.T) {
	codec := crypto.NewTokenCodec("secret", "authflow", time.Hour)

	foreign, _, err := crypto.NewTokenCodec("other-secret", "authflow", time.Hour).Issue("user-123")
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	expired, _, err := codec.WithClock(func() time.Time { return past }).Issue("user-123")
	require.NoError(t, err)

	tests := []struct {
		name    string
		cookie  *http.Cookie
		message string
	}{
		{"no cookie", nil, "Not Authorized! Login again"},
		{"empty cookie", &http.Cookie{Name: "token", Value: ""}, "Not Authorized! Login again"},
		{"malformed token", &http.Cookie{Name: "token", Value: "not-a-jwt"}, "Invalid session! Login again"},
		{"wrong secret", &http.Cookie{Name: "token", Value: foreign}, "Invalid session! Login again"},
		{"expired", &http.Cookie{Name: "token", Value: expired}, "Session expired! Login again"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSessionMiddleware(codec, "token")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/auth/is-auth", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			resp := decodeEnvelope(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.message, resp.Message)
			assert.Equal(t, "auth_error", resp.Code)
		})
	}
}

func TestUserIDFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := UserIDFromContext(req.Context())
	assert.False(t, ok)

	_, ok = UserIDFromContext(ContextWithUserID(req.Context(), ""))
	assert.False(t, ok)
}
