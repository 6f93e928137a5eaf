package handler

import (
	"net/http"
	"time"
)

// SessionCookie writes and clears the session cookie. Production cookies are
// Secure with SameSite=None for the cross-site client; otherwise SameSite=Strict.
type SessionCookie struct {
	Name       string
	Production bool
}

// Set stores token in the session cookie until expiresAt.
func (c SessionCookie) Set(w http.ResponseWriter, token string, expiresAt time.Time, ttl time.Duration) {
	cookie := c.base()
	cookie.Value = token
	cookie.Expires = expiresAt
	cookie.MaxAge = int(ttl / time.Second)
	http.SetCookie(w, cookie)
}

// Clear expires the cookie with the attributes it was issued with.
func (c SessionCookie) Clear(w http.ResponseWriter) {
	cookie := c.base()
	cookie.Expires = time.Unix(0, 0)
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
}

func (c SessionCookie) base() *http.Cookie {
	cookie := &http.Cookie{
		Name:     c.Name,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	if c.Production {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	}
	return cookie
}
