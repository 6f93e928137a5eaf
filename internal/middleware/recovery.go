package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
)

var errPanic = errors.New("panic while serving request")

// NewRecoveryMiddleware turns a handler panic into a 500 failure envelope.
func NewRecoveryMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic recovered",
						slog.Any("panic", rec),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("stack", string(debug.Stack())),
					)
					writeError(w, errPanic)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
