package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/authflow/authflow-go/internal/metrics"
	"github.com/authflow/authflow-go/internal/middleware"
	"github.com/authflow/authflow-go/internal/service"
)

// RouterConfig wires the HTTP surface. Gatherer may be nil, in which case
// /metrics is not mounted.
type RouterConfig struct {
	Auth         *service.AuthService
	Tokens       middleware.TokenParser
	Cookie       SessionCookie
	SessionTTL   time.Duration
	ClientOrigin string
	Logger       *slog.Logger
	Metrics      metrics.Recorder
	Gatherer     prometheus.Gatherer
}

func NewRouter(cfg RouterConfig) http.Handler {
	authHandler := NewAuthHandler(cfg.Auth, cfg.Cookie, cfg.SessionTTL)
	userHandler := NewUserHandler(cfg.Auth)
	requireSession := middleware.NewSessionMiddleware(cfg.Tokens, cfg.Cookie.Name)

	r := chi.NewRouter()
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger, cfg.Metrics))
	r.Use(middleware.NewRecoveryMiddleware(cfg.Logger))
	r.Use(middleware.NewCORSMiddleware(cfg.ClientOrigin))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(cfg.Gatherer))
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.Post("/send-reset-otp", authHandler.HandleSendResetOTP)
		r.Post("/reset-password", authHandler.HandleResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Get("/is-auth", authHandler.HandleIsAuth)
			r.Post("/send-verify-otp", authHandler.HandleSendVerifyOTP)
			r.Post("/verify-account", authHandler.HandleVerifyAccount)
		})
	})

	r.Route("/user", func(r chi.Router) {
		r.Use(requireSession)
		r.Get("/data", userHandler.HandleGetUserData)
	})

	return r
}
