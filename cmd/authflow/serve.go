package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/authflow/authflow-go/internal/apperr"
	"github.com/authflow/authflow-go/internal/config"
	"github.com/authflow/authflow-go/internal/crypto"
	"github.com/authflow/authflow-go/internal/handler"
	"github.com/authflow/authflow-go/internal/logger"
	"github.com/authflow/authflow-go/internal/mailer"
	"github.com/authflow/authflow-go/internal/metrics"
	"github.com/authflow/authflow-go/internal/repository"
	"github.com/authflow/authflow-go/internal/service"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, autoMigrate)
		},
	}

	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "apply MySQL migrations before serving")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config, autoMigrate bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.SetupDefault(os.Stdout, cfg.IsProduction())

	if autoMigrate && cfg.StoreDriver == "mysql" {
		if err := repository.RunMigrations(cfg.DatabaseDSN); err != nil {
			return oops.In("serve").With("operation", "migrate").Wrap(err)
		}
	}

	users, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	tokens := crypto.NewTokenCodec(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL)
	authService := service.NewAuthService(service.Deps{
		Users:        users,
		Hasher:       crypto.NewArgon2Hasher(crypto.DefaultHashParams()),
		Tokens:       tokens,
		OTP:          crypto.NewNumericOTP(),
		Notifier:     newNotifier(cfg, log),
		Metrics:      collector,
		Logger:       log,
		VerifyOTPTTL: cfg.VerifyOTPTTL,
		ResetOTPTTL:  cfg.ResetOTPTTL,
	})

	router := handler.NewRouter(handler.RouterConfig{
		Auth:         authService,
		Tokens:       tokens,
		Cookie:       handler.SessionCookie{Name: cfg.CookieName, Production: cfg.IsProduction()},
		SessionTTL:   cfg.SessionTTL,
		ClientOrigin: cfg.ClientOrigin,
		Logger:       log,
		Metrics:      collector,
		Gatherer:     reg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			return oops.In("serve").Wrapf(err, "listen")
		}
		return nil
	case <-quit:
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.In("serve").Wrapf(err, "shutdown")
	}

	log.Info("server stopped")
	return nil
}

// openStore connects the configured credential store. Outside production an
// unreachable database falls back to the in-memory store.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (repository.UserRepository, func(), error) {
	noop := func() {}

	var (
		users   repository.UserRepository
		closeFn func()
		err     error
	)
	switch cfg.StoreDriver {
	case "memory":
		return repository.NewMemoryUserRepository(), noop, nil
	case "mongo":
		users, closeFn, err = openMongo(ctx, cfg)
	default:
		users, closeFn, err = openMySQL(ctx, cfg)
	}
	if err == nil {
		return users, closeFn, nil
	}

	if cfg.IsProduction() {
		return nil, noop, err
	}
	apperr.Log(log, "credential store unavailable, using in-memory store", err)
	return repository.NewMemoryUserRepository(), noop, nil
}

func openMySQL(ctx context.Context, cfg config.Config) (repository.UserRepository, func(), error) {
	db, err := repository.NewDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, oops.In("serve").With("store", "mysql").Wrapf(err, "connect")
	}
	return repository.NewMySQLUserRepository(db), func() { db.Close() }, nil
}

func openMongo(ctx context.Context, cfg config.Config) (repository.UserRepository, func(), error) {
	client, err := repository.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, oops.In("serve").With("store", "mongo").Wrap(err)
	}

	users, err := repository.NewMongoUserRepository(ctx, client.Database(cfg.MongoDatabase))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, oops.In("serve").With("store", "mongo").Wrap(err)
	}
	return users, func() { _ = client.Disconnect(context.Background()) }, nil
}

func newNotifier(cfg config.Config, log *slog.Logger) mailer.Notifier {
	if !cfg.SMTPEnabled() {
		log.Warn("SMTP_HOST not set, emails will be logged instead of sent")
		return mailer.NewLogMailer(log, !cfg.IsProduction())
	}
	return mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:          cfg.SMTPHost,
		Port:          cfg.SMTPPort,
		Username:      cfg.SMTPUsername,
		Password:      cfg.SMTPPassword,
		From:          cfg.SMTPFrom,
		RatePerSecond: cfg.MailRatePerSecond,
		Burst:         cfg.MailBurst,
	})
}
