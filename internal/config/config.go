package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

const devJWTSecret = "dev-secret-change-in-production"

var (
	ErrDefaultSecretInProduction = errors.New("JWT_SECRET must be set in production environment")
	ErrUnknownStoreDriver        = errors.New("STORE_DRIVER must be one of mysql, mongo, memory")
	ErrSMTPRequiredInProduction  = errors.New("SMTP_HOST must be set in production environment")
)

// Config holds the service settings read from the environment.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`
	Env  string `env:"ENV"  envDefault:"development"`

	StoreDriver   string `env:"STORE_DRIVER"   envDefault:"mysql"`
	DatabaseDSN   string `env:"DATABASE_DSN"   envDefault:"root:password@tcp(127.0.0.1:3306)/authflow?parseTime=true"`
	MongoURI      string `env:"MONGO_URI"      envDefault:"mongodb://127.0.0.1:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"authflow"`

	JWTSecret    string        `env:"JWT_SECRET"     envDefault:"dev-secret-change-in-production"`
	JWTIssuer    string        `env:"JWT_ISSUER"     envDefault:"authflow"`
	SessionTTL   time.Duration `env:"SESSION_TTL"    envDefault:"168h"`
	VerifyOTPTTL time.Duration `env:"VERIFY_OTP_TTL" envDefault:"24h"`
	ResetOTPTTL  time.Duration `env:"RESET_OTP_TTL"  envDefault:"15m"`
	CookieName   string        `env:"COOKIE_NAME"    envDefault:"token"`

	SMTPHost          string  `env:"SMTP_HOST"`
	SMTPPort          int     `env:"SMTP_PORT"            envDefault:"587"`
	SMTPUsername      string  `env:"SMTP_USERNAME"`
	SMTPPassword      string  `env:"SMTP_PASSWORD"`
	SMTPFrom          string  `env:"SMTP_FROM"            envDefault:"noreply@authflow.local"`
	MailRatePerSecond float64 `env:"MAIL_RATE_PER_SECOND" envDefault:"5"`
	MailBurst         int     `env:"MAIL_BURST"           envDefault:"10"`

	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
}

// Load reads the environment. Callers load any .env file first.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings that are unsafe or unusable.
func (c Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == devJWTSecret {
		return ErrDefaultSecretInProduction
	}
	if c.IsProduction() && !c.SMTPEnabled() {
		return ErrSMTPRequiredInProduction
	}
	switch c.StoreDriver {
	case "mysql", "mongo", "memory":
	default:
		return ErrUnknownStoreDriver
	}
	return nil
}

// IsProduction reports whether ENV is production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// SMTPEnabled reports whether a relay is configured.
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}
