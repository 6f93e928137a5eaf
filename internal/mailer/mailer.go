// Package mailer delivers account emails.
package mailer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"
)

var ErrNoRecipient = errors.New("no recipient specified")

// Email is a single plain text message.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Notifier delivers an email. Implementations must be safe for concurrent use.
type Notifier interface {
	Send(ctx context.Context, email Email) error
}

// SMTPConfig holds the relay settings.
type SMTPConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	RatePerSecond float64
	Burst         int
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends through an SMTP relay. Sends wait on a token bucket so a
// burst of OTP requests stays inside the relay's quota.
type SMTPMailer struct {
	from    string
	dialer  dialer
	limiter *rate.Limiter
}

// NewSMTPMailer creates a mailer for the relay in cfg. A non-positive rate
// disables pacing.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &SMTPMailer{
		from:    cfg.From,
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Send delivers email, blocking until the limiter admits it or ctx is done.
func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	if email.To == "" {
		return ErrNoRecipient
	}

	if err := m.limiter.Wait(ctx); err != nil {
		return oops.In("mailer").With("to", email.To).Wrapf(err, "wait for send slot")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/plain", email.Body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return oops.In("mailer").With("to", email.To).With("subject", email.Subject).Wrapf(err, "smtp send")
	}
	return nil
}

// LogMailer writes emails to the log instead of sending them. It is used when
// no SMTP relay is configured. Bodies carry one-time codes, so they are only
// logged when includeBody is set.
type LogMailer struct {
	logger      *slog.Logger
	includeBody bool
}

// NewLogMailer creates a LogMailer; includeBody is meant for local development only.
func NewLogMailer(logger *slog.Logger, includeBody bool) *LogMailer {
	return &LogMailer{logger: logger, includeBody: includeBody}
}

func (m *LogMailer) Send(ctx context.Context, email Email) error {
	if email.To == "" {
		return ErrNoRecipient
	}

	args := []any{"to", email.To, "subject", email.Subject}
	if m.includeBody {
		args = append(args, "body", email.Body)
	}
	m.logger.InfoContext(ctx, "email not sent, smtp disabled", args...)
	return nil
}
