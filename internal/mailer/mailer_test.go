package mailer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

func newTestMailer(d dialer) *SMTPMailer {
	return &SMTPMailer{
		from:    "noreply@authflow.test",
		dialer:  d,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

func TestSMTPMailer_Send(t *testing.T) {
	d := &fakeDialer{}
	m := newTestMailer(d)

	err := m.Send(context.Background(), Email{To: "ann@x.com", Subject: "hi", Body: "hello"})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	msg := d.sent[0]
	assert.Equal(t, []string{"ann@x.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"noreply@authflow.test"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"hi"}, msg.GetHeader("Subject"))
}

func TestSMTPMailer_SendErrors(t *testing.T) {
	m := newTestMailer(&fakeDialer{err: errors.New("connection refused")})

	err := m.Send(context.Background(), Email{To: "ann@x.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	err = m.Send(context.Background(), Email{})
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestSMTPMailer_WaitHonorsContext(t *testing.T) {
	d := &fakeDialer{}
	m := newTestMailer(d)
	m.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	require.NoError(t, m.Send(context.Background(), Email{To: "a@x.io"}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := m.Send(ctx, Email{To: "a@x.io"})
	require.Error(t, err)
	assert.Len(t, d.sent, 1)
}

func TestNewSMTPMailer_Defaults(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 25})
	assert.Equal(t, rate.Inf, m.limiter.Limit())
	assert.Equal(t, 1, m.limiter.Burst())
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(slog.New(slog.NewTextHandler(&buf, nil)), true)

	require.NoError(t, m.Send(context.Background(), VerifyOTPEmail("ann@x.com", "123456", 24*time.Hour)))
	out := buf.String()
	assert.Contains(t, out, "ann@x.com")
	assert.Contains(t, out, "123456")
}

func TestLogMailer_OmitsBodyByDefault(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(slog.New(slog.NewTextHandler(&buf, nil)), false)

	require.NoError(t, m.Send(context.Background(), ResetOTPEmail("ann@x.com", "654321", 15*time.Minute)))
	out := buf.String()
	assert.Contains(t, out, "ann@x.com")
	assert.NotContains(t, out, "654321")
}

func TestTemplates(t *testing.T) {
	tests := []struct {
		name  string
		email Email
		want  []string
	}{
		{"welcome", WelcomeEmail("ann@x.com", "Ann"), []string{"Hello Ann", "ann@x.com"}},
		{"verify", VerifyOTPEmail("ann@x.com", "123456", 24*time.Hour), []string{"123456", "24 hours"}},
		{"reset", ResetOTPEmail("ann@x.com", "654321", 15*time.Minute), []string{"654321", "15 minutes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, "ann@x.com", tt.email.To)
			assert.NotEmpty(t, tt.email.Subject)
			for _, w := range tt.want {
				assert.True(t, strings.Contains(tt.email.Body, w), "body %q missing %q", tt.email.Body, w)
			}
		})
	}
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "1 hour", humanDuration(time.Hour))
	assert.Equal(t, "1 minute", humanDuration(time.Minute))
	assert.Equal(t, "1m30s", humanDuration(90*time.Second))
}
