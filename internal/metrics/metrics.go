// Package metrics exposes Prometheus counters for the auth flows.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OTP purposes used as label values.
const (
	PurposeVerify = "verify"
	PurposeReset  = "reset"
)

// Recorder is what the service and middleware layers report to.
type Recorder interface {
	RecordAuth(operation, outcome string)
	RecordOTPIssued(purpose string)
	RecordOTPConsumed(purpose string)
	RecordOTPRejected(purpose, reason string)
	RecordHTTPStatus(statusCode int)
}

// Collector is the Prometheus Recorder.
type Collector struct {
	authAttempts *prometheus.CounterVec
	otpIssued    *prometheus.CounterVec
	otpConsumed  *prometheus.CounterVec
	otpRejected  *prometheus.CounterVec
	httpStatus   *prometheus.CounterVec
}

// NewCollector registers the collectors on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authflow_auth_attempts_total",
			Help: "Register and login attempts by outcome.",
		}, []string{"operation", "outcome"}),
		otpIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authflow_otp_issued_total",
			Help: "One-time passcodes issued.",
		}, []string{"purpose"}),
		otpConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authflow_otp_consumed_total",
			Help: "One-time passcodes accepted and cleared.",
		}, []string{"purpose"}),
		otpRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authflow_otp_rejected_total",
			Help: "One-time passcode submissions rejected.",
		}, []string{"purpose", "reason"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authflow_http_status_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.authAttempts,
		c.otpIssued,
		c.otpConsumed,
		c.otpRejected,
		c.httpStatus,
	)

	return c
}

func (c *Collector) RecordAuth(operation, outcome string) {
	c.authAttempts.WithLabelValues(operation, outcome).Inc()
}

func (c *Collector) RecordOTPIssued(purpose string) {
	c.otpIssued.WithLabelValues(purpose).Inc()
}

func (c *Collector) RecordOTPConsumed(purpose string) {
	c.otpConsumed.WithLabelValues(purpose).Inc()
}

func (c *Collector) RecordOTPRejected(purpose, reason string) {
	c.otpRejected.WithLabelValues(purpose, reason).Inc()
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler returns the scrape endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordAuth(string, string)        {}
func (Nop) RecordOTPIssued(string)           {}
func (Nop) RecordOTPConsumed(string)         {}
func (Nop) RecordOTPRejected(string, string) {}
func (Nop) RecordHTTPStatus(int)             {}
