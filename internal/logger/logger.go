// Package logger configures the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
)

// Setup returns a JSON logger in production and a text logger otherwise.
func Setup(w io.Writer, production bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if production {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	opts.Level = slog.LevelDebug
	return slog.New(slog.NewTextHandler(w, opts))
}

// SetupDefault installs Setup's logger as the slog default.
func SetupDefault(w io.Writer, production bool) *slog.Logger {
	l := Setup(w, production)
	slog.SetDefault(l)
	return l
}
