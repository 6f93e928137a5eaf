package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authflow/authflow-go/internal/config"
	"github.com/authflow/authflow-go/internal/mailer"
	"github.com/authflow/authflow-go/internal/repository"
)

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["serve"], "serve subcommand missing")
	assert.True(t, names["migrate"], "migrate subcommand missing")

	migrate, _, err := cmd.Find([]string{"migrate"})
	require.NoError(t, err)
	assert.NotNil(t, migrate.Flags().Lookup("rollback"))

	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)
	assert.NotNil(t, serve.Flags().Lookup("auto-migrate"))
}

func TestRootCmd_Help(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "serve")
	assert.Contains(t, out.String(), "migrate")
}

func TestOpenStore_Memory(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	users, closeFn, err := openStore(context.Background(), config.Config{StoreDriver: "memory"}, log)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &repository.MemoryUserRepository{}, users)
}

func TestOpenStore_FallbackOutsideProduction(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		Env:         "development",
		StoreDriver: "mysql",
		DatabaseDSN: "root:password@tcp(127.0.0.1:1)/authflow?parseTime=true&timeout=1s",
	}

	users, closeFn, err := openStore(context.Background(), cfg, log)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &repository.MemoryUserRepository{}, users)

	cfg.Env = "production"
	_, _, err = openStore(context.Background(), cfg, log)
	require.Error(t, err)
}

func TestNewNotifier(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	assert.IsType(t, &mailer.LogMailer{}, newNotifier(config.Config{}, log))
	assert.IsType(t, &mailer.SMTPMailer{}, newNotifier(config.Config{SMTPHost: "smtp.example.com", SMTPPort: 587}, log))
}
