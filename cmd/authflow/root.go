package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/authflow/authflow-go/internal/config"
)

var envFile string

// NewRootCmd creates the root command for the authflow CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authflow",
		Short: "Credential and session service",
		Long: `authflow registers users, issues cookie sessions and runs the
email verification and password reset one-time passcode flows.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before reading the environment")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

func loadConfig() (config.Config, error) {
	if err := godotenv.Load(envFile); err != nil {
		slog.Warn("no .env file found, using environment variables", "path", envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, oops.In("config").Wrapf(err, "load configuration")
	}
	return cfg, nil
}
