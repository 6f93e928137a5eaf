package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/authflow/authflow-go/internal/repository"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	var rollback bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply MySQL schema migrations",
		Long:  `Apply all pending schema migrations to the MySQL database named by DATABASE_DSN.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if rollback {
				cmd.Println("Rolling back last migration...")
				if err := repository.RollbackMigration(cfg.DatabaseDSN); err != nil {
					return oops.In("migrate").With("operation", "rollback").Wrap(err)
				}
				cmd.Println("Rollback completed successfully")
				return nil
			}

			cmd.Println("Running migrations...")
			if err := repository.RunMigrations(cfg.DatabaseDSN); err != nil {
				return oops.In("migrate").With("operation", "up").Wrap(err)
			}
			cmd.Println("Migrations completed successfully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&rollback, "rollback", false, "revert the most recent migration instead of applying pending ones")
	return cmd
}
