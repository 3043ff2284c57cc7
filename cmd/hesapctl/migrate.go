package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hesap/internal/infrastructure/storage/postgres"
)

func newMigrateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the embedded schema migrations",
	}

	withMigrator := func(fn func(cmd *cobra.Command, m *postgres.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			if err := e.load(); err != nil {
				return err
			}
			if e.cfg.DB.URL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			m, err := postgres.NewMigrator(e.cfg.DB.URL)
			if err != nil {
				return err
			}
			defer func() { _ = m.Close() }()
			return fn(cmd, m)
		}
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: withMigrator(func(cmd *cobra.Command, m *postgres.Migrator) error {
			return m.Up(commandContext(cmd, e))
		}),
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Example: `  # Roll back the last migration
  hesapctl migrate down --steps 1`,
		RunE: withMigrator(func(cmd *cobra.Command, m *postgres.Migrator) error {
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive")
			}
			return m.Down(commandContext(cmd, e), steps)
		}),
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: withMigrator(func(cmd *cobra.Command, m *postgres.Migrator) error {
			v, dirty, err := m.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", v, dirty)
			return nil
		}),
	}

	cmd.AddCommand(up, down, versionCmd)
	return cmd
}
