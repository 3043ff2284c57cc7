package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hesap/internal/core/id"
	"hesap/internal/infrastructure/storage/postgres"
)

func newAuditCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit trail",
	}

	history := &cobra.Command{
		Use:     "history",
		Short:   "Print the audit history of one entity, newest first",
		Example: `  hesapctl audit history --branch <id> --entity-type invoice --entity-id <id>`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			branchID, err := branchFlag(cmd)
			if err != nil {
				return err
			}
			entityType, _ := cmd.Flags().GetString("entity-type")
			rawID, _ := cmd.Flags().GetString("entity-id")
			limit, _ := cmd.Flags().GetInt("limit")
			if entityType == "" {
				return fmt.Errorf("--entity-type is required")
			}
			entityID, err := id.Parse(rawID)
			if err != nil {
				return fmt.Errorf("invalid --entity-id: %w", err)
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}

			if err := e.open(cmd.Context()); err != nil {
				return err
			}
			auditLog, err := postgres.NewAuditLog(e.txm)
			if err != nil {
				return err
			}
			entries, err := auditLog.History(commandContext(cmd, e), branchID, entityType, entityID, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}
	history.Flags().String("branch", "", "branch id")
	history.Flags().String("entity-type", "", "entity type, e.g. invoice or payment")
	history.Flags().String("entity-id", "", "entity id")
	history.Flags().Int("limit", 50, "maximum number of entries")

	cmd.AddCommand(history)
	return cmd
}
