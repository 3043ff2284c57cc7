package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"hesap/internal/core/id"
	"hesap/internal/infrastructure/storage/postgres/repo"
)

func newBranchCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "Register and list branches",
	}

	create := &cobra.Command{
		Use:     "create",
		Short:   "Register a new branch",
		Example: `  hesapctl branch create --code IST --name "Istanbul"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code, _ := cmd.Flags().GetString("code")
			name, _ := cmd.Flags().GetString("name")
			code = strings.TrimSpace(code)
			if code == "" {
				return fmt.Errorf("--code is required")
			}
			if strings.TrimSpace(name) == "" {
				name = code
			}

			ctx := cmd.Context()
			if err := e.open(ctx); err != nil {
				return err
			}
			ctx = commandContext(cmd, e)

			b := &repo.Branch{
				ID:        id.New(),
				Code:      code,
				Name:      name,
				CreatedAt: time.Now().UTC(),
			}
			if err := repo.NewBranchRepo(e.txm).Create(ctx, b); err != nil {
				return fmt.Errorf("create branch: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), b)
		},
	}
	create.Flags().String("code", "", "unique branch code")
	create.Flags().String("name", "", "display name (defaults to the code)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered branches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.open(cmd.Context()); err != nil {
				return err
			}
			branches, err := repo.NewBranchRepo(e.txm).List(commandContext(cmd, e))
			if err != nil {
				return fmt.Errorf("list branches: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCODE\tNAME")
			for _, b := range branches {
				fmt.Fprintf(w, "%s\t%s\t%s\n", b.ID, b.Code, b.Name)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}

// branchFlag parses the required --branch flag.
func branchFlag(cmd *cobra.Command) (id.ID, error) {
	raw, _ := cmd.Flags().GetString("branch")
	if raw == "" {
		return id.Nil(), fmt.Errorf("--branch is required")
	}
	branchID, err := id.Parse(raw)
	if err != nil {
		return id.Nil(), fmt.Errorf("invalid --branch: %w", err)
	}
	return branchID, nil
}
