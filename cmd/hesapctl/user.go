package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hesap/internal/domain/auth"
	"hesap/internal/infrastructure/storage/postgres/repo"
)

func newUserCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage branch users",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user in a branch",
		Example: `  hesapctl user create --branch <id> --email clerk@example.com \
    --password secret123 --roles clerk,approver`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			branchID, err := branchFlag(cmd)
			if err != nil {
				return err
			}
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			fullName, _ := cmd.Flags().GetString("full-name")
			roles, _ := cmd.Flags().GetStringSlice("roles")

			if err := e.open(cmd.Context()); err != nil {
				return err
			}
			ctx := commandContext(cmd, e)

			exists, err := repo.NewBranchRepo(e.txm).Exists(ctx, branchID)
			if err != nil {
				return fmt.Errorf("check branch: %w", err)
			}
			if !exists {
				return fmt.Errorf("branch %s is not registered", branchID)
			}

			svc := auth.NewService(repo.NewUserRepo(e.txm), jwtService(e), auth.DefaultServiceConfig())
			user, err := svc.CreateUser(ctx, auth.CreateUserCommand{
				BranchID: branchID,
				Email:    email,
				Password: password,
				FullName: fullName,
				Roles:    roles,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
	create.Flags().String("branch", "", "branch id")
	create.Flags().String("email", "", "login email")
	create.Flags().String("password", "", "initial password")
	create.Flags().String("full-name", "", "display name")
	create.Flags().StringSlice("roles", nil, "comma-separated roles")

	cmd.AddCommand(create)
	return cmd
}
