package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hesap/internal/domain/auth"
)

func jwtService(e *env) *auth.JWTService {
	cfg := auth.DefaultJWTConfig(e.cfg.JWT.Secret)
	cfg.Issuer = e.cfg.JWT.Issuer
	cfg.AccessTokenTTL = e.cfg.JWT.TTL
	return auth.NewJWTService(cfg)
}

func newTokenCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue access tokens",
	}

	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a signed access token for a branch",
		Long: `Issue signs a token with JWT_SECRET without touching the database.
Use it for service accounts and local testing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			branchID, err := branchFlag(cmd)
			if err != nil {
				return err
			}
			userID, _ := cmd.Flags().GetString("user")
			email, _ := cmd.Flags().GetString("email")
			roles, _ := cmd.Flags().GetStringSlice("roles")
			if userID == "" {
				return fmt.Errorf("--user is required")
			}

			if err := e.load(); err != nil {
				return err
			}
			if e.cfg.JWT.Secret == "" {
				return fmt.Errorf("JWT_SECRET is required")
			}

			token, err := jwtService(e).IssueToken(userID, branchID, email, roles)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), token)
		},
	}
	issue.Flags().String("branch", "", "branch id")
	issue.Flags().String("user", "", "subject user id")
	issue.Flags().String("email", "", "email claim")
	issue.Flags().StringSlice("roles", nil, "comma-separated roles")

	cmd.AddCommand(issue)
	return cmd
}
