package main

import (
	"fmt"
	"time"

	"github.com/Chatblanccc/PersonnelManagement/internal/auth"
	"github.com/Chatblanccc/PersonnelManagement/internal/config"
	"github.com/Chatblanccc/PersonnelManagement/internal/directory"
	"github.com/Chatblanccc/PersonnelManagement/internal/errs"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "API token commands",
	}
	cmd.AddCommand(newTokenIssueCmd())
	return cmd
}

func newTokenIssueCmd() *cobra.Command {
	var (
		configPath string
		username   string
		ttl        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a bearer token for a directory user",
		Long: `Signs a token for a synced directory user with the server secret, carrying
the user's name, superuser flag and permissions. Intended for local
development and scripted access; production tokens come from the identity
provider.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokenIssue(cmd, configPath, username, ttl)
		},
	}
	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&username, "user", "u", "", "username or full name of a directory user")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime (0 for no expiry)")
	cmd.MarkFlagRequired("user")
	return cmd
}

func runTokenIssue(cmd *cobra.Command, configPath, username string, ttl time.Duration) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Server.JWTSecret == "" {
		return fmt.Errorf("server.jwt_secret (or %s) is required to issue tokens", config.EnvJWTSecret)
	}
	u, err := directory.Resolve(gormDB, username)
	if err != nil {
		return err
	}
	if u == nil {
		return errs.NotFound("user %q not found", username)
	}
	if !u.IsActive {
		return errs.Forbidden("user %q is inactive", username)
	}

	token, err := auth.Issue([]byte(cfg.Server.JWTSecret), auth.Claims{
		Name:        u.FullName,
		Username:    u.Username,
		Superuser:   u.IsSuperuser,
		Permissions: u.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: u.ID,
		},
	}, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
