package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"label-intake-api/internal/auth"
	"label-intake-api/internal/config"
)

func newTokenCommand() *cobra.Command {
	var (
		userID   int64
		roles    string
		expiry   time.Duration
		secret   string
		issuer   string
		audience string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a JWT for the intake API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if secret != "" {
				cfg.JWTSecret = secret
			}
			if issuer != "" {
				cfg.JWTIssuer = issuer
			}
			if audience != "" {
				cfg.JWTAudience = audience
			}
			if expiry > 0 {
				cfg.JWTExpiry = expiry
			}

			var roleList []string
			for _, role := range strings.Split(roles, ",") {
				if role = strings.TrimSpace(role); role != "" {
					roleList = append(roleList, role)
				}
			}

			manager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiry)
			if err := manager.ValidateConfig(); err != nil {
				return err
			}
			token, err := manager.GenerateToken(userID, roleList)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "user %d, roles %s, expires in %s\n", userID, strings.Join(roleList, ","), cfg.JWTExpiry)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 1, "User ID")
	cmd.Flags().StringVar(&roles, "roles", auth.RoleOperator, "Comma-separated list of roles")
	cmd.Flags().DurationVar(&expiry, "expiry", 0, "Token lifetime (defaults to JWT_EXPIRY)")
	cmd.Flags().StringVar(&secret, "secret", "", "JWT secret (overrides JWT_SECRET)")
	cmd.Flags().StringVar(&issuer, "issuer", "", "JWT issuer (overrides JWT_ISS)")
	cmd.Flags().StringVar(&audience, "audience", "", "JWT audience (overrides JWT_AUD)")
	return cmd
}
