package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/luminary/luminary-backend/internal/auth"
	"github.com/luminary/luminary-backend/internal/auth/jwt"
	"github.com/spf13/cobra"
)

func newTokenCmd(c *cli) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <email>",
		Short: "Mint a bearer token for the allowlist gate",
		Long: `Signs an HS256 token with LUMINARY_AUTH_SECRET carrying the given email.
The email must be listed in LUMINARY_AUTH_ALLOWED_EMAILS for the token to
be accepted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Auth.Secret == "" {
				return errors.New("LUMINARY_AUTH_SECRET is not set")
			}

			gate := auth.NewAllowlist(nil, c.cfg.Auth.AllowedEmails, c.log)
			if !gate.Allowed(args[0]) {
				c.log.Warn().Str("email", args[0]).Msg("email is not on the allowlist; the token will be rejected")
			}

			token, err := jwt.NewManager(&c.cfg.Auth).Issue(args[0], ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
