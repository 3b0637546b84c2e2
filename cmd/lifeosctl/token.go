package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/p-blackswan/lifeos/internal/config"
	"github.com/p-blackswan/lifeos/internal/nav"
	"github.com/p-blackswan/lifeos/internal/server"
)

func addToken(topLevel *cobra.Command) {
	var (
		role string
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a signed access token with the server's JWT settings",
		Long: `Mint an HS256 token for a user. The secret and issuer are read from the
same JWT_SECRET and JWT_ISSUER variables the server uses, so this only
works where the server's configuration is available.`,
		Example: `
export LIFEOSCTL_TOKEN=$(lifeosctl token alice)
lifeosctl token ops --role admin --ttl 1h
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.AuthMode != config.AuthJWT {
				return errors.New("tokens are only used with AUTH_MODE=jwt")
			}
			if ttl <= 0 {
				ttl = cfg.TokenTTL
			}
			token, err := server.IssueToken(cfg.JWTSecret, cfg.JWTIssuer, args[0], nav.ParseRole(role), ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", string(nav.RoleUser), "role claim (user or admin)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, TOKEN_TTL when unset")
	topLevel.AddCommand(cmd)
}
