package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/rainwaters11/GoddessCryptoOracle/internal/api"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/config"
)

// TokenOptions holds flags for the token command.
type TokenOptions struct {
	*RootOptions
	TTL time.Duration
}

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Mint a bearer token for the HTTP API",
		Long: `Sign an HS256 token whose subject is the caller identity, using
server.jwt_secret (or ORACLE_JWT_SECRET). A --ttl of 0 mints a token that
never expires.

Examples:
  ORACLE_JWT_SECRET=s3cret oracle token oracle.near --ttl 1h`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(opts.RootOptions, cmd)

			cfg, err := loadConfig(opts.RootOptions)
			if err != nil {
				return out.Fail("failed to load config", err)
			}
			if cfg.Server.JWTSecret == "" {
				return out.Fail("no secret", &config.Error{
					Field:   "server.jwt_secret",
					Message: "required to sign tokens (or set " + config.EnvJWTSecret + ")",
				})
			}

			tok, err := api.SignToken(cfg.Server.JWTSecret, args[0], opts.TTL)
			if err != nil {
				return out.Fail("failed to sign token", err)
			}
			return out.Success(tokenView{Token: tok, Subject: args[0]})
		},
	}

	cmd.Flags().DurationVar(&opts.TTL, "ttl", 24*time.Hour, "token lifetime (0 for no expiry)")

	return cmd
}

type tokenView struct {
	Token   string `json:"token"`
	Subject string `json:"subject"`
}

func (v tokenView) String() string {
	return v.Token
}
