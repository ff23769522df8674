package cli

import (
	"github.com/spf13/cobra"

	"github.com/rainwaters11/GoddessCryptoOracle/internal/api"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the oracle over HTTP",
		Long: `Serve the initialized oracle over HTTP until interrupted.

Reads are public. Writes need an HS256 bearer token whose subject is the
caller; without server.jwt_secret (or ORACLE_JWT_SECRET) every write is
rejected. See "oracle token" for minting tokens.

Examples:
  ORACLE_JWT_SECRET=s3cret oracle serve --db ./oracle.db --addr :8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx, opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close(ctx)

	svc, err := e.openService(ctx)
	if err != nil {
		return err
	}

	sc := e.cfg.Server
	addr := sc.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	validator := api.NewTokenValidator(sc.JWTSecret)
	if validator == nil {
		e.logger.Warn("no jwt secret configured, writes are disabled")
	}

	serverOpts := []api.Option{api.WithLogger(e.logger)}
	if sc.RateLimit.RPS > 0 {
		serverOpts = append(serverOpts, api.WithRateLimiter(api.NewRateLimiter(sc.RateLimit.RPS, sc.RateLimit.Burst)))
	}

	if err := api.NewServer(svc, validator, serverOpts...).ListenAndServe(ctx, addr); err != nil {
		return e.out.Fail("server failed", err)
	}
	return nil
}
