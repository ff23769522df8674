package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rainwaters11/GoddessCryptoOracle/internal/config"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/events"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/oracle"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/store"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/store/memstore"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/store/pgstore"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/telemetry"
)

// env is the per-command runtime: resolved config, logger, output, backend
// and event sinks. Close releases everything it opened.
type env struct {
	cfg     config.Config
	logger  *slog.Logger
	out     *OutputFormatter
	backend store.Backend
	sink    events.Sink

	closers []func(context.Context) error
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// loadConfig resolves the config file, environment and --db, in increasing
// precedence.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return config.Config{}, err
	}
	if opts.DB != "" {
		config.ApplyEnv(&cfg, func(key string) (string, bool) {
			if key == config.EnvDB {
				return opts.DB, true
			}
			return "", false
		})
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

// newLogger builds the slog logger described by lc. Verbose forces debug.
func newLogger(lc config.LogConfig, verbose bool, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	hopts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// openBackend connects the persistence backend named by sc.Driver.
func openBackend(ctx context.Context, sc config.StoreConfig) (store.Backend, error) {
	switch sc.Driver {
	case config.DriverSQLite:
		return store.Open(sc.Path)
	case config.DriverMemory:
		return memstore.New(), nil
	case config.DriverPostgres:
		return pgstore.Open(ctx, sc.DSN)
	default:
		return nil, &config.Error{Field: "store.driver", Message: fmt.Sprintf("unknown driver %q", sc.Driver)}
	}
}

// newSink assembles the configured event sinks. With none configured,
// events are discarded.
func newSink(ec config.EventsConfig, logger *slog.Logger) (events.Sink, func(context.Context) error) {
	var sinks events.Multi
	closeFn := func(context.Context) error { return nil }

	if ec.Log {
		sinks = append(sinks, events.NewLogSink(logger))
	}
	if ec.Redis.Addr != "" {
		rs := events.NewRedisSink(ec.Redis.Addr, ec.Redis.Password, ec.Redis.DB, ec.Redis.Channel)
		sinks = append(sinks, rs)
		closeFn = func(context.Context) error { return rs.Close() }
	}

	switch len(sinks) {
	case 0:
		return events.Discard{}, closeFn
	case 1:
		return sinks[0], closeFn
	default:
		return sinks, closeFn
	}
}

// openEnv loads config and opens the backend, sinks and telemetry. Errors
// are reported through the formatter.
func openEnv(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*env, error) {
	out := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, out.Fail("failed to load config", err)
	}

	e := &env{
		cfg:    cfg,
		logger: newLogger(cfg.Log, opts.Verbose, cmd.ErrOrStderr()),
		out:    out,
	}

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		UseStdout:   cfg.Telemetry.StdoutTraces,
		Writer:      cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, out.Fail("failed to initialize telemetry", err)
	}
	e.closers = append(e.closers, shutdown)

	out.VerboseLog("opening %s backend", cfg.Store.Driver)
	backend, err := openBackend(ctx, cfg.Store)
	if err != nil {
		_ = e.Close(ctx)
		return nil, out.Fail("failed to open backend", err)
	}
	e.backend = backend
	e.closers = append(e.closers, func(context.Context) error { return backend.Close() })

	sink, closeSink := newSink(cfg.Events, e.logger)
	e.sink = sink
	e.closers = append(e.closers, closeSink)

	return e, nil
}

// serviceOptions wires the env's clock-independent collaborators into a
// Service.
func (e *env) serviceOptions() []oracle.Option {
	return []oracle.Option{
		oracle.WithLogger(e.logger),
		oracle.WithSink(e.sink),
	}
}

// openService resumes the oracle recorded in the backend.
func (e *env) openService(ctx context.Context) (*oracle.Service, error) {
	svc, err := oracle.Open(ctx, e.backend, e.serviceOptions()...)
	if err != nil {
		return nil, e.out.Fail("failed to open oracle", err)
	}
	return svc, nil
}

// Close runs closers in reverse order and joins their errors.
func (e *env) Close(ctx context.Context) error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}
