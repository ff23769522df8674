// Package config loads oracle configuration.
//
// A config file is YAML or CUE (chosen by extension) and is validated against
// the embedded schema.cue in both cases. Missing fields keep the values from
// Default. Environment variables override the file.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource []byte

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Environment variables that override file settings.
const (
	EnvDB        = "ORACLE_DB"
	EnvDSN       = "ORACLE_DSN"
	EnvCaller    = "ORACLE_CALLER"
	EnvJWTSecret = "ORACLE_JWT_SECRET"
	EnvRedisAddr = "ORACLE_REDIS_ADDR"
)

// Config is the full oracle configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Caller    string          `yaml:"caller"`
	Server    ServerConfig    `yaml:"server"`
	Events    EventsConfig    `yaml:"events"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

// StoreConfig selects and locates the persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr      string          `yaml:"addr"`
	JWTSecret string          `yaml:"jwt_secret"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig is a per-client token bucket.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// EventsConfig selects event sinks. Log and Redis may both be enabled.
type EventsConfig struct {
	Log   bool        `yaml:"log"`
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig enables the Redis sink when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	StdoutTraces bool   `yaml:"stdout_traces"`
	ServiceName  string `yaml:"service_name"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   "oracle.db",
		},
		Server: ServerConfig{
			Addr: ":8080",
			RateLimit: RateLimitConfig{
				RPS:   10,
				Burst: 20,
			},
		},
		Events: EventsConfig{
			Redis: RedisConfig{Channel: "oracle.events"},
		},
		Telemetry: TelemetryConfig{ServiceName: "prophecy-oracle"},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path, validates it against the schema and applies environment
// overrides. An empty path yields Default with overrides applied.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		cfg, err = Parse(path, data)
		if err != nil {
			return Config{}, err
		}
	}

	ApplyEnv(&cfg, os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes data as YAML or CUE depending on the extension of name and
// layers it over Default. It does not apply environment overrides.
func Parse(name string, data []byte) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	var v cue.Value
	switch strings.ToLower(filepath.Ext(name)) {
	case ".cue":
		v = ctx.CompileBytes(data, cue.Filename(name))
	case ".yaml", ".yml", "":
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, &Error{Field: "yaml", Message: err.Error(), File: name}
		}
		if raw == nil {
			raw = map[string]any{}
		}
		v = ctx.Encode(raw)
	default:
		return Config{}, &Error{Field: "file", Message: fmt.Sprintf("unsupported config extension %q", filepath.Ext(name)), File: name}
	}
	if err := v.Err(); err != nil {
		return Config{}, formatCUEError(name, err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(name, err)
	}

	// JSON is valid YAML, so the yaml tags drive decoding for both formats
	// and fields absent from the file keep their defaults.
	js, err := unified.MarshalJSON()
	if err != nil {
		return Config{}, formatCUEError(name, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(js, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from the environment. Unset or empty variables
// leave cfg unchanged. lookup is os.LookupEnv in production.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDB); ok && v != "" {
		if v == DriverMemory {
			cfg.Store.Driver = DriverMemory
		} else {
			cfg.Store.Driver = DriverSQLite
			cfg.Store.Path = v
		}
	}
	if v, ok := lookup(EnvDSN); ok && v != "" {
		cfg.Store.Driver = DriverPostgres
		cfg.Store.DSN = v
	}
	if v, ok := lookup(EnvCaller); ok && v != "" {
		cfg.Caller = v
	}
	if v, ok := lookup(EnvJWTSecret); ok && v != "" {
		cfg.Server.JWTSecret = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		cfg.Events.Redis.Addr = v
	}
}

// Validate checks constraints that span fields.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			return &Error{Field: "store.path", Message: "sqlite driver requires a path"}
		}
	case DriverPostgres:
		if c.Store.DSN == "" {
			return &Error{Field: "store.dsn", Message: "postgres driver requires a dsn"}
		}
	case DriverMemory:
	default:
		return &Error{Field: "store.driver", Message: fmt.Sprintf("unknown driver %q", c.Store.Driver)}
	}
	return nil
}

// Error is a configuration problem, with a source position when known.
type Error struct {
	Field   string
	Message string
	File    string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(file string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Field: "cue", Message: err.Error(), File: file}
	}

	first := errs[0]
	field := "cue"
	if path := first.Path(); len(path) > 0 {
		field = strings.Join(path, ".")
	}
	e := &Error{Field: field, Message: first.Error(), File: file}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}
