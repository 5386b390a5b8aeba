// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

type Config struct {
	DatabaseURL  string
	DatabaseType string
	CatalogPath  string
	RedisAddr    string
	Instance     string
	Workers      int
	SenderSalt   string
	LogLevel     string
	LogFormat    string
}

// BindFlags registers the configuration flags on fs. Values left empty fall
// back to the environment in Resolve.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	// Storage config (can be CLI args or env)
	fs.StringVarP(&cfg.DatabaseURL, "database-url", "d", "", "Database URL (env DATABASE_URL)")
	fs.StringVarP(&cfg.DatabaseType, "database-type", "t", "", "Database type: sqlite or postgres (env DATABASE_TYPE)")
	fs.StringVarP(&cfg.CatalogPath, "catalog", "c", "", "Form catalog YAML file (env FIELDCODE_CATALOG)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", "", "Redis address for cross-process locking (env REDIS_ADDR)")
	fs.StringVar(&cfg.Instance, "instance", "", "Instance name used to namespace Redis keys (env FIELDCODE_INSTANCE)")
	fs.IntVarP(&cfg.Workers, "workers", "w", 0, "Concurrent message workers (env WORKERS)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SenderSalt, "sender-salt", "", "Sender hash salt (prefer env SENDER_SALT)")

	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level: debug, info, warn, error (env LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", "", "Log format: json or text (env LOG_FORMAT)")
}

// Resolve fills unset values from the environment and defaults, then
// validates them.
func Resolve(cfg Config) (Config, error) {
	cfg.DatabaseURL = envOr(cfg.DatabaseURL, "DATABASE_URL", "")
	cfg.DatabaseType = envOr(cfg.DatabaseType, "DATABASE_TYPE", "sqlite")
	cfg.CatalogPath = envOr(cfg.CatalogPath, "FIELDCODE_CATALOG", "")
	cfg.RedisAddr = envOr(cfg.RedisAddr, "REDIS_ADDR", "")
	cfg.Instance = envOr(cfg.Instance, "FIELDCODE_INSTANCE", "default")
	cfg.SenderSalt = envOr(cfg.SenderSalt, "SENDER_SALT", "")
	cfg.LogLevel = envOr(cfg.LogLevel, "LOG_LEVEL", "info")
	cfg.LogFormat = envOr(cfg.LogFormat, "LOG_FORMAT", "json")

	if cfg.Workers == 0 {
		if s := os.Getenv("WORKERS"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return Config{}, errors.New("invalid WORKERS env variable")
			}
			cfg.Workers = n
		} else {
			cfg.Workers = 4 // default
		}
	}
	if cfg.Workers < 1 {
		return Config{}, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}

	switch cfg.DatabaseType {
	case "sqlite", "postgres":
	default:
		return Config{}, fmt.Errorf("invalid database type: %s (must be 'sqlite' or 'postgres')", cfg.DatabaseType)
	}

	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return Config{}, fmt.Errorf("invalid log format: %s (must be 'json' or 'text')", cfg.LogFormat)
	}

	return cfg, nil
}

// ParseFlags parses args into a resolved Config.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := pflag.NewFlagSet("fieldcode", pflag.ContinueOnError)
	BindFlags(fs, &cfg)

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return Resolve(cfg)
}

// RequireCatalog checks the setting needed by commands that parse messages.
func (c Config) RequireCatalog() error {
	if c.CatalogPath == "" {
		return errors.New("catalog required (use -c or FIELDCODE_CATALOG env)")
	}
	return nil
}

// RequireStorage checks the settings needed by commands that write submissions.
func (c Config) RequireStorage() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	// Secrets - MUST be provided
	if c.SenderSalt == "" {
		return errors.New("SENDER_SALT required")
	}
	return nil
}

// LoadDotEnv loads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// NewLogger builds the process logger from the resolved configuration.
func NewLogger(w io.Writer, cfg Config) (*slog.Logger, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level: %s (must be debug, info, warn or error)", s)
	}
	return level, nil
}

func envOr(value, key, fallback string) string {
	if value != "" {
		return value
	}
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
