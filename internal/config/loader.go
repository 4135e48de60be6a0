package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/sweetshooter/study-progress-tracker/internal/domain/catalog"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if TRACKER_CONFIG is set
//  3. env (prefix TRACKER_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("TRACKER_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: TRACKER_ADDR, TRACKER_STORE_DSN, ...
	// Map env keys like TRACKER_STORE_DSN -> store_dsn (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("TRACKER_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "tracker_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.StoreDSN == "" {
			return fmt.Errorf("%w: store_dsn is required for the postgres driver", ErrInvalidConfig)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, cfg.StoreDriver)
	}
	if cfg.WriteQueueSize <= 0 {
		return fmt.Errorf("%w: write_queue_size must be positive", ErrInvalidConfig)
	}
	if len(cfg.Subjects) > 0 {
		if _, err := catalog.New(cfg.Subjects); err != nil {
			return fmt.Errorf("%w: subjects: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}
