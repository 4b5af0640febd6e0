package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if DISPATCH_CONFIG is set
//  3. env (prefix DISPATCH_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("DISPATCH_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: DISPATCH_ADDR, DISPATCH_AUDIT_QUEUE_SIZE, ...
	// Keys keep their underscores to match the koanf tags on the struct.
	envProvider := env.Provider("DISPATCH_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "dispatch_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("addr must not be empty: %w", ErrInvalidConfig)
	case c.SQLitePath == "":
		return fmt.Errorf("sqlite_path must not be empty: %w", ErrInvalidConfig)
	case c.AuditQueueSize <= 0:
		return fmt.Errorf("audit_queue_size must be positive: %w", ErrInvalidConfig)
	case c.AuditWorkerCount <= 0:
		return fmt.Errorf("audit_worker_count must be positive: %w", ErrInvalidConfig)
	case c.MaxServiceRadiusMeters <= 0:
		return fmt.Errorf("max_service_radius_meters must be positive: %w", ErrInvalidConfig)
	}
	return nil
}
