package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "PITCHMECH_"
	// EnvConfigPath names an optional YAML config file.
	EnvConfigPath = EnvPrefix + "CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if PITCHMECH_CONFIG is set
//  3. env (prefix PITCHMECH_)
func Load(ctx context.Context) (*Config, error) {
	_ = ctx
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// PITCHMECH_QUEUE_SIZE -> queue_size. Comma separated values become
	// lists for slice fields.
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(EnvPrefix))
		if key == "config" {
			return "", nil
		}
		if key == "cors_allowed_origins" {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges. Every problem is reported in one error
// wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("queue_size must be positive, got %d", c.QueueSize))
	}
	if c.WorkerCount <= 0 {
		errs = append(errs, fmt.Errorf("worker_count must be positive, got %d", c.WorkerCount))
	}
	if c.MinVisibility < 0 || c.MinVisibility > 1 {
		errs = append(errs, fmt.Errorf("min_visibility must be in [0,1], got %v", c.MinVisibility))
	}
	if c.ReferenceHeightFt <= 0 {
		errs = append(errs, fmt.Errorf("reference_height_ft must be positive, got %v", c.ReferenceHeightFt))
	}
	if c.MinValidFrames < 1 {
		errs = append(errs, fmt.Errorf("min_valid_frames must be at least 1, got %d", c.MinValidFrames))
	}
	switch c.ProfileSource {
	case ProfileSourceStatic:
	case ProfileSourceRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("redis_addr must be set for the redis profile source"))
		}
	case ProfileSourcePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres_dsn must be set for the postgres profile source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown profile_source %q", c.ProfileSource))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
