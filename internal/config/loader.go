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
)

const (
	envPrefix  = "RALLY_"
	envFileVar = "RALLY_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if RALLY_CONFIG is set
//  3. env (prefix RALLY_)
func Load(_ context.Context) (*Config, error) {
	base := New()
	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// RALLY_PRIZE_SPLIT=0.5,0.3,0.2 -> prize_split: [0.5 0.3 0.2]
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if key == "config" {
			return "", nil
		}
		if key == "prize_split" {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return key, parts
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	// Slices are decoded element-wise into existing backing arrays, so the
	// default curve is only restored when no layer supplied one.
	cfg.PrizeSplit = nil
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if len(cfg.PrizeSplit) == 0 {
		cfg.PrizeSplit = base.PrizeSplit
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DatabasePath) == "":
		return fmt.Errorf("%w: database_path must not be empty", ErrInvalidConfig)
	case c.MaxHistoryLimit < 1:
		return fmt.Errorf("%w: max_history_limit must be positive", ErrInvalidConfig)
	case c.StartingBalance < 0:
		return fmt.Errorf("%w: starting_balance must not be negative", ErrInvalidConfig)
	case c.BusyTimeoutMS < 0:
		return fmt.Errorf("%w: busy_timeout_ms must not be negative", ErrInvalidConfig)
	}
	var sum float64
	for i, f := range c.PrizeSplit {
		if f < 0 || f > 1 {
			return fmt.Errorf("%w: prize_split[%d]=%v outside [0,1]", ErrInvalidConfig, i, f)
		}
		sum += f
	}
	// Tolerate float noise from decimal fractions such as 0.6+0.3+0.1.
	if sum > 1+1e-9 {
		return fmt.Errorf("%w: prize_split sums to %v, must be at most 1", ErrInvalidConfig, sum)
	}
	return nil
}
