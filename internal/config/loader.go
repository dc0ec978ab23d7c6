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

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if DIVVY_CONFIG is set
//  3. env (prefix DIVVY_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("DIVVY_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: DIVVY_ADDR, DIVVY_GAMES_PER_ERA, ...
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("DIVVY_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "divvy_")
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
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MinParticipants < 1:
		return fmt.Errorf("%w: min_participants must be at least 1", ErrInvalidConfig)
	case c.MaxParticipants < c.MinParticipants:
		return fmt.Errorf("%w: max_participants below min_participants", ErrInvalidConfig)
	case c.GamesPerEra == 0:
		return fmt.Errorf("%w: games_per_era must be positive", ErrInvalidConfig)
	case len(c.Operators) == 0:
		return fmt.Errorf("%w: at least one operator is required", ErrInvalidConfig)
	case c.DrainMinBPS > c.DrainMaxBPS:
		return fmt.Errorf("%w: drain_min_bps above drain_max_bps", ErrInvalidConfig)
	case c.DrainMaxBPS > 10000:
		return fmt.Errorf("%w: drain_max_bps above 10000", ErrInvalidConfig)
	}
	if err := c.Splits().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
