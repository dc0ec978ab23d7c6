// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() defaults and Load(ctx) for layered loading.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"github.com/WGlynn/divvy/internal/domain/halving"
	"github.com/WGlynn/divvy/internal/domain/weighting"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MinParticipants and MaxParticipants bound game size. Settlement is
	// O(n), so the upper bound keeps execution cost predictable.
	MinParticipants int `koanf:"min_participants"`
	MaxParticipants int `koanf:"max_participants"`

	// GamesPerEra sets how many scheduled-emission games make one era.
	GamesPerEra uint64 `koanf:"games_per_era"`

	// HalvingEnabled toggles the scheduled-emission decay.
	HalvingEnabled bool `koanf:"halving_enabled"`

	// QualityWeightsEnabled toggles the per-account quality multiplier.
	QualityWeightsEnabled bool `koanf:"quality_weights_enabled"`

	// Weighting component percentages; must sum to 100.
	DirectWeightPct    uint64 `koanf:"direct_weight_pct"`
	TimeWeightPct      uint64 `koanf:"time_weight_pct"`
	ScarcityWeightPct  uint64 `koanf:"scarcity_weight_pct"`
	StabilityWeightPct uint64 `koanf:"stability_weight_pct"`

	// Operators seeds the authorized-operator registry.
	Operators []string `koanf:"operators"`

	// CommandLogSize bounds the pending mutation backlog.
	CommandLogSize int `koanf:"command_log_size"`

	// Emitter settings, used by the divvy-emitter binary only.
	EmitterTarget     string `koanf:"emitter_target"`
	EmitterIntervalMS int    `koanf:"emitter_interval_ms"`
	EmitterMint       uint64 `koanf:"emitter_mint"`
	EmitterAsset      string `koanf:"emitter_asset"`
	DrainMinBPS       uint64 `koanf:"drain_min_bps"`
	DrainMaxBPS       uint64 `koanf:"drain_max_bps"`
}

// New creates a Config with production defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9090",
		MinParticipants:       2,
		MaxParticipants:       100,
		GamesPerEra:           halving.DefaultGamesPerEra,
		HalvingEnabled:        true,
		QualityWeightsEnabled: true,
		DirectWeightPct:       40,
		TimeWeightPct:         30,
		ScarcityWeightPct:     20,
		StabilityWeightPct:    10,
		Operators:             []string{"operator-genesis"},
		CommandLogSize:        4096,
		EmitterTarget:         "http://localhost:9090",
		EmitterIntervalMS:     5000,
		EmitterMint:           1_000_000,
		EmitterAsset:          "VIBE",
		DrainMinBPS:           100,  // 1%
		DrainMaxBPS:           2000, // 20%
	}
}

// Splits assembles the weighting component percentages.
func (c *Config) Splits() weighting.Splits {
	return weighting.Splits{
		DirectPct:    c.DirectWeightPct,
		TimePct:      c.TimeWeightPct,
		ScarcityPct:  c.ScarcityWeightPct,
		StabilityPct: c.StabilityWeightPct,
	}
}
