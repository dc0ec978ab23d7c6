// Package weighting computes a participant's contribution weight for one
// game. The weight is an O(n)-friendly stand-in for a Shapley value: a
// normalized weighted sum of four signals, scaled by a per-account quality
// multiplier. All arithmetic is unsigned and truncating.
package weighting

import (
	"github.com/holiman/uint256"

	"github.com/WGlynn/divvy/internal/domain/fixed"
	"github.com/WGlynn/divvy/internal/domain/model"
)

// splitDenominator normalizes the four percentage components.
const splitDenominator = 100

// Splits names the percentage given to each weight component. The four
// values must sum to 100.
type Splits struct {
	DirectPct    uint64 `koanf:"direct_weight_pct" json:"direct_pct"`
	TimePct      uint64 `koanf:"time_weight_pct" json:"time_pct"`
	ScarcityPct  uint64 `koanf:"scarcity_weight_pct" json:"scarcity_pct"`
	StabilityPct uint64 `koanf:"stability_weight_pct" json:"stability_pct"`
}

// DefaultSplits returns the 40/30/20/10 production weighting.
func DefaultSplits() Splits {
	return Splits{DirectPct: 40, TimePct: 30, ScarcityPct: 20, StabilityPct: 10}
}

// Validate checks that the components sum to exactly 100.
func (s Splits) Validate() error {
	if s.DirectPct+s.TimePct+s.ScarcityPct+s.StabilityPct != splitDenominator {
		return ErrInvalidSplits
	}
	return nil
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithSplits overrides the component percentages.
func WithSplits(s Splits) Option {
	return func(c *Calculator) {
		if s.Validate() == nil {
			c.splits = s
		}
	}
}

// WithQualityEnabled toggles the per-account quality multiplier. When
// disabled every account weighs as if neutral.
func WithQualityEnabled(enabled bool) Option {
	return func(c *Calculator) {
		c.qualityEnabled = enabled
	}
}

// Calculator computes contribution weights.
type Calculator struct {
	splits         Splits
	qualityEnabled bool
}

// New creates a Calculator with the default splits.
func New(opts ...Option) *Calculator {
	c := &Calculator{
		splits:         DefaultSplits(),
		qualityEnabled: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Splits returns the active component percentages.
func (c *Calculator) Splits() Splits {
	return c.splits
}

// TimeScore encodes tenure with diminishing returns:
// floorLog2(days + 1) * Precision/10.
func TimeScore(timeInPool uint64) uint64 {
	return fixed.FloorLog2(timeInPool/fixed.SecondsPerDay+1) * (fixed.Precision / 10)
}

// QualityMultiplier rescales the mean of the three quality scores into
// [0.5, 1.5] in Precision fixed point. A nil record is neutral (1.0).
func QualityMultiplier(qw *model.QualityWeight) uint64 {
	if qw == nil {
		return fixed.Precision
	}
	return fixed.Precision/2 + qw.MeanBPS()*(fixed.Precision/model.MaxBPS)
}

// Weight computes the participant's weight. A participant with all-zero
// signals weighs zero regardless of quality. The result must fit in 64 bits;
// otherwise ErrWeightOverflow is returned and the caller must fail the game.
func (c *Calculator) Weight(p model.Participant, qw *model.QualityWeight) (uint64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if qw != nil {
		if err := qw.Validate(); err != nil {
			return 0, err
		}
	}

	// bps/MaxBPS truncates toward zero: only a full-scale score moves the
	// scarcity and stability terms off zero.
	scarcityScore := (p.ScarcityBPS / model.MaxBPS) * fixed.Precision
	stabilityScore := (p.StabilityBPS / model.MaxBPS) * fixed.Precision

	base := new(uint256.Int)
	base.Add(base, new(uint256.Int).Mul(uint256.NewInt(p.Direct), uint256.NewInt(c.splits.DirectPct)))
	base.Add(base, new(uint256.Int).Mul(uint256.NewInt(TimeScore(p.TimeInPool)), uint256.NewInt(c.splits.TimePct)))
	base.Add(base, new(uint256.Int).Mul(uint256.NewInt(scarcityScore), uint256.NewInt(c.splits.ScarcityPct)))
	base.Add(base, new(uint256.Int).Mul(uint256.NewInt(stabilityScore), uint256.NewInt(c.splits.StabilityPct)))
	base.Div(base, uint256.NewInt(splitDenominator))

	mult := fixed.Precision
	if c.qualityEnabled {
		mult = QualityMultiplier(qw)
	}
	base.Mul(base, uint256.NewInt(mult))
	base.Div(base, uint256.NewInt(fixed.Precision))

	if !base.IsUint64() {
		return 0, ErrWeightOverflow
	}
	return base.Uint64(), nil
}
