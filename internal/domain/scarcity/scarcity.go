// Package scarcity scores how under-represented a participant's market side
// was in the originating event. The score is one of the four raw signals fed
// to the weighting function; it is computed while participant records are
// being assembled, never during settlement.
package scarcity

import (
	"fmt"

	"github.com/WGlynn/divvy/internal/domain/fixed"
	"github.com/WGlynn/divvy/internal/domain/model"
)

// Score bands in basis points.
const (
	NeutralScore       uint64 = 5000 // balanced or degenerate market
	scarceCeiling      uint64 = 7500 // scarce-side base at full imbalance
	abundantFloor      uint64 = 2500 // abundant-side base at full imbalance
	maxShareBonus      uint64 = 1000 // top-up for dominating the scarce side
	imbalanceBandWidth uint64 = scarceCeiling - NeutralScore
)

// Side is the market side a participant traded on.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

// String returns the wire name of the side.
func (s Side) String() string {
	if s == SideBuy {
		return "buy"
	}
	return "sell"
}

// ParseSide parses a wire side name.
func ParseSide(s string) (Side, error) {
	switch s {
	case "buy":
		return SideBuy, nil
	case "sell":
		return SideSell, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSide, s)
	}
}

// Score rates a participant in [0, 10000] bps. The side with lower aggregate
// volume is scarce: its participants score in [5000, 7500] by imbalance,
// plus up to maxShareBonus proportional to their share of the scarce side's
// volume. The abundant side mirrors down into [2500, 5000]. A market with no
// volume on either side scores the neutral midpoint.
func Score(buyVolume, sellVolume uint64, side Side, participantVolume uint64) uint64 {
	if buyVolume == 0 && sellVolume == 0 {
		return NeutralScore
	}

	sideVolume, otherVolume := buyVolume, sellVolume
	if side == SideSell {
		sideVolume, otherVolume = sellVolume, buyVolume
	}

	switch {
	case sideVolume < otherVolume:
		// imbalance in bps of the abundant side; otherVolume > 0 here.
		imbalance, err := fixed.MulDiv(otherVolume-sideVolume, model.MaxBPS, otherVolume)
		if err != nil {
			return NeutralScore
		}
		score := NeutralScore + imbalance*imbalanceBandWidth/model.MaxBPS
		if sideVolume > 0 && participantVolume > 0 {
			if participantVolume > sideVolume {
				participantVolume = sideVolume
			}
			bonus, err := fixed.MulDiv(participantVolume, maxShareBonus, sideVolume)
			if err == nil {
				score += bonus
			}
		}
		return score
	case sideVolume > otherVolume:
		imbalance, err := fixed.MulDiv(sideVolume-otherVolume, model.MaxBPS, sideVolume)
		if err != nil {
			return NeutralScore
		}
		return NeutralScore - imbalance*(NeutralScore-abundantFloor)/model.MaxBPS
	default:
		return NeutralScore
	}
}
