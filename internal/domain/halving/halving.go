// Package halving computes the scheduled-emission era and multiplier.
//
// The era is a pure function of the count of scheduled-emission games
// created, never of wall-clock time; time-neutral games must not consult
// this package at all. That separation is what keeps the time-neutral track
// era-independent while the scheduled track decays.
package halving

import (
	"github.com/WGlynn/divvy/internal/domain/fixed"
)

// MaxEras caps the schedule; the multiplier is zero from this era on.
const MaxEras uint64 = 32

// DefaultGamesPerEra is the production era length.
const DefaultGamesPerEra uint64 = 1000

// Era returns the era for a given games-created counter, capped at MaxEras.
func Era(counter, gamesPerEra uint64) uint64 {
	if gamesPerEra == 0 {
		return MaxEras
	}
	era := counter / gamesPerEra
	if era > MaxEras {
		return MaxEras
	}
	return era
}

// EmissionMultiplier returns Precision >> era, halving each era and reaching
// exactly zero at MaxEras. Integer right-shift makes
// EmissionMultiplier(e+1) == EmissionMultiplier(e)/2 hold at every era.
func EmissionMultiplier(era uint64) uint64 {
	if era >= MaxEras {
		return 0
	}
	return fixed.Precision >> era
}

// Apply scales value by the era's emission multiplier.
func Apply(value, era uint64) (uint64, error) {
	return fixed.MulDiv(value, EmissionMultiplier(era), fixed.Precision)
}
