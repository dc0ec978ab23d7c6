// Package fairness audits settled games against the distribution axioms.
// Checks are pure functions over settlement views; a failing check is a
// correct negative answer, not an error.
package fairness

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/WGlynn/divvy/internal/domain/model"
)

// Report carries the verdict of one audit along with the measured deviation
// and the tolerance it was compared against, so callers never get a silent
// pass.
type Report struct {
	Fair      bool         `json:"fair"`
	Deviation *uint256.Int `json:"-"`
	Tolerance *uint256.Int `json:"-"`
}

// DeviationString renders the deviation in decimal for transport.
func (r Report) DeviationString() string { return r.Deviation.Dec() }

// ToleranceString renders the tolerance in decimal for transport.
func (r Report) ToleranceString() string { return r.Tolerance.Dec() }

// Pairwise checks proportionality for two participants of the same settled
// game: reward ratio must match weight ratio. The comparison uses
// cross-multiplication so no new rounding error is introduced:
//
//	|share_a * weight_b - share_b * weight_a| <= totalWeight
//
// The game's recorded total weight bounds the truncation error compounded
// across the proportional split.
func Pairwise(s model.Settlement, a, b model.AccountID) (Report, error) {
	allocA, ok := s.Allocation(a)
	if !ok {
		return Report{}, fmt.Errorf("%w: %s in game %s", ErrUnknownParticipant, a, s.GameID)
	}
	allocB, ok := s.Allocation(b)
	if !ok {
		return Report{}, fmt.Errorf("%w: %s in game %s", ErrUnknownParticipant, b, s.GameID)
	}

	cross1 := new(uint256.Int).Mul(uint256.NewInt(allocA.Share), uint256.NewInt(allocB.Weight))
	cross2 := new(uint256.Int).Mul(uint256.NewInt(allocB.Share), uint256.NewInt(allocA.Weight))

	deviation := new(uint256.Int)
	if cross1.Cmp(cross2) >= 0 {
		deviation.Sub(cross1, cross2)
	} else {
		deviation.Sub(cross2, cross1)
	}
	tolerance := uint256.NewInt(s.TotalWeight)

	return Report{
		Fair:      deviation.Cmp(tolerance) <= 0,
		Deviation: deviation,
		Tolerance: tolerance,
	}, nil
}

// TimeNeutrality checks that one account earned the same reward in two
// settled time-neutral games, within a tolerance of the larger game's
// participant count. The check is undefined for the scheduled-emission
// track: those games decay on purpose, so auditing one is a precondition
// error.
func TimeNeutrality(a, b model.Settlement, account model.AccountID) (Report, error) {
	if a.Track != model.TrackTimeNeutral || b.Track != model.TrackTimeNeutral {
		return Report{}, ErrScheduledTrackAudit
	}
	allocA, ok := a.Allocation(account)
	if !ok {
		return Report{}, fmt.Errorf("%w: %s in game %s", ErrUnknownParticipant, account, a.GameID)
	}
	allocB, ok := b.Allocation(account)
	if !ok {
		return Report{}, fmt.Errorf("%w: %s in game %s", ErrUnknownParticipant, account, b.GameID)
	}

	deviation := new(uint256.Int)
	if allocA.Share >= allocB.Share {
		deviation.SetUint64(allocA.Share - allocB.Share)
	} else {
		deviation.SetUint64(allocB.Share - allocA.Share)
	}

	larger := len(a.Allocations)
	if len(b.Allocations) > larger {
		larger = len(b.Allocations)
	}
	tolerance := uint256.NewInt(uint64(larger))

	return Report{
		Fair:      deviation.Cmp(tolerance) <= 0,
		Deviation: deviation,
		Tolerance: tolerance,
	}, nil
}
