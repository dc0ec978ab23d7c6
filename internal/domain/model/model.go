// Package model contains the domain records shared between layers.
package model

import (
	"fmt"
	"time"
)

// MaxBPS is the upper bound for basis-point scores.
const MaxBPS uint64 = 10000

// AccountID identifies a participant or operator account.
type AccountID string

// AssetID identifies the asset a game distributes.
type AssetID string

// Track selects the distribution mode for a game.
type Track uint8

const (
	// TrackTimeNeutral distributes at face value regardless of when the
	// game is created.
	TrackTimeNeutral Track = iota
	// TrackScheduledEmission applies the current era's halving multiplier
	// to the pool at creation.
	TrackScheduledEmission
)

// String returns the wire name of the track.
func (t Track) String() string {
	switch t {
	case TrackTimeNeutral:
		return "time-neutral"
	case TrackScheduledEmission:
		return "scheduled-emission"
	default:
		return fmt.Sprintf("track(%d)", uint8(t))
	}
}

// ParseTrack parses a wire track name. The empty string defaults to
// time-neutral, matching the default game-creation entry point.
func ParseTrack(s string) (Track, error) {
	switch s {
	case "", "time-neutral":
		return TrackTimeNeutral, nil
	case "scheduled-emission":
		return TrackScheduledEmission, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownTrack, s)
	}
}

// Participant carries one contributor's raw signals for a single game.
// Immutable once the game is created.
type Participant struct {
	Account      AccountID `json:"account"`
	Direct       uint64    `json:"direct"`        // direct contribution, asset-native units
	TimeInPool   uint64    `json:"time_in_pool"`  // seconds of tenure
	ScarcityBPS  uint64    `json:"scarcity_bps"`  // 0-10000
	StabilityBPS uint64    `json:"stability_bps"` // 0-10000
}

// Validate checks field bounds.
func (p Participant) Validate() error {
	if p.Account == "" {
		return ErrEmptyAccount
	}
	if p.ScarcityBPS > MaxBPS {
		return fmt.Errorf("%w: scarcity %d", ErrScoreOutOfRange, p.ScarcityBPS)
	}
	if p.StabilityBPS > MaxBPS {
		return fmt.Errorf("%w: stability %d", ErrScoreOutOfRange, p.StabilityBPS)
	}
	return nil
}

// QualityWeight is the per-account multiplier state maintained out-of-band
// by authorized updaters. Absent entries default to a neutral multiplier.
type QualityWeight struct {
	ActivityBPS   uint64    `json:"activity_bps"`
	ReputationBPS uint64    `json:"reputation_bps"`
	EconomicBPS   uint64    `json:"economic_bps"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Validate checks field bounds.
func (q QualityWeight) Validate() error {
	for _, v := range []uint64{q.ActivityBPS, q.ReputationBPS, q.EconomicBPS} {
		if v > MaxBPS {
			return fmt.Errorf("%w: quality score %d", ErrScoreOutOfRange, v)
		}
	}
	return nil
}

// MeanBPS returns the mean of the three quality scores.
func (q QualityWeight) MeanBPS() uint64 {
	return (q.ActivityBPS + q.ReputationBPS + q.EconomicBPS) / 3
}

// Game is one discrete settlement event. TotalValue is the stored,
// post-halving value; it never changes after creation.
type Game struct {
	ID           string        `json:"id"`
	TotalValue   uint64        `json:"total_value"`
	Asset        AssetID       `json:"asset"`
	Track        Track         `json:"-"`
	Settled      bool          `json:"settled"`
	Era          uint64        `json:"era"`        // era at creation
	Multiplier   uint64        `json:"multiplier"` // emission multiplier applied at creation
	Participants []Participant `json:"participants"`
}

// Allocation is the settled outcome for one participant in one game.
// Weight and Share are written exactly once at settlement; Claimed flips
// exactly once on claim.
type Allocation struct {
	Account AccountID `json:"account"`
	Weight  uint64    `json:"weight"`
	Share   uint64    `json:"share"`
	Claimed bool      `json:"claimed"`
}

// Settlement is the read-only audit view of a settled game consumed by the
// fairness verifier. TotalWeight is retained for tolerance computation.
type Settlement struct {
	GameID      string
	Track       Track
	TotalValue  uint64
	TotalWeight uint64
	Allocations []Allocation
}

// Allocation returns the allocation for account, if present.
func (s Settlement) Allocation(account AccountID) (Allocation, bool) {
	for _, a := range s.Allocations {
		if a.Account == account {
			return a, true
		}
	}
	return Allocation{}, false
}

// HalvingState is the process-wide scheduled-emission clock.
type HalvingState struct {
	Genesis     time.Time `json:"genesis"`
	Counter     uint64    `json:"counter"` // scheduled-emission games created
	GamesPerEra uint64    `json:"games_per_era"`
	Enabled     bool      `json:"enabled"`
}
