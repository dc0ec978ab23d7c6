// Package repository defines the engine's state store interface and errors.
//
// The store holds the only mutable shared state: per-game records, per-
// participant settlement records, per-account quality weights and claimed
// balances, and the global halving clock. Write-once transitions (a game
// settles once, a claim pays once) are enforced here with flag checks; the
// single-writer applier above this layer guarantees total ordering.
package repository

import (
	"context"

	"github.com/WGlynn/divvy/internal/domain/model"
)

// Store provides read/write access to engine state.
type Store interface {
	// CreateGame records a new unsettled game.
	// Returns ErrDuplicateGame when the id is already taken.
	CreateGame(ctx context.Context, g model.Game) error

	// Game returns the stored game record.
	Game(ctx context.Context, id string) (model.Game, error)

	// Settle writes the per-participant weights and shares exactly once.
	// Slices are positional against the game's participant list.
	Settle(ctx context.Context, id string, weights []uint64, totalWeight uint64, shares []uint64) error

	// Settlement returns the audit view of a settled game.
	// Returns ErrNotSettled for created-but-unsettled games.
	Settlement(ctx context.Context, id string) (model.Settlement, error)

	// Allocation returns one participant's settled outcome.
	Allocation(ctx context.Context, id string, account model.AccountID) (model.Allocation, error)

	// MarkClaimed flips the write-once claim flag and returns the share and
	// asset to credit. The flag is set before any credit happens so a repeat
	// claim can never pay twice.
	MarkClaimed(ctx context.Context, id string, account model.AccountID) (uint64, model.AssetID, error)

	// Credit adds a claimed amount to the account's balance.
	Credit(ctx context.Context, account model.AccountID, asset model.AssetID, amount uint64) error

	// Balances returns the claimed balances for an account keyed by asset.
	Balances(ctx context.Context, account model.AccountID) (map[model.AssetID]uint64, error)

	// SetQualityWeight overwrites the account's quality record wholesale.
	SetQualityWeight(ctx context.Context, account model.AccountID, qw model.QualityWeight) error

	// QualityWeight returns the account's quality record, reporting whether
	// one was ever set.
	QualityWeight(ctx context.Context, account model.AccountID) (model.QualityWeight, bool, error)

	// Halving returns the current scheduled-emission clock state.
	Halving(ctx context.Context) (model.HalvingState, error)

	// SetHalvingConfig updates era length and the enabled flag. Only games
	// created afterwards observe the change.
	SetHalvingConfig(ctx context.Context, gamesPerEra uint64, enabled bool) error

	// IncrementHalvingCounter bumps the scheduled-games counter and returns
	// the new value.
	IncrementHalvingCounter(ctx context.Context) (uint64, error)

	// GameCount returns the number of games ever created.
	GameCount(ctx context.Context) int
}
