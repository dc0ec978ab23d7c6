package repository

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/WGlynn/divvy/internal/domain/halving"
	"github.com/WGlynn/divvy/internal/domain/model"
)

// gameRecord binds a game to its write-once settlement state.
type gameRecord struct {
	game        model.Game
	index       map[model.AccountID]int // participant position
	weights     []uint64
	totalWeight uint64
	shares      []uint64
	claimed     []bool
}

// MemStore implements Store with in-memory maps. Reads take a shared lock;
// writes arrive from the single applier goroutine.
type MemStore struct {
	mu       sync.RWMutex
	games    map[string]*gameRecord
	quality  map[model.AccountID]model.QualityWeight
	balances map[model.AccountID]map[model.AssetID]uint64
	halving  model.HalvingState
}

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithGamesPerEra sets the initial era length.
func WithGamesPerEra(n uint64) Option {
	return func(s *MemStore) {
		if n > 0 {
			s.halving.GamesPerEra = n
		}
	}
}

// WithHalvingEnabled sets the initial enabled flag.
func WithHalvingEnabled(enabled bool) Option {
	return func(s *MemStore) {
		s.halving.Enabled = enabled
	}
}

// NewMemStore creates an empty store with the halving clock at genesis.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		games:    make(map[string]*gameRecord),
		quality:  make(map[model.AccountID]model.QualityWeight),
		balances: make(map[model.AccountID]map[model.AssetID]uint64),
		halving: model.HalvingState{
			Genesis:     time.Now().UTC(),
			GamesPerEra: halving.DefaultGamesPerEra,
			Enabled:     true,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateGame records a new unsettled game.
func (s *MemStore) CreateGame(_ context.Context, g model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[g.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateGame, g.ID)
	}

	index := make(map[model.AccountID]int, len(g.Participants))
	for i, p := range g.Participants {
		index[p.Account] = i
	}

	// Copy the participant slice so callers cannot mutate stored state.
	participants := make([]model.Participant, len(g.Participants))
	copy(participants, g.Participants)
	g.Participants = participants

	s.games[g.ID] = &gameRecord{game: g, index: index}
	return nil
}

// Game returns the stored game record.
func (s *MemStore) Game(_ context.Context, id string) (model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.games[id]
	if !ok {
		return model.Game{}, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return rec.game, nil
}

// Settle writes the settlement records exactly once.
func (s *MemStore) Settle(_ context.Context, id string, weights []uint64, totalWeight uint64, shares []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.games[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	if rec.game.Settled {
		return fmt.Errorf("%w: %s", ErrAlreadySettled, id)
	}
	n := len(rec.game.Participants)
	if len(weights) != n || len(shares) != n {
		return ErrRecordMismatch
	}

	rec.weights = make([]uint64, n)
	copy(rec.weights, weights)
	rec.shares = make([]uint64, n)
	copy(rec.shares, shares)
	rec.totalWeight = totalWeight
	rec.claimed = make([]bool, n)
	rec.game.Settled = true
	return nil
}

// Settlement returns the audit view of a settled game.
func (s *MemStore) Settlement(_ context.Context, id string) (model.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.games[id]
	if !ok {
		return model.Settlement{}, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	if !rec.game.Settled {
		return model.Settlement{}, fmt.Errorf("%w: %s", ErrNotSettled, id)
	}

	allocations := make([]model.Allocation, len(rec.game.Participants))
	for i, p := range rec.game.Participants {
		allocations[i] = model.Allocation{
			Account: p.Account,
			Weight:  rec.weights[i],
			Share:   rec.shares[i],
			Claimed: rec.claimed[i],
		}
	}
	return model.Settlement{
		GameID:      id,
		Track:       rec.game.Track,
		TotalValue:  rec.game.TotalValue,
		TotalWeight: rec.totalWeight,
		Allocations: allocations,
	}, nil
}

// Allocation returns one participant's settled outcome.
func (s *MemStore) Allocation(_ context.Context, id string, account model.AccountID) (model.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.games[id]
	if !ok {
		return model.Allocation{}, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	if !rec.game.Settled {
		return model.Allocation{}, fmt.Errorf("%w: %s", ErrNotSettled, id)
	}
	i, ok := rec.index[account]
	if !ok {
		return model.Allocation{}, fmt.Errorf("%w: %s", ErrUnknownParticipant, account)
	}
	return model.Allocation{
		Account: account,
		Weight:  rec.weights[i],
		Share:   rec.shares[i],
		Claimed: rec.claimed[i],
	}, nil
}

// MarkClaimed flips the claim flag before any value moves.
func (s *MemStore) MarkClaimed(_ context.Context, id string, account model.AccountID) (uint64, model.AssetID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.games[id]
	if !ok {
		return 0, "", fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	if !rec.game.Settled {
		return 0, "", fmt.Errorf("%w: %s", ErrNotSettled, id)
	}
	i, ok := rec.index[account]
	if !ok {
		return 0, "", fmt.Errorf("%w: %s", ErrUnknownParticipant, account)
	}
	if rec.claimed[i] {
		return 0, "", fmt.Errorf("%w: %s in game %s", ErrAlreadyClaimed, account, id)
	}
	rec.claimed[i] = true
	return rec.shares[i], rec.game.Asset, nil
}

// Credit adds a claimed amount to the account's balance.
func (s *MemStore) Credit(_ context.Context, account model.AccountID, asset model.AssetID, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byAsset, ok := s.balances[account]
	if !ok {
		byAsset = make(map[model.AssetID]uint64)
		s.balances[account] = byAsset
	}
	if byAsset[asset] > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}
	byAsset[asset] += amount
	return nil
}

// Balances returns a copy of the account's claimed balances.
func (s *MemStore) Balances(_ context.Context, account model.AccountID) (map[model.AssetID]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[model.AssetID]uint64, len(s.balances[account]))
	for asset, amount := range s.balances[account] {
		out[asset] = amount
	}
	return out, nil
}

// SetQualityWeight overwrites the account's quality record wholesale.
func (s *MemStore) SetQualityWeight(_ context.Context, account model.AccountID, qw model.QualityWeight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quality[account] = qw
	return nil
}

// QualityWeight returns the account's quality record, if ever set.
func (s *MemStore) QualityWeight(_ context.Context, account model.AccountID) (model.QualityWeight, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	qw, ok := s.quality[account]
	return qw, ok, nil
}

// Halving returns the scheduled-emission clock state.
func (s *MemStore) Halving(_ context.Context) (model.HalvingState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.halving, nil
}

// SetHalvingConfig updates era length and enabled flag for future games.
func (s *MemStore) SetHalvingConfig(_ context.Context, gamesPerEra uint64, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gamesPerEra == 0 {
		return fmt.Errorf("%w: games per era must be positive", ErrInvalidConfig)
	}
	s.halving.GamesPerEra = gamesPerEra
	s.halving.Enabled = enabled
	return nil
}

// IncrementHalvingCounter bumps the scheduled-games counter.
func (s *MemStore) IncrementHalvingCounter(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.halving.Counter++
	return s.halving.Counter, nil
}

// GameCount returns the number of games ever created.
func (s *MemStore) GameCount(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}
