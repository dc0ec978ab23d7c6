// Package emitter simulates the external emission source: it mints value
// into a local pool on an interval and drains a bounded percentage of the
// pool into a new game over the engine's HTTP API.
//
// The pool this emitter drains is assumed to be decayed upstream by its own
// wall-clock schedule, so every game it creates is time-neutral; creating a
// scheduled-emission game here would apply halving twice.
package emitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/WGlynn/divvy/internal/domain/model"
	"github.com/WGlynn/divvy/internal/domain/scarcity"
	"github.com/WGlynn/divvy/pkg/logger"
)

// Defaults for the simulated emission source.
const (
	defaultInterval    = 5 * time.Second
	defaultMint        = 1_000_000
	defaultAsset       = "VIBE"
	defaultRosterSize  = 8
	defaultDrainMinBPS = 100
	defaultDrainMaxBPS = 2000
	defaultRandomSeed  = 42
	requestTimeout     = 10 * time.Second
)

// Option applies a configuration option to the Emitter.
type Option func(*Emitter)

// WithTarget sets the engine base URL.
func WithTarget(target string) Option {
	return func(e *Emitter) {
		if target != "" {
			e.target = target
		}
	}
}

// WithOperator sets the operator account used for game creation.
func WithOperator(account model.AccountID) Option {
	return func(e *Emitter) {
		if account != "" {
			e.operator = account
		}
	}
}

// WithAsset sets the asset id for minted value.
func WithAsset(asset model.AssetID) Option {
	return func(e *Emitter) {
		if asset != "" {
			e.asset = asset
		}
	}
}

// WithInterval sets the mint-and-drain interval.
func WithInterval(interval time.Duration) Option {
	return func(e *Emitter) {
		if interval > 0 {
			e.interval = interval
		}
	}
}

// WithMint sets the amount minted into the pool each interval.
func WithMint(amount uint64) Option {
	return func(e *Emitter) {
		if amount > 0 {
			e.mint = amount
		}
	}
}

// WithDrainBounds sets the min/max percentage (bps) of the pool drained
// into each game.
func WithDrainBounds(minBPS, maxBPS uint64) Option {
	return func(e *Emitter) {
		if minBPS <= maxBPS && maxBPS <= model.MaxBPS {
			e.drainMinBPS = minBPS
			e.drainMaxBPS = maxBPS
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(lg logger.Logger) Option {
	return func(e *Emitter) {
		if lg != nil {
			e.lg = lg
		}
	}
}

// Emitter drives the mint-and-drain loop.
type Emitter struct {
	target      string
	operator    model.AccountID
	asset       model.AssetID
	interval    time.Duration
	mint        uint64
	drainMinBPS uint64
	drainMaxBPS uint64
	rosterSize  int

	pool   uint64
	client *http.Client
	rng    *rand.Rand
	lg     logger.Logger
}

// New creates an Emitter with default configuration.
func New(opts ...Option) *Emitter {
	e := &Emitter{
		target:      "http://localhost:9090",
		operator:    "operator-genesis",
		asset:       defaultAsset,
		interval:    defaultInterval,
		mint:        defaultMint,
		drainMinBPS: defaultDrainMinBPS,
		drainMaxBPS: defaultDrainMaxBPS,
		rosterSize:  defaultRosterSize,
		client:      &http.Client{Timeout: requestTimeout},
		rng:         rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic simulation
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.lg == nil {
		e.lg = logger.Get().Named("emitter")
	}
	return e
}

// Run mints and drains until ctx is canceled.
func (e *Emitter) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.lg.Info(ctx, "emitter started",
		logger.String("target", e.target),
		logger.Uint64("mint", e.mint),
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

func (e *Emitter) tick(ctx context.Context) {
	e.pool += e.mint

	drainBPS := e.drainMinBPS
	if e.drainMaxBPS > e.drainMinBPS {
		drainBPS += uint64(e.rng.Int63n(int64(e.drainMaxBPS - e.drainMinBPS + 1)))
	}
	drain := e.pool * drainBPS / model.MaxBPS
	if drain == 0 {
		return
	}

	gameID := uuid.NewString()
	if err := e.createGame(ctx, gameID, drain); err != nil {
		e.lg.Warn(ctx, "game creation failed", logger.Error(err))
		return
	}
	e.pool -= drain
	e.lg.Info(ctx, "pool drained into game",
		logger.String("game", gameID),
		logger.Uint64("drained", drain),
		logger.Uint64("pool", e.pool),
	)
}

// createGameRequest mirrors the engine's POST /games schema.
type createGameRequest struct {
	GameID       string               `json:"game_id"`
	TotalValue   uint64               `json:"total_value"`
	Asset        string               `json:"asset"`
	Track        string               `json:"track"`
	Participants []participantPayload `json:"participants"`
}

type participantPayload struct {
	Account      string `json:"account"`
	Direct       uint64 `json:"direct"`
	TimeInPool   uint64 `json:"time_in_pool"`
	ScarcityBPS  uint64 `json:"scarcity_bps"`
	StabilityBPS uint64 `json:"stability_bps"`
}

func (e *Emitter) createGame(ctx context.Context, gameID string, value uint64) error {
	req := createGameRequest{
		GameID:       gameID,
		TotalValue:   value,
		Asset:        string(e.asset),
		Track:        model.TrackTimeNeutral.String(),
		Participants: e.buildParticipants(),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.target+"/games", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Account", string(e.operator))

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post game: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: status %d", ErrCreateRejected, resp.StatusCode)
	}
	return nil
}

// buildParticipants simulates one batch of liquidity providers. Scarcity
// scores come from the same scorer the trading engine would use, computed
// against the batch's aggregate buy/sell imbalance.
func (e *Emitter) buildParticipants() []participantPayload {
	type trader struct {
		account string
		side    scarcity.Side
		volume  uint64
	}

	traders := make([]trader, e.rosterSize)
	var buyVolume, sellVolume uint64
	for i := range traders {
		side := scarcity.SideBuy
		if e.rng.Intn(2) == 1 {
			side = scarcity.SideSell
		}
		volume := uint64(e.rng.Int63n(100_000)) + 1
		traders[i] = trader{
			account: fmt.Sprintf("lp-%03d", i+1),
			side:    side,
			volume:  volume,
		}
		if side == scarcity.SideBuy {
			buyVolume += volume
		} else {
			sellVolume += volume
		}
	}

	participants := make([]participantPayload, len(traders))
	for i, t := range traders {
		participants[i] = participantPayload{
			Account:      t.account,
			Direct:       t.volume,
			TimeInPool:   uint64(e.rng.Int63n(365)) * 86400,
			ScarcityBPS:  scarcity.Score(buyVolume, sellVolume, t.side, t.volume),
			StabilityBPS: uint64(e.rng.Int63n(10_001)),
		}
	}
	return participants
}
