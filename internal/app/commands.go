package app

import (
	"context"
	"fmt"
	"time"

	"github.com/WGlynn/divvy/internal/domain/fixed"
	"github.com/WGlynn/divvy/internal/domain/halving"
	"github.com/WGlynn/divvy/internal/domain/model"
	"github.com/WGlynn/divvy/pkg/logger"
	"github.com/WGlynn/divvy/pkg/metrics"
)

// createGameCmd creates a game, applying the current era's emission
// multiplier when the scheduled track is requested.
type createGameCmd struct {
	engine *Engine
	caller model.AccountID
	params CreateGameParams
}

func (c *createGameCmd) Name() string { return "create_game" }

func (c *createGameCmd) Apply(ctx context.Context) error {
	e := c.engine
	p := c.params

	if !e.isOperator(c.caller) {
		return fmt.Errorf("%w: %s", ErrUnauthorized, c.caller)
	}
	if p.ID == "" {
		return ErrMissingGameID
	}
	if p.TotalValue == 0 {
		return ErrZeroValue
	}
	if p.Asset == "" {
		return ErrMissingAsset
	}

	e.mu.RLock()
	minCount, maxCount := e.minParticipants, e.maxParticipants
	e.mu.RUnlock()
	if len(p.Participants) < minCount || len(p.Participants) > maxCount {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrParticipantBounds, len(p.Participants), minCount, maxCount)
	}

	seen := make(map[model.AccountID]struct{}, len(p.Participants))
	for _, participant := range p.Participants {
		if err := participant.Validate(); err != nil {
			return err
		}
		if _, dup := seen[participant.Account]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateParticipant, participant.Account)
		}
		seen[participant.Account] = struct{}{}
	}

	// Time-neutral games are stored at face value, unconditionally. Only an
	// explicit scheduled-emission creation consults the halving clock.
	value := p.TotalValue
	era := uint64(0)
	multiplier := fixed.Precision
	applyHalving := false

	hs, err := e.store.Halving(ctx)
	if err != nil {
		return err
	}
	if p.Track == model.TrackScheduledEmission && hs.Enabled {
		applyHalving = true
		era = halving.Era(hs.Counter, hs.GamesPerEra)
		multiplier = halving.EmissionMultiplier(era)
		value, err = halving.Apply(p.TotalValue, era)
		if err != nil {
			return err
		}
		if value == 0 {
			return fmt.Errorf("%w: era %d", ErrValueExhausted, era)
		}
	}

	game := model.Game{
		ID:           p.ID,
		TotalValue:   value,
		Asset:        p.Asset,
		Track:        p.Track,
		Era:          era,
		Multiplier:   multiplier,
		Participants: p.Participants,
	}
	if err := e.store.CreateGame(ctx, game); err != nil {
		return err
	}

	if applyHalving {
		counter, err := e.store.IncrementHalvingCounter(ctx)
		if err != nil {
			return err
		}
		metrics.UpdateHalvingCounter(counter)
		metrics.UpdateHalvingEra(halving.Era(counter, hs.GamesPerEra))
	}
	metrics.RecordGameCreated(p.Track.String())
	metrics.UpdateGamesTotal(e.store.GameCount(ctx))

	e.lg.Info(ctx, "game created",
		logger.String("game", p.ID),
		logger.String("track", p.Track.String()),
		logger.Uint64("value", value),
		logger.Uint64("era", era),
		logger.Int("participants", len(p.Participants)),
	)
	return nil
}

// settleGameCmd computes weights and the proportional split exactly once.
type settleGameCmd struct {
	engine *Engine
	caller model.AccountID
	gameID string
}

func (c *settleGameCmd) Name() string { return "settle_game" }

func (c *settleGameCmd) Apply(ctx context.Context) error {
	e := c.engine

	if !e.isOperator(c.caller) {
		return fmt.Errorf("%w: %s", ErrUnauthorized, c.caller)
	}
	game, err := e.store.Game(ctx, c.gameID)
	if err != nil {
		return err
	}

	n := len(game.Participants)
	weights := make([]uint64, n)
	totalWeight := uint64(0)
	for i, participant := range game.Participants {
		var qw *model.QualityWeight
		record, ok, err := e.store.QualityWeight(ctx, participant.Account)
		if err != nil {
			return err
		}
		if ok {
			qw = &record
		}
		weight, err := e.calc.Weight(participant, qw)
		if err != nil {
			return fmt.Errorf("weighting %s: %w", participant.Account, err)
		}
		weights[i] = weight
		totalWeight, err = fixed.Add(totalWeight, weight)
		if err != nil {
			return fmt.Errorf("total weight: %w", err)
		}
	}

	// All null players: refusing beats fabricating a distribution.
	if totalWeight == 0 {
		return fmt.Errorf("%w: game %s", ErrZeroTotalWeight, c.gameID)
	}

	// Proportional split, floor division; the last participant absorbs the
	// truncation remainder so the shares sum to TotalValue exactly.
	shares := make([]uint64, n)
	distributed := uint64(0)
	for i := 0; i < n-1; i++ {
		share, err := fixed.MulDiv(game.TotalValue, weights[i], totalWeight)
		if err != nil {
			return err
		}
		shares[i] = share
		distributed += share
	}
	shares[n-1] = game.TotalValue - distributed

	if err := e.store.Settle(ctx, c.gameID, weights, totalWeight, shares); err != nil {
		return err
	}

	metrics.RecordGameSettled(n)
	e.lg.Info(ctx, "game settled",
		logger.String("game", c.gameID),
		logger.Uint64("total_weight", totalWeight),
		logger.Uint64("value", game.TotalValue),
	)
	return nil
}

// claimCmd pays the caller's settled share exactly once. The claim flag is
// written before the credit so a re-entrant claim can never pay twice.
type claimCmd struct {
	engine *Engine
	caller model.AccountID
	gameID string
}

func (c *claimCmd) Name() string { return "claim" }

func (c *claimCmd) Apply(ctx context.Context) error {
	e := c.engine

	share, asset, err := e.store.MarkClaimed(ctx, c.gameID, c.caller)
	if err != nil {
		return err
	}
	// Zero-share participants have nothing to claim; that is not an error.
	if share > 0 {
		if err := e.store.Credit(ctx, c.caller, asset, share); err != nil {
			return err
		}
	}

	metrics.RecordClaimPaid(string(asset), share)
	e.lg.Info(ctx, "claim paid",
		logger.String("game", c.gameID),
		logger.String("account", string(c.caller)),
		logger.Uint64("share", share),
	)
	return nil
}

// setQualityWeightCmd overwrites an account's quality record wholesale.
type setQualityWeightCmd struct {
	engine  *Engine
	caller  model.AccountID
	account model.AccountID
	qw      model.QualityWeight
}

func (c *setQualityWeightCmd) Name() string { return "set_quality_weight" }

func (c *setQualityWeightCmd) Apply(ctx context.Context) error {
	e := c.engine

	if !e.isOperator(c.caller) {
		return fmt.Errorf("%w: %s", ErrUnauthorized, c.caller)
	}
	if c.account == "" {
		return model.ErrEmptyAccount
	}
	if err := c.qw.Validate(); err != nil {
		return err
	}
	qw := c.qw
	qw.UpdatedAt = time.Now().UTC()
	return e.store.SetQualityWeight(ctx, c.account, qw)
}

// setHalvingConfigCmd updates the halving schedule for future games.
type setHalvingConfigCmd struct {
	engine      *Engine
	caller      model.AccountID
	gamesPerEra uint64
	enabled     bool
}

func (c *setHalvingConfigCmd) Name() string { return "set_halving_config" }

func (c *setHalvingConfigCmd) Apply(ctx context.Context) error {
	e := c.engine

	if !e.isOperator(c.caller) {
		return fmt.Errorf("%w: %s", ErrUnauthorized, c.caller)
	}
	if err := e.store.SetHalvingConfig(ctx, c.gamesPerEra, c.enabled); err != nil {
		return err
	}
	e.lg.Info(ctx, "halving config updated",
		logger.Uint64("games_per_era", c.gamesPerEra),
		logger.Bool("enabled", c.enabled),
	)
	return nil
}

// setBoundsCmd updates the participant-count bounds for future games.
type setBoundsCmd struct {
	engine   *Engine
	caller   model.AccountID
	minCount int
	maxCount int
}

func (c *setBoundsCmd) Name() string { return "set_participant_bounds" }

func (c *setBoundsCmd) Apply(ctx context.Context) error {
	e := c.engine

	if !e.isOperator(c.caller) {
		return fmt.Errorf("%w: %s", ErrUnauthorized, c.caller)
	}
	if c.minCount < 1 || c.maxCount < c.minCount {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidBounds, c.minCount, c.maxCount)
	}

	e.mu.Lock()
	e.minParticipants = c.minCount
	e.maxParticipants = c.maxCount
	e.mu.Unlock()

	e.lg.Info(ctx, "participant bounds updated",
		logger.Int("min", c.minCount),
		logger.Int("max", c.maxCount),
	)
	return nil
}

// setOperatorsCmd replaces the authorized-operator registry.
type setOperatorsCmd struct {
	engine   *Engine
	caller   model.AccountID
	accounts []model.AccountID
}

func (c *setOperatorsCmd) Name() string { return "set_operators" }

func (c *setOperatorsCmd) Apply(ctx context.Context) error {
	e := c.engine

	if !e.isOperator(c.caller) {
		return fmt.Errorf("%w: %s", ErrUnauthorized, c.caller)
	}
	registry := make(map[model.AccountID]struct{}, len(c.accounts))
	for _, a := range c.accounts {
		if a != "" {
			registry[a] = struct{}{}
		}
	}
	if len(registry) == 0 {
		return ErrNoOperators
	}

	e.mu.Lock()
	e.operators = registry
	e.mu.Unlock()

	e.lg.Info(ctx, "operator registry replaced", logger.Int("operators", len(registry)))
	return nil
}
