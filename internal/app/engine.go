// Package app wires the reward distribution engine: the weighting
// calculator, the state store, and the command log that serializes every
// mutation into one atomic, totally ordered stream.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/WGlynn/divvy/internal/adapters/ledger"
	"github.com/WGlynn/divvy/internal/adapters/repository"
	"github.com/WGlynn/divvy/internal/domain/fairness"
	"github.com/WGlynn/divvy/internal/domain/halving"
	"github.com/WGlynn/divvy/internal/domain/model"
	"github.com/WGlynn/divvy/internal/domain/weighting"
	"github.com/WGlynn/divvy/pkg/logger"
	"github.com/WGlynn/divvy/pkg/metrics"
)

// Default participant-count bounds. Settlement is O(n), so the upper bound
// keeps per-call execution cost predictable.
const (
	defaultMinParticipants = 2
	defaultMaxParticipants = 100
)

// CreateGameParams is the input for game creation.
type CreateGameParams struct {
	ID           string
	TotalValue   uint64
	Asset        model.AssetID
	Track        model.Track
	Participants []model.Participant
}

// EraStatus is the read-only view of the halving clock.
type EraStatus struct {
	Era         uint64    `json:"era"`
	Multiplier  uint64    `json:"multiplier"`
	Counter     uint64    `json:"counter"`
	GamesPerEra uint64    `json:"games_per_era"`
	Enabled     bool      `json:"enabled"`
	Genesis     time.Time `json:"genesis"`
}

// Engine is the cooperative reward distribution engine.
type Engine struct {
	mu sync.RWMutex

	store   repository.Store
	log     *ledger.Log
	applier *ledger.Applier
	calc    *weighting.Calculator

	operators       map[model.AccountID]struct{}
	minParticipants int
	maxParticipants int
	splits          weighting.Splits
	qualityEnabled  bool
	halvingEnabled  bool
	gamesPerEra     uint64
	logCapacity     int

	started bool
	lg      logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(lg logger.Logger) Option {
	return func(e *Engine) {
		if lg != nil {
			e.lg = lg
		}
	}
}

// WithOperators seeds the authorized-operator registry.
func WithOperators(accounts []model.AccountID) Option {
	return func(e *Engine) {
		for _, a := range accounts {
			if a != "" {
				e.operators[a] = struct{}{}
			}
		}
	}
}

// WithParticipantBounds sets the allowed participant-count range.
func WithParticipantBounds(minCount, maxCount int) Option {
	return func(e *Engine) {
		if minCount >= 1 && maxCount >= minCount {
			e.minParticipants = minCount
			e.maxParticipants = maxCount
		}
	}
}

// WithSplits overrides the weighting component percentages.
func WithSplits(s weighting.Splits) Option {
	return func(e *Engine) {
		if s.Validate() == nil {
			e.splits = s
		}
	}
}

// WithQualityWeightsEnabled toggles the per-account quality multiplier.
func WithQualityWeightsEnabled(enabled bool) Option {
	return func(e *Engine) {
		e.qualityEnabled = enabled
	}
}

// WithHalvingEnabled sets the initial halving enabled flag.
func WithHalvingEnabled(enabled bool) Option {
	return func(e *Engine) {
		e.halvingEnabled = enabled
	}
}

// WithGamesPerEra sets the initial era length.
func WithGamesPerEra(n uint64) Option {
	return func(e *Engine) {
		if n > 0 {
			e.gamesPerEra = n
		}
	}
}

// WithCommandLogCapacity bounds the pending command backlog.
func WithCommandLogCapacity(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.logCapacity = n
		}
	}
}

// New constructs an Engine with default configuration.
func New(opts ...Option) *Engine {
	e := &Engine{
		operators:       make(map[model.AccountID]struct{}),
		minParticipants: defaultMinParticipants,
		maxParticipants: defaultMaxParticipants,
		splits:          weighting.DefaultSplits(),
		qualityEnabled:  true,
		halvingEnabled:  true,
		gamesPerEra:     halving.DefaultGamesPerEra,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start builds the store, the weighting calculator and the command log, and
// launches the single applier goroutine.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return nil
	}
	if e.lg == nil {
		e.lg = logger.Get().Named("engine")
	}

	e.store = repository.NewMemStore(
		repository.WithGamesPerEra(e.gamesPerEra),
		repository.WithHalvingEnabled(e.halvingEnabled),
	)
	e.calc = weighting.New(
		weighting.WithSplits(e.splits),
		weighting.WithQualityEnabled(e.qualityEnabled),
	)

	var logOpts []ledger.Option
	if e.logCapacity > 0 {
		logOpts = append(logOpts, ledger.WithCapacity(e.logCapacity))
	}
	e.log = ledger.NewLog(logOpts...)
	e.applier = ledger.NewApplier(e.log, ledger.WithLogger(e.lg.Named("applier")))
	go e.applier.Run(ctx)

	e.started = true
	e.lg.Info(ctx, "engine started",
		logger.Int("min_participants", e.minParticipants),
		logger.Int("max_participants", e.maxParticipants),
		logger.Bool("halving_enabled", e.halvingEnabled),
		logger.Uint64("games_per_era", e.gamesPerEra),
		logger.Int("operators", len(e.operators)),
	)
	return nil
}

// Stop drains the command log and shuts the applier down. The engine lock is
// released before the drain: queued commands take read locks while applying,
// so waiting on them under the write lock would stall the shutdown.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	applier := e.applier
	lg := e.lg
	e.mu.Unlock()

	ctx := context.Background()
	if err := applier.Shutdown(ctx); err != nil {
		lg.Warn(ctx, "applier shutdown", logger.Error(err))
	}
	lg.Info(ctx, "engine stopped")
}

// submit dispatches a command through the serializing log.
func (e *Engine) submit(ctx context.Context, cmd ledger.Command) error {
	e.mu.RLock()
	started := e.started
	log := e.log
	e.mu.RUnlock()

	if !started {
		return ErrNotStarted
	}
	return log.Submit(ctx, cmd)
}

func (e *Engine) isOperator(account model.AccountID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.operators[account]
	return ok
}

// CreateGame creates a game on the requested track. Authorized operators
// only.
func (e *Engine) CreateGame(ctx context.Context, caller model.AccountID, p CreateGameParams) error {
	return e.submit(ctx, &createGameCmd{engine: e, caller: caller, params: p})
}

// SettleGame computes weights and shares for a created game, exactly once.
// Authorized operators only.
func (e *Engine) SettleGame(ctx context.Context, caller model.AccountID, gameID string) error {
	return e.submit(ctx, &settleGameCmd{engine: e, caller: caller, gameID: gameID})
}

// Claim pays the caller's settled share exactly once.
func (e *Engine) Claim(ctx context.Context, caller model.AccountID, gameID string) error {
	return e.submit(ctx, &claimCmd{engine: e, caller: caller, gameID: gameID})
}

// SetQualityWeight overwrites an account's quality record. Authorized
// operators only.
func (e *Engine) SetQualityWeight(ctx context.Context, caller, account model.AccountID, qw model.QualityWeight) error {
	return e.submit(ctx, &setQualityWeightCmd{engine: e, caller: caller, account: account, qw: qw})
}

// SetHalvingConfig updates era length and enabled flag for future games.
// Authorized operators only.
func (e *Engine) SetHalvingConfig(ctx context.Context, caller model.AccountID, gamesPerEra uint64, enabled bool) error {
	return e.submit(ctx, &setHalvingConfigCmd{engine: e, caller: caller, gamesPerEra: gamesPerEra, enabled: enabled})
}

// SetParticipantBounds updates the allowed participant-count range.
// Authorized operators only.
func (e *Engine) SetParticipantBounds(ctx context.Context, caller model.AccountID, minCount, maxCount int) error {
	return e.submit(ctx, &setBoundsCmd{engine: e, caller: caller, minCount: minCount, maxCount: maxCount})
}

// SetOperators replaces the authorized-operator registry. Authorized
// operators only.
func (e *Engine) SetOperators(ctx context.Context, caller model.AccountID, accounts []model.AccountID) error {
	return e.submit(ctx, &setOperatorsCmd{engine: e, caller: caller, accounts: accounts})
}

// readStore returns the store once the engine is running.
func (e *Engine) readStore() (repository.Store, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.started {
		return nil, ErrNotStarted
	}
	return e.store, nil
}

// Game returns a stored game record.
func (e *Engine) Game(ctx context.Context, id string) (model.Game, error) {
	store, err := e.readStore()
	if err != nil {
		return model.Game{}, err
	}
	return store.Game(ctx, id)
}

// Allocation returns one participant's settled outcome.
func (e *Engine) Allocation(ctx context.Context, id string, account model.AccountID) (model.Allocation, error) {
	store, err := e.readStore()
	if err != nil {
		return model.Allocation{}, err
	}
	return store.Allocation(ctx, id, account)
}

// Balances returns the claimed balances for an account.
func (e *Engine) Balances(ctx context.Context, account model.AccountID) (map[model.AssetID]uint64, error) {
	store, err := e.readStore()
	if err != nil {
		return nil, err
	}
	return store.Balances(ctx, account)
}

// QualityWeight returns the stored quality record for an account.
func (e *Engine) QualityWeight(ctx context.Context, account model.AccountID) (model.QualityWeight, bool, error) {
	store, err := e.readStore()
	if err != nil {
		return model.QualityWeight{}, false, err
	}
	return store.QualityWeight(ctx, account)
}

// CheckPairwise audits pairwise proportionality on a settled game.
func (e *Engine) CheckPairwise(ctx context.Context, gameID string, a, b model.AccountID) (fairness.Report, error) {
	store, err := e.readStore()
	if err != nil {
		return fairness.Report{}, err
	}
	settlement, err := store.Settlement(ctx, gameID)
	if err != nil {
		return fairness.Report{}, err
	}
	return fairness.Pairwise(settlement, a, b)
}

// CheckTimeNeutrality audits one account's reward across two settled
// time-neutral games.
func (e *Engine) CheckTimeNeutrality(ctx context.Context, gameA, gameB string, account model.AccountID) (fairness.Report, error) {
	store, err := e.readStore()
	if err != nil {
		return fairness.Report{}, err
	}
	settlementA, err := store.Settlement(ctx, gameA)
	if err != nil {
		return fairness.Report{}, err
	}
	settlementB, err := store.Settlement(ctx, gameB)
	if err != nil {
		return fairness.Report{}, err
	}
	return fairness.TimeNeutrality(settlementA, settlementB, account)
}

// EraStatus returns the current halving clock view.
func (e *Engine) EraStatus(ctx context.Context) (EraStatus, error) {
	store, err := e.readStore()
	if err != nil {
		return EraStatus{}, err
	}
	hs, err := store.Halving(ctx)
	if err != nil {
		return EraStatus{}, err
	}
	era := halving.Era(hs.Counter, hs.GamesPerEra)
	return EraStatus{
		Era:         era,
		Multiplier:  halving.EmissionMultiplier(era),
		Counter:     hs.Counter,
		GamesPerEra: hs.GamesPerEra,
		Enabled:     hs.Enabled,
		Genesis:     hs.Genesis,
	}, nil
}

// Splits returns the active weighting component percentages.
func (e *Engine) Splits() weighting.Splits {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.calc == nil {
		return e.splits
	}
	return e.calc.Splits()
}

// Stats returns engine statistics for monitoring.
func (e *Engine) Stats(ctx context.Context) map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stats := map[string]any{
		"started":          e.started,
		"min_participants": e.minParticipants,
		"max_participants": e.maxParticipants,
		"operators":        len(e.operators),
	}
	if e.started {
		games := e.store.GameCount(ctx)
		stats["games"] = games
		stats["command_log_depth"] = e.log.Len()
		metrics.UpdateGamesTotal(games)
	}
	return stats
}
