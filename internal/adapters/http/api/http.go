// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/WGlynn/divvy/internal/adapters/ledger"
	"github.com/WGlynn/divvy/internal/adapters/repository"
	"github.com/WGlynn/divvy/internal/app"
	"github.com/WGlynn/divvy/internal/domain/fairness"
	"github.com/WGlynn/divvy/internal/domain/model"
)

// accountHeader carries the caller identity. Mutating routes require it;
// the engine decides whether that identity is authorized.
const accountHeader = "X-Account"

// Dependencies bundles the engine operations the handlers need. An
// interface keeps the handler layer loosely coupled to the engine package.
type Dependencies interface {
	CreateGame(ctx context.Context, caller model.AccountID, p app.CreateGameParams) error
	SettleGame(ctx context.Context, caller model.AccountID, gameID string) error
	Claim(ctx context.Context, caller model.AccountID, gameID string) error
	SetQualityWeight(ctx context.Context, caller, account model.AccountID, qw model.QualityWeight) error
	SetHalvingConfig(ctx context.Context, caller model.AccountID, gamesPerEra uint64, enabled bool) error
	SetParticipantBounds(ctx context.Context, caller model.AccountID, minCount, maxCount int) error
	SetOperators(ctx context.Context, caller model.AccountID, accounts []model.AccountID) error

	Game(ctx context.Context, id string) (model.Game, error)
	Allocation(ctx context.Context, id string, account model.AccountID) (model.Allocation, error)
	Balances(ctx context.Context, account model.AccountID) (map[model.AssetID]uint64, error)
	QualityWeight(ctx context.Context, account model.AccountID) (model.QualityWeight, bool, error)
	CheckPairwise(ctx context.Context, gameID string, a, b model.AccountID) (fairness.Report, error)
	CheckTimeNeutrality(ctx context.Context, gameA, gameB string, account model.AccountID) (fairness.Report, error)
	EraStatus(ctx context.Context) (app.EraStatus, error)
}

// StatsProvider exposes engine statistics for the stats endpoint.
type StatsProvider interface {
	Stats(ctx context.Context) map[string]any
}

// Server wires HTTP routes for the engine API.
type Server struct {
	gamesHandler    *GamesHandler
	fairnessHandler *FairnessHandler
	scarcityHandler *ScarcityHandler
	adminHandler    *AdminHandler
	accountsHandler *AccountsHandler
	eraHandler      *EraHandler
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
}

// NewServer creates the API server with all handlers.
func NewServer(deps Dependencies, stats StatsProvider) *Server {
	return &Server{
		gamesHandler:    NewGamesHandler(deps),
		fairnessHandler: NewFairnessHandler(deps),
		scarcityHandler: NewScarcityHandler(),
		adminHandler:    NewAdminHandler(deps),
		accountsHandler: NewAccountsHandler(deps),
		eraHandler:      NewEraHandler(deps),
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(stats),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/era", MetricsMiddleware(s.eraHandler.HandleGetEra, "era"))
	mux.HandleFunc("/games", MetricsMiddleware(s.gamesHandler.HandleCreateGame, "games"))
	mux.HandleFunc("/games/", MetricsMiddleware(s.gamesHandler.HandleGameSubroutes, "games"))
	mux.HandleFunc("/fairness/pairwise", MetricsMiddleware(s.fairnessHandler.HandlePairwise, "fairness_pairwise"))
	mux.HandleFunc("/fairness/time-neutrality", MetricsMiddleware(s.fairnessHandler.HandleTimeNeutrality, "fairness_time_neutrality"))
	mux.HandleFunc("/scarcity", MetricsMiddleware(s.scarcityHandler.HandleScore, "scarcity"))
	mux.HandleFunc("/accounts/", MetricsMiddleware(s.accountsHandler.HandleBalances, "accounts"))
	mux.HandleFunc("/quality-weights/", MetricsMiddleware(s.adminHandler.HandleQualityWeight, "quality_weights"))
	mux.HandleFunc("/config/halving", MetricsMiddleware(s.adminHandler.HandleHalvingConfig, "config_halving"))
	mux.HandleFunc("/config/bounds", MetricsMiddleware(s.adminHandler.HandleBoundsConfig, "config_bounds"))
	mux.HandleFunc("/config/operators", MetricsMiddleware(s.adminHandler.HandleOperatorsConfig, "config_operators"))
}

// caller extracts the caller identity header.
func caller(r *http.Request) model.AccountID {
	return model.AccountID(r.Header.Get(accountHeader))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ackResponse struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeEngineError maps engine error kinds onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrGameNotFound),
		errors.Is(err, repository.ErrUnknownParticipant),
		errors.Is(err, fairness.ErrUnknownParticipant):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrDuplicateGame),
		errors.Is(err, repository.ErrAlreadySettled),
		errors.Is(err, repository.ErrNotSettled),
		errors.Is(err, repository.ErrAlreadyClaimed):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, app.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "unauthorized", err)
	case errors.Is(err, app.ErrZeroTotalWeight),
		errors.Is(err, app.ErrValueExhausted):
		writeError(w, http.StatusUnprocessableEntity, "unprocessable", err)
	case errors.Is(err, ledger.ErrClosed),
		errors.Is(err, app.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	case errors.Is(err, app.ErrMissingGameID),
		errors.Is(err, app.ErrZeroValue),
		errors.Is(err, app.ErrMissingAsset),
		errors.Is(err, app.ErrParticipantBounds),
		errors.Is(err, app.ErrDuplicateParticipant),
		errors.Is(err, app.ErrInvalidBounds),
		errors.Is(err, app.ErrNoOperators),
		errors.Is(err, model.ErrEmptyAccount),
		errors.Is(err, model.ErrScoreOutOfRange),
		errors.Is(err, model.ErrUnknownTrack),
		errors.Is(err, fairness.ErrScheduledTrackAudit):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
