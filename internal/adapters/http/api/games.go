// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/WGlynn/divvy/internal/app"
	"github.com/WGlynn/divvy/internal/domain/model"
)

// GamesHandler handles game lifecycle requests.
type GamesHandler struct {
	deps Dependencies
}

// NewGamesHandler creates a new games handler.
func NewGamesHandler(deps Dependencies) *GamesHandler {
	return &GamesHandler{deps: deps}
}

// createGameRequest mirrors the POST /games schema. An omitted track means
// time-neutral, the default entry point.
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

// gameResponse renders a stored game with its wire track name.
type gameResponse struct {
	ID           string              `json:"id"`
	TotalValue   uint64              `json:"total_value"`
	Asset        string              `json:"asset"`
	Track        string              `json:"track"`
	Settled      bool                `json:"settled"`
	Era          uint64              `json:"era"`
	Multiplier   uint64              `json:"multiplier"`
	Participants []model.Participant `json:"participants"`
}

// HandleCreateGame handles POST /games.
func (h *GamesHandler) HandleCreateGame(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_game"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	who := caller(r)
	if who == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrMissingAccount))
		return
	}
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	track, err := model.ParseTrack(req.Track)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	participants := make([]model.Participant, len(req.Participants))
	for i, p := range req.Participants {
		participants[i] = model.Participant{
			Account:      model.AccountID(p.Account),
			Direct:       p.Direct,
			TimeInPool:   p.TimeInPool,
			ScarcityBPS:  p.ScarcityBPS,
			StabilityBPS: p.StabilityBPS,
		}
	}

	err = h.deps.CreateGame(r.Context(), who, app.CreateGameParams{
		ID:           req.GameID,
		TotalValue:   req.TotalValue,
		Asset:        model.AssetID(req.Asset),
		Track:        track,
		Participants: participants,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ackResponse{Status: "created"})
}

// HandleGameSubroutes dispatches /games/{id}[/settle|/claims|/allocations/{account}].
func (h *GamesHandler) HandleGameSubroutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/games/")
	parts := strings.Split(rest, "/")
	if parts[0] == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	gameID := parts[0]

	switch {
	case len(parts) == 1:
		h.handleGetGame(w, r, gameID)
	case len(parts) == 2 && parts[1] == "settle":
		h.handleSettle(w, r, gameID)
	case len(parts) == 2 && parts[1] == "claims":
		h.handleClaim(w, r, gameID)
	case len(parts) == 3 && parts[1] == "allocations" && parts[2] != "":
		h.handleGetAllocation(w, r, gameID, model.AccountID(parts[2]))
	default:
		http.NotFound(w, r)
	}
}

func (h *GamesHandler) handleGetGame(w http.ResponseWriter, r *http.Request, gameID string) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	game, err := h.deps.Game(r.Context(), gameID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gameResponse{
		ID:           game.ID,
		TotalValue:   game.TotalValue,
		Asset:        string(game.Asset),
		Track:        game.Track.String(),
		Settled:      game.Settled,
		Era:          game.Era,
		Multiplier:   game.Multiplier,
		Participants: game.Participants,
	})
}

func (h *GamesHandler) handleSettle(w http.ResponseWriter, r *http.Request, gameID string) {
	const op = "api.settle_game"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	who := caller(r)
	if who == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrMissingAccount))
		return
	}
	if err := h.deps.SettleGame(r.Context(), who, gameID); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "settled"})
}

func (h *GamesHandler) handleClaim(w http.ResponseWriter, r *http.Request, gameID string) {
	const op = "api.claim"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	who := caller(r)
	if who == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrMissingAccount))
		return
	}
	if err := h.deps.Claim(r.Context(), who, gameID); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "claimed"})
}

func (h *GamesHandler) handleGetAllocation(w http.ResponseWriter, r *http.Request, gameID string, account model.AccountID) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	allocation, err := h.deps.Allocation(r.Context(), gameID, account)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, allocation)
}
