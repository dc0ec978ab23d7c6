// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/WGlynn/divvy/internal/domain/model"
)

// AdminHandler handles authorized configuration and quality-weight updates.
type AdminHandler struct {
	deps Dependencies
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps Dependencies) *AdminHandler {
	return &AdminHandler{deps: deps}
}

type qualityWeightRequest struct {
	ActivityBPS   uint64 `json:"activity_bps"`
	ReputationBPS uint64 `json:"reputation_bps"`
	EconomicBPS   uint64 `json:"economic_bps"`
}

// HandleQualityWeight handles PUT and GET /quality-weights/{account}.
func (h *AdminHandler) HandleQualityWeight(w http.ResponseWriter, r *http.Request) {
	const op = "api.quality_weight"
	account := strings.TrimPrefix(r.URL.Path, "/quality-weights/")
	if account == "" || strings.Contains(account, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch r.Method {
	case http.MethodGet:
		qw, ok, err := h.deps.QualityWeight(r.Context(), model.AccountID(account))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrBadRequest))
			return
		}
		writeJSON(w, http.StatusOK, qw)
	case http.MethodPut:
		who := caller(r)
		if who == "" {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrMissingAccount))
			return
		}
		var req qualityWeightRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		err := h.deps.SetQualityWeight(r.Context(), who, model.AccountID(account), model.QualityWeight{
			ActivityBPS:   req.ActivityBPS,
			ReputationBPS: req.ReputationBPS,
			EconomicBPS:   req.EconomicBPS,
		})
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ackResponse{Status: "updated"})
	default:
		http.NotFound(w, r)
	}
}

type halvingConfigRequest struct {
	GamesPerEra uint64 `json:"games_per_era"`
	Enabled     bool   `json:"enabled"`
}

// HandleHalvingConfig handles PUT /config/halving.
func (h *AdminHandler) HandleHalvingConfig(w http.ResponseWriter, r *http.Request) {
	const op = "api.config_halving"
	if r.Method != http.MethodPut {
		http.NotFound(w, r)
		return
	}
	who := caller(r)
	if who == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrMissingAccount))
		return
	}
	var req halvingConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.SetHalvingConfig(r.Context(), who, req.GamesPerEra, req.Enabled); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "updated"})
}

type boundsConfigRequest struct {
	MinParticipants int `json:"min_participants"`
	MaxParticipants int `json:"max_participants"`
}

// HandleBoundsConfig handles PUT /config/bounds.
func (h *AdminHandler) HandleBoundsConfig(w http.ResponseWriter, r *http.Request) {
	const op = "api.config_bounds"
	if r.Method != http.MethodPut {
		http.NotFound(w, r)
		return
	}
	who := caller(r)
	if who == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrMissingAccount))
		return
	}
	var req boundsConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.SetParticipantBounds(r.Context(), who, req.MinParticipants, req.MaxParticipants); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "updated"})
}

type operatorsConfigRequest struct {
	Operators []string `json:"operators"`
}

// HandleOperatorsConfig handles PUT /config/operators.
func (h *AdminHandler) HandleOperatorsConfig(w http.ResponseWriter, r *http.Request) {
	const op = "api.config_operators"
	if r.Method != http.MethodPut {
		http.NotFound(w, r)
		return
	}
	who := caller(r)
	if who == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrMissingAccount))
		return
	}
	var req operatorsConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	accounts := make([]model.AccountID, len(req.Operators))
	for i, o := range req.Operators {
		accounts[i] = model.AccountID(o)
	}
	if err := h.deps.SetOperators(r.Context(), who, accounts); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "updated"})
}
