// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"

	"github.com/WGlynn/divvy/internal/domain/scarcity"
)

// ScarcityHandler exposes the stateless scarcity scorer for the trading
// engine to call while assembling participant records.
type ScarcityHandler struct{}

// NewScarcityHandler creates a new scarcity handler.
func NewScarcityHandler() *ScarcityHandler {
	return &ScarcityHandler{}
}

type scarcityResponse struct {
	ScoreBPS uint64 `json:"score_bps"`
}

// HandleScore handles GET /scarcity?buy=&sell=&side=&volume=.
func (h *ScarcityHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.scarcity"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()

	buy, err := strconv.ParseUint(q.Get("buy"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	sell, err := strconv.ParseUint(q.Get("sell"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	volume, err := strconv.ParseUint(q.Get("volume"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	side, err := scarcity.ParseSide(q.Get("side"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	writeJSON(w, http.StatusOK, scarcityResponse{ScoreBPS: scarcity.Score(buy, sell, side, volume)})
}
