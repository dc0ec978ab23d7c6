// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/WGlynn/divvy/internal/domain/fairness"
	"github.com/WGlynn/divvy/internal/domain/model"
)

// FairnessHandler exposes the public audit functions. Anyone may call them;
// a failing check is a correct negative answer, not an error.
type FairnessHandler struct {
	deps Dependencies
}

// NewFairnessHandler creates a new fairness handler.
func NewFairnessHandler(deps Dependencies) *FairnessHandler {
	return &FairnessHandler{deps: deps}
}

// fairnessResponse renders a fairness report with decimal-string numbers,
// since deviations can exceed 64 bits.
type fairnessResponse struct {
	Fair      bool   `json:"fair"`
	Deviation string `json:"deviation"`
	Tolerance string `json:"tolerance"`
}

func renderReport(report fairness.Report) fairnessResponse {
	return fairnessResponse{
		Fair:      report.Fair,
		Deviation: report.DeviationString(),
		Tolerance: report.ToleranceString(),
	}
}

// HandlePairwise handles GET /fairness/pairwise?game=&a=&b=.
func (h *FairnessHandler) HandlePairwise(w http.ResponseWriter, r *http.Request) {
	const op = "api.fairness_pairwise"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	gameID, a, b := q.Get("game"), q.Get("a"), q.Get("b")
	if gameID == "" || a == "" || b == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	report, err := h.deps.CheckPairwise(r.Context(), gameID, model.AccountID(a), model.AccountID(b))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderReport(report))
}

// HandleTimeNeutrality handles GET /fairness/time-neutrality?a=&b=&account=.
func (h *FairnessHandler) HandleTimeNeutrality(w http.ResponseWriter, r *http.Request) {
	const op = "api.fairness_time_neutrality"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	gameA, gameB, account := q.Get("a"), q.Get("b"), q.Get("account")
	if gameA == "" || gameB == "" || account == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	report, err := h.deps.CheckTimeNeutrality(r.Context(), gameA, gameB, model.AccountID(account))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderReport(report))
}
