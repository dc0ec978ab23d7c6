// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// EraHandler handles halving clock queries.
type EraHandler struct {
	deps Dependencies
}

// NewEraHandler creates a new era handler.
func NewEraHandler(deps Dependencies) *EraHandler {
	return &EraHandler{deps: deps}
}

// HandleGetEra handles GET /era.
func (h *EraHandler) HandleGetEra(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	status, err := h.deps.EraStatus(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
