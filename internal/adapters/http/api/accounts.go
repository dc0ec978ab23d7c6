// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"

	"github.com/WGlynn/divvy/internal/domain/model"
)

// AccountsHandler handles account balance queries.
type AccountsHandler struct {
	deps Dependencies
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(deps Dependencies) *AccountsHandler {
	return &AccountsHandler{deps: deps}
}

type balancesResponse struct {
	Account  string            `json:"account"`
	Balances map[string]uint64 `json:"balances"`
}

// HandleBalances handles GET /accounts/{account}/balances.
func (h *AccountsHandler) HandleBalances(w http.ResponseWriter, r *http.Request) {
	const op = "api.balances"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/accounts/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "balances" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	account := model.AccountID(parts[0])

	balances, err := h.deps.Balances(r.Context(), account)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	out := make(map[string]uint64, len(balances))
	for asset, amount := range balances {
		out[string(asset)] = amount
	}
	writeJSON(w, http.StatusOK, balancesResponse{Account: string(account), Balances: out})
}
