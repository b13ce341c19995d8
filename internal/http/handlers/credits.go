package handlers

import (
	"encoding/json"
	"net/http"
)

// Credit bundles purchasable in the app. Amounts mirror the store
// products; payment validation happens upstream of this API.
var creditBundles = map[string]int{
	"starter": 9000,
	"pro":     24000,
	"studio":  50000,
}

type purchaseRequest struct {
	Bundle string `json:"bundle"`
}

type balanceResponse struct {
	Balance int `json:"balance"`
}

func (a *App) Credits(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, balanceResponse{Balance: a.Ledger.Balance()})
}

func (a *App) CreditsPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	amount, ok := creditBundles[req.Bundle]
	if !ok {
		a.error(w, http.StatusBadRequest, "unknown_bundle", "unknown credit bundle")
		return
	}
	if err := a.Ledger.Add(r.Context(), amount); err != nil {
		a.Logger.Error().Err(err).Str("bundle", req.Bundle).Msg("credit purchase failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to apply purchase")
		return
	}
	a.json(w, http.StatusOK, balanceResponse{Balance: a.Ledger.Balance()})
}
