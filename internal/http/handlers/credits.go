package handlers

import (
	"net/http"
	"time"
)

type creditTransactionView struct {
	ID        string    `json:"id"`
	Amount    int       `json:"amount"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// CreditsSummary returns the caller's balance and newest ledger entries.
func (a *App) CreditsSummary(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	balance, err := a.Ledger.Balance(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("load balance failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load balance")
		return
	}
	transactions, err := a.Ledger.RecentTransactions(r.Context(), userID, 20)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("load transactions failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load transactions")
		return
	}
	items := make([]creditTransactionView, 0, len(transactions))
	for _, tx := range transactions {
		items = append(items, creditTransactionView{
			ID:        tx.ID,
			Amount:    tx.Type.SignedDelta(tx.Amount),
			Type:      string(tx.Type),
			CreatedAt: tx.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{
		"credits":      balance,
		"transactions": items,
	})
}
