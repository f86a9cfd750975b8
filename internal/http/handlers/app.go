package handlers

import (
	"encoding/json"
	"net/http"

	"server/internal/credit"
	"server/internal/domain"
	"server/internal/infra"
	"server/internal/middleware"
	"server/internal/payments"
	"server/internal/providers/inference"

	"github.com/rs/zerolog"
)

// App bundles the dependencies every handler needs. It is assembled once in
// main and shared across requests.
type App struct {
	Config    *infra.Config
	Logger    zerolog.Logger
	SQL       infra.SQLExecutor
	Ledger    *credit.Ledger
	Inference inference.Submitter
	Payments  payments.API
	Models    map[string]domain.ModelSpec
	Products  map[string]payments.Product
	Country   middleware.CountryLookup
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]errorBody{"error": {Code: errCode, Message: message}})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
