package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

type inferenceWebhookPayload struct {
	ID     string `json:"id"` // provider job id, informational
	Status string `json:"status"`
	Output string `json:"output"`
	Error  string `json:"error"`
}

// InferenceWebhook settles a prediction when the collaborator reports the
// outcome. The URL carries the prediction id and its per-job token; the token
// is what authenticates the caller. Redeliveries of a settled prediction are
// acknowledged without effect.
func (a *App) InferenceWebhook(w http.ResponseWriter, r *http.Request) {
	predictionID := r.URL.Query().Get("predictionId")
	token := r.URL.Query().Get("token")
	if predictionID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "predictionId required")
		return
	}

	row := a.SQL.QueryRow(r.Context(), sqlinline.QSelectPredictionForWebhook, predictionID)
	var (
		id, userID, status, storedToken string
		creditCost                      int
	)
	if err := row.Scan(&id, &userID, &status, &storedToken, &creditCost); err != nil {
		if infra.IsNoRows(err) {
			a.error(w, http.StatusNotFound, "not_found", "prediction not found")
			return
		}
		a.Logger.Error().Err(err).Str("prediction_id", predictionID).Msg("load prediction for webhook")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load prediction")
		return
	}
	if subtle.ConstantTimeCompare([]byte(storedToken), []byte(token)) != 1 {
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid callback token")
		return
	}
	if domain.PredictionStatus(status).Terminal() {
		a.json(w, http.StatusOK, map[string]any{"success": true, "duplicate": true})
		return
	}

	var payload inferenceWebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	nextStatus := domain.PredictionStatusFailed
	var resultArg, errArg any
	if strings.EqualFold(payload.Status, "succeeded") || strings.EqualFold(payload.Status, "completed") {
		nextStatus = domain.PredictionStatusCompleted
		if payload.Output != "" {
			resultArg = payload.Output
		}
	} else {
		message := payload.Error
		if message == "" {
			message = "inference run failed"
		}
		errArg = message
	}

	updateRow := a.SQL.QueryRow(r.Context(), sqlinline.QCompletePrediction, predictionID, string(nextStatus), resultArg, errArg)
	var updatedID string
	if err := updateRow.Scan(&updatedID); err != nil {
		if infra.IsNoRows(err) {
			// Lost the race with another delivery or the sweeper.
			a.json(w, http.StatusOK, map[string]any{"success": true, "duplicate": true})
			return
		}
		a.Logger.Error().Err(err).Str("prediction_id", predictionID).Msg("settle prediction failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update prediction")
		return
	}

	a.Logger.Info().
		Str("prediction_id", predictionID).
		Str("status", string(nextStatus)).
		Msg("prediction settled")
	a.json(w, http.StatusOK, map[string]any{"success": true, "status": string(nextStatus)})
}
