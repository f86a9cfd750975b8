package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/providers/inference"
	"server/internal/sqlinline"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type predictionCreateRequest struct {
	Model string                 `json:"model"`
	Input domain.PredictionInput `json:"input"`
}

type predictionCreateResponse struct {
	Success          bool   `json:"success"`
	ID               string `json:"id"`
	Status           string `json:"status"`
	RemainingCredits int    `json:"remaining_credits"`
}

// PredictionsCreate validates the payload, debits the model's credit cost,
// records the job, and hands it to the inference collaborator. The debit
// happens before the outbound call; any later failure refunds it.
func (a *App) PredictionsCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req predictionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	spec, ok := a.Models[req.Model]
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown model")
		return
	}
	if err := spec.ValidateInput(req.Input); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	remaining := 0
	if spec.CreditCost > 0 {
		balance, err := a.Ledger.Apply(r.Context(), userID, spec.CreditCost, domain.TransactionUsage)
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientCredits) {
				a.error(w, http.StatusPaymentRequired, "insufficient_credits", "not enough credits for this model")
				return
			}
			a.Logger.Error().Err(err).Str("user_id", userID).Msg("credit debit failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to reserve credits")
			return
		}
		remaining = balance
	}

	inputJSON, _ := json.Marshal(req.Input)
	callbackToken := uuid.NewString()
	row := a.SQL.QueryRow(r.Context(), sqlinline.QInsertPrediction, userID, req.Model, inputJSON, spec.CreditCost, callbackToken)
	var predictionID string
	if err := row.Scan(&predictionID); err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("insert prediction failed")
		a.refundCredits(r.Context(), userID, spec.CreditCost)
		a.error(w, http.StatusInternalServerError, "internal", "failed to record prediction")
		return
	}

	submission, err := a.Inference.Submit(r.Context(), inference.SubmitRequest{
		Model:      req.Model,
		Input:      inputJSON,
		WebhookURL: a.callbackURL(predictionID, callbackToken),
	})
	if err != nil {
		a.Logger.Error().Err(err).Str("prediction_id", predictionID).Msg("inference submit failed")
		a.rollbackSubmission(r.Context(), predictionID, userID, spec.CreditCost)
		a.error(w, http.StatusBadGateway, "provider_failure", "inference provider rejected the job")
		return
	}

	markRow := a.SQL.QueryRow(r.Context(), sqlinline.QMarkPredictionProcessing, predictionID, submission.ID)
	var markedID string
	if err := markRow.Scan(&markedID); err != nil && !infra.IsNoRows(err) {
		// Job is already running upstream; leave the row pending and let the
		// webhook or the sweeper settle it.
		a.Logger.Error().Err(err).Str("prediction_id", predictionID).Msg("mark processing failed")
	}

	a.json(w, http.StatusOK, predictionCreateResponse{
		Success:          true,
		ID:               predictionID,
		Status:           string(domain.PredictionStatusProcessing),
		RemainingCredits: remaining,
	})
}

func (a *App) callbackURL(predictionID, token string) string {
	return a.Config.PublicBaseURL + "/v1/predictions/webhook?predictionId=" +
		url.QueryEscape(predictionID) + "&token=" + url.QueryEscape(token)
}

func (a *App) rollbackSubmission(ctx context.Context, predictionID, userID string, cost int) {
	row := a.SQL.QueryRow(ctx, sqlinline.QFailPrediction, predictionID, "inference provider rejected the job")
	var id string
	if err := row.Scan(&id); err != nil {
		a.Logger.Error().Err(err).Str("prediction_id", predictionID).Msg("mark failed after submit error")
	}
	a.refundCredits(ctx, userID, cost)
}

func (a *App) refundCredits(ctx context.Context, userID string, cost int) {
	if cost <= 0 {
		return
	}
	if _, err := a.Ledger.Apply(ctx, userID, cost, domain.TransactionRefund); err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Int("amount", cost).Msg("refund failed")
	}
}

// PredictionStatus returns one prediction owned by the caller.
func (a *App) PredictionStatus(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	predictionID := chi.URLParam(r, "prediction_id")
	if predictionID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prediction_id required")
		return
	}
	row := a.SQL.QueryRow(r.Context(), sqlinline.QSelectPredictionForUser, predictionID, userID)
	var (
		p          domain.Prediction
		status     string
		providerID sql.NullString
		resultURL  sql.NullString
		errMsg     sql.NullString
		createdAt  time.Time
		updatedAt  time.Time
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Model, &status, &providerID, &resultURL, &errMsg, &p.InputJSON, &p.CreditCost, &createdAt, &updatedAt); err != nil {
		a.error(w, http.StatusNotFound, "not_found", "prediction not found")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"id":              p.ID,
		"model":           p.Model,
		"status":          status,
		"provider_job_id": providerID.String,
		"result_url":      resultURL.String,
		"error_message":   errMsg.String,
		"input":           json.RawMessage(p.InputJSON),
		"credit_cost":     p.CreditCost,
		"created_at":      createdAt,
		"updated_at":      updatedAt,
	})
}
