package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/payments"
	"server/internal/sqlinline"
)

// PaymentWebhook reconciles payment-provider events against checkout sessions
// and the credit ledger. The raw body is verified against the shared webhook
// secret before anything is parsed; credits are granted at most once per
// checkout because the PENDING -> PAID transition is guarded.
func (a *App) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable body")
		return
	}
	signature := r.Header.Get(payments.SignatureHeader)
	if !payments.VerifySignature(a.Config.PaymentWebhookSecret, body, signature) {
		a.error(w, http.StatusUnauthorized, "invalid_signature", "webhook signature verification failed")
		return
	}

	var event payments.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	switch event.EventType {
	case payments.EventCheckoutCompleted:
		var checkout payments.CheckoutObject
		if err := json.Unmarshal(event.Object, &checkout); err != nil || checkout.ID == "" {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid checkout object")
			return
		}
		a.auditWebhookEvent(r.Context(), event.EventType, checkout.ID, body)
		a.settleCheckout(w, r, checkout.ID)

	case payments.EventSubscriptionCreated, payments.EventSubscriptionUpdated, payments.EventSubscriptionCanceled:
		var sub payments.SubscriptionObject
		if err := json.Unmarshal(event.Object, &sub); err != nil || sub.CheckoutID == "" {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid subscription object")
			return
		}
		a.auditWebhookEvent(r.Context(), event.EventType, sub.CheckoutID, body)
		a.settleSubscription(w, r, event.EventType, sub)

	default:
		a.auditWebhookEvent(r.Context(), event.EventType, "", body)
		a.Logger.Info().Str("event_type", event.EventType).Msg("ignoring unhandled payment event")
		a.json(w, http.StatusOK, map[string]any{"success": true, "ignored": true})
	}
}

func (a *App) settleCheckout(w http.ResponseWriter, r *http.Request, checkoutID string) {
	row := a.SQL.QueryRow(r.Context(), sqlinline.QMarkCheckoutPaid, checkoutID)
	var userID string
	var credits int
	if err := row.Scan(&userID, &credits); err != nil {
		if infra.IsNoRows(err) {
			a.resolveAlreadySettled(w, r, checkoutID)
			return
		}
		a.Logger.Error().Err(err).Str("checkout_id", checkoutID).Msg("mark checkout paid failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to settle checkout")
		return
	}
	if credits > 0 {
		if _, err := a.Ledger.Apply(r.Context(), userID, credits, domain.TransactionPurchase); err != nil {
			a.Logger.Error().Err(err).Str("checkout_id", checkoutID).Str("user_id", userID).Msg("credit grant failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to grant credits")
			return
		}
	}
	a.Logger.Info().
		Str("checkout_id", checkoutID).
		Str("user_id", userID).
		Int("credits", credits).
		Msg("checkout settled")
	a.json(w, http.StatusOK, map[string]any{"success": true})
}

// resolveAlreadySettled distinguishes "never heard of this checkout" from a
// redelivery for one we already processed.
func (a *App) resolveAlreadySettled(w http.ResponseWriter, r *http.Request, checkoutID string) {
	row := a.SQL.QueryRow(r.Context(), sqlinline.QSelectCheckoutSession, checkoutID)
	var session domain.CheckoutSession
	var sessionType, status string
	if err := row.Scan(&session.CheckoutID, &session.UserID, &sessionType, &session.ProductID, &session.AmountCents, &session.Credits, &status, &session.PaidAt); err != nil {
		if infra.IsNoRows(err) {
			a.error(w, http.StatusNotFound, "not_found", "unknown checkout")
			return
		}
		a.Logger.Error().Err(err).Str("checkout_id", checkoutID).Msg("load checkout session failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load checkout")
		return
	}
	if domain.CheckoutStatus(status) == domain.CheckoutStatusPaid {
		a.json(w, http.StatusOK, map[string]any{"success": true, "duplicate": true})
		return
	}
	// EXPIRED or FAILED: acknowledge so the provider stops retrying, but do
	// not grant anything.
	a.Logger.Warn().
		Str("checkout_id", checkoutID).
		Str("status", status).
		Msg("completed event for non-pending checkout ignored")
	a.json(w, http.StatusOK, map[string]any{"success": true, "ignored": true})
}

func (a *App) settleSubscription(w http.ResponseWriter, r *http.Request, eventType string, sub payments.SubscriptionObject) {
	active := sub.Status == payments.SubscriptionActive || sub.Status == payments.SubscriptionTrialing
	if eventType == payments.EventSubscriptionCanceled {
		active = false
	}

	if active {
		row := a.SQL.QueryRow(r.Context(), sqlinline.QMarkCheckoutPaid, sub.CheckoutID)
		var userID string
		var credits int
		if err := row.Scan(&userID, &credits); err != nil {
			if infra.IsNoRows(err) {
				a.resolveAlreadySettled(w, r, sub.CheckoutID)
				return
			}
			a.Logger.Error().Err(err).Str("checkout_id", sub.CheckoutID).Msg("mark subscription checkout paid failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to settle subscription")
			return
		}
		if credits > 0 {
			if _, err := a.Ledger.Apply(r.Context(), userID, credits, domain.TransactionPurchase); err != nil {
				a.Logger.Error().Err(err).Str("checkout_id", sub.CheckoutID).Msg("subscription credit grant failed")
				a.error(w, http.StatusInternalServerError, "internal", "failed to grant credits")
				return
			}
		}
		a.updateUserPlan(r.Context(), userID, domain.UserPlanPro)
		a.json(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	row := a.SQL.QueryRow(r.Context(), sqlinline.QUpdateCheckoutStatus, sub.CheckoutID, string(domain.CheckoutStatusExpired))
	var userID string
	if err := row.Scan(&userID); err != nil {
		if infra.IsNoRows(err) {
			a.error(w, http.StatusNotFound, "not_found", "unknown checkout")
			return
		}
		a.Logger.Error().Err(err).Str("checkout_id", sub.CheckoutID).Msg("expire subscription checkout failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update checkout")
		return
	}
	a.updateUserPlan(r.Context(), userID, domain.UserPlanFree)
	a.json(w, http.StatusOK, map[string]any{"success": true})
}

func (a *App) updateUserPlan(ctx context.Context, userID string, plan domain.UserPlan) {
	row := a.SQL.QueryRow(ctx, sqlinline.QUpdateUserPlan, userID, string(plan))
	var id string
	if err := row.Scan(&id); err != nil && !infra.IsNoRows(err) {
		a.Logger.Error().Err(err).Str("user_id", userID).Str("plan", string(plan)).Msg("update user plan failed")
	}
}

// auditWebhookEvent records the raw delivery for debugging. Best effort.
func (a *App) auditWebhookEvent(ctx context.Context, eventType, checkoutID string, body []byte) {
	if _, err := a.SQL.Exec(ctx, sqlinline.QInsertPaymentWebhookEvent, eventType, checkoutID, body); err != nil {
		a.Logger.Warn().Err(err).Str("event_type", eventType).Msg("audit webhook event failed")
	}
}
