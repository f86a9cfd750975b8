package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"server/internal/middleware"
	"server/internal/payments"
	"server/internal/sqlinline"
)

type checkoutCreateRequest struct {
	ProductID    string `json:"product_id"`
	SuccessURL   string `json:"success_url"`
	DiscountCode string `json:"discount_code"`
}

// CheckoutCreate opens a checkout with the payment collaborator and records a
// PENDING session keyed by the provider's checkout id. The webhook settles it.
func (a *App) CheckoutCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req checkoutCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	product, ok := a.Products[req.ProductID]
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown product")
		return
	}
	successURL := strings.TrimSpace(req.SuccessURL)
	if successURL == "" {
		successURL = a.Config.PublicBaseURL + "/checkout/success"
	}

	checkout, err := a.Payments.CreateCheckout(r.Context(), payments.CheckoutRequest{
		ProductID:    product.ID,
		DiscountCode: req.DiscountCode,
		SuccessURL:   successURL,
		Metadata:     map[string]string{"user_id": userID},
	})
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Str("product_id", product.ID).Msg("create checkout failed")
		a.error(w, http.StatusBadGateway, "provider_failure", "payment provider rejected the checkout")
		return
	}

	country := middleware.CountryFromContext(r.Context())
	row := a.SQL.QueryRow(r.Context(), sqlinline.QInsertCheckoutSession,
		checkout.ID, userID, string(product.Type), product.ID, product.AmountCents, product.Credits, country, successURL)
	var sessionID string
	if err := row.Scan(&sessionID); err != nil {
		a.Logger.Error().Err(err).Str("checkout_id", checkout.ID).Msg("record checkout session failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to record checkout")
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"id":  checkout.ID,
		"url": checkout.URL,
	})
}

// BillingPortal returns the provider-hosted billing portal URL for a customer.
func (a *App) BillingPortal(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	customerID := r.URL.Query().Get("customerId")
	if customerID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "customerId required")
		return
	}
	portalURL, err := a.Payments.BillingPortalURL(r.Context(), customerID)
	if err != nil {
		a.Logger.Error().Err(err).Str("customer_id", customerID).Msg("billing portal lookup failed")
		a.error(w, http.StatusBadGateway, "provider_failure", "payment provider unavailable")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"url": portalURL})
}
