package payments

import "encoding/json"

// Webhook event types delivered by the payment collaborator.
const (
	EventCheckoutCompleted    = "checkout.completed"
	EventSubscriptionCreated  = "subscription.created"
	EventSubscriptionUpdated  = "subscription.updated"
	EventSubscriptionCanceled = "subscription.cancelled"
)

// Provider-side subscription statuses.
const (
	SubscriptionActive    = "active"
	SubscriptionTrialing  = "trialing"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
)

// WebhookEvent is the outer envelope of every payment webhook delivery.
type WebhookEvent struct {
	EventType string          `json:"eventType"`
	Object    json.RawMessage `json:"object"`
}

// CheckoutObject is the payload of checkout.* events.
type CheckoutObject struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

// SubscriptionObject is the payload of subscription.* events. CheckoutID
// links the subscription back to the session that created it.
type SubscriptionObject struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	CheckoutID string `json:"checkout_id"`
	CustomerID string `json:"customer_id"`
}
