package domain

import "time"

// CheckoutStatus enumerates checkout session states.
type CheckoutStatus string

const (
	CheckoutStatusPending CheckoutStatus = "PENDING"
	CheckoutStatusPaid    CheckoutStatus = "PAID"
	CheckoutStatusExpired CheckoutStatus = "EXPIRED"
	CheckoutStatusFailed  CheckoutStatus = "FAILED"
)

// CheckoutSessionType distinguishes one-off purchases from subscriptions.
type CheckoutSessionType string

const (
	CheckoutOneTime      CheckoutSessionType = "ONE_TIME"
	CheckoutSubscription CheckoutSessionType = "SUBSCRIPTION"
)

// CheckoutSession records an in-flight or completed purchase with the payment
// collaborator, keyed by the provider's checkout id. A session transitions
// PENDING -> PAID exactly once; duplicate webhook deliveries are no-ops.
type CheckoutSession struct {
	ID          string
	CheckoutID  string
	UserID      string
	SessionType CheckoutSessionType
	ProductID   string
	AmountCents int64
	Credits     int
	Status      CheckoutStatus
	Country     string
	PaidAt      *time.Time
	SuccessURL  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
