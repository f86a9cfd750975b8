package payments

import "server/internal/domain"

// Product maps a purchasable product id to the credits it grants and the
// price charged by the payment collaborator.
type Product struct {
	ID          string
	Credits     int
	AmountCents int64
	Type        domain.CheckoutSessionType
}

// DefaultCatalog is the built-in product catalog. Product ids must match the
// ids configured on the payment collaborator's side.
func DefaultCatalog() map[string]Product {
	return map[string]Product{
		"credits-100": {
			ID:          "credits-100",
			Credits:     100,
			AmountCents: 990,
			Type:        domain.CheckoutOneTime,
		},
		"credits-550": {
			ID:          "credits-550",
			Credits:     550,
			AmountCents: 4490,
			Type:        domain.CheckoutOneTime,
		},
		"pro-monthly": {
			ID:          "pro-monthly",
			Credits:     500,
			AmountCents: 1490,
			Type:        domain.CheckoutSubscription,
		},
	}
}
