// Package gateway abstracts the payment provider. The service layer only ever
// sees Charge values and raw provider statuses; mapping onto our status
// vocabulary happens in the payment domain.
package gateway

import "context"

type CreateChargeRequest struct {
	ReferenceNo string
	Amount      int64
	Currency    string
	Description string
}

// Charge is the provider's view of a payment.
type Charge struct {
	ExternalID  string
	CheckoutURL string
	Status      string
}

type Gateway interface {
	// CreateCharge registers the payment with the provider and returns its
	// external id and checkout URL.
	CreateCharge(ctx context.Context, req CreateChargeRequest) (Charge, error)
	// GetCharge fetches the provider's current view; the Status field is the
	// provider's raw vocabulary.
	GetCharge(ctx context.Context, externalID string) (Charge, error)
}
