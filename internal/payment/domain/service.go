package domain

import (
	"context"
	"errors"
)

// ReconcileSource tags where a status report came from, for logs and metrics.
type ReconcileSource string

const (
	SourceWebhook ReconcileSource = "webhook"
	SourcePoll    ReconcileSource = "poll"
)

// ReconcileInput is a single gateway status report. Webhooks carry an EventID
// and ExternalID; polls carry a ReferenceNo and no EventID.
type ReconcileInput struct {
	Source      ReconcileSource
	EventID     string
	EventType   string
	ReferenceNo string
	ExternalID  string
	Status      PaymentStatus
	RawPayload  []byte
}

type ReconcileOutcome string

const (
	// OutcomeApplied means the payment status actually changed.
	OutcomeApplied ReconcileOutcome = "applied"
	// OutcomeDuplicate means the event id was already recorded; nothing ran.
	OutcomeDuplicate ReconcileOutcome = "duplicate"
	// OutcomeNoop means the payment was already in the reported (or a
	// terminal) status.
	OutcomeNoop ReconcileOutcome = "noop"
	// OutcomeUnmatched means no payment row matched the report. The event id
	// is left unrecorded so a redelivery can apply once the payment exists;
	// the caller still acknowledges.
	OutcomeUnmatched ReconcileOutcome = "unmatched"
)

type ReconcileResult struct {
	Outcome ReconcileOutcome
	Payment *Payment
}

type Service interface {
	// Initiate creates the gateway charge for a PENDING booking and persists
	// the payment row. One payment per booking.
	Initiate(ctx context.Context, bookingID string, requesterID string) (Payment, error)
	// Reconcile applies one status report idempotently and drives the booking
	// lifecycle. It never returns an error for reports that merely do not
	// match anything; those come back as OutcomeUnmatched.
	Reconcile(ctx context.Context, in ReconcileInput) (ReconcileResult, error)
	// PollUntilTerminal drives the status poller until the payment reaches a
	// terminal status or attempts run out (ErrPollTimeout, state unchanged).
	PollUntilTerminal(ctx context.Context, referenceNo string, maxAttempts int) (PaymentStatus, error)
	GetByReference(ctx context.Context, referenceNo string) (*Payment, error)
}

var (
	ErrPaymentNotFound    = errors.New("payment_not_found")
	ErrPaymentExists      = errors.New("payment_exists")
	ErrBookingNotPayable  = errors.New("booking_not_payable")
	ErrPollTimeout        = errors.New("poll_timeout")
	ErrGatewayUnavailable = errors.New("gateway_unavailable")
	ErrInvalidReference   = errors.New("invalid_reference")
)
