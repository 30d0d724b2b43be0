package service

import (
	"context"
	"testing"
	"time"

	bookingdomain "github.com/hanapark/hanapark/internal/booking/domain"
	"github.com/hanapark/hanapark/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollBackoffScheduleUntilTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment, booking, _ := f.pendingPayment(t)

	f.gw.queue(
		chargeResult{status: "pending"},
		chargeResult{status: "pending"},
		chargeResult{status: "pending"},
		chargeResult{status: "pending"},
		chargeResult{status: "pending"},
		chargeResult{status: "failed"},
	)

	status, err := f.svc.PollUntilTerminal(ctx, payment.ReferenceNo, 20)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, status)

	// Exponential backoff between the six attempts: 1s, 2s, 4s, 8s, 16s.
	assert.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
	}, f.clk.Sleeps())

	// The terminal poll result went through reconciliation.
	got, err := f.svc.GetByReference(ctx, payment.ReferenceNo)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, got.Status)

	updated, err := f.bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, bookingdomain.BookingStatusCancelled, updated.Status)
}

func TestPollBackoffIsCapped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment, _, _ := f.pendingPayment(t)

	// Fake gateway answers pending forever once the queue is empty.
	_, err := f.svc.PollUntilTerminal(ctx, payment.ReferenceNo, 8)
	assert.ErrorIs(t, err, domain.ErrPollTimeout)

	assert.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}, f.clk.Sleeps())

	// Exhaustion leaves the payment untouched.
	got, err := f.svc.GetByReference(ctx, payment.ReferenceNo)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, got.Status)
}

func TestPollTransientErrorsRetryOnFixedDelay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment, booking, _ := f.pendingPayment(t)

	f.gw.queue(
		chargeResult{err: domain.ErrGatewayUnavailable},
		chargeResult{err: domain.ErrGatewayUnavailable},
		chargeResult{status: "paid"},
	)

	status, err := f.svc.PollUntilTerminal(ctx, payment.ReferenceNo, 20)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSucceeded, status)

	assert.Equal(t, []time.Duration{
		5 * time.Second,
		5 * time.Second,
	}, f.clk.Sleeps())

	updated, err := f.bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, bookingdomain.BookingStatusConfirmed, updated.Status)
}

func TestPollTransientErrorsDoNotAdvanceBackoff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment, _, _ := f.pendingPayment(t)

	f.gw.queue(
		chargeResult{err: domain.ErrGatewayUnavailable},
		chargeResult{err: domain.ErrGatewayUnavailable},
		chargeResult{status: "pending"},
		chargeResult{status: "pending"},
		chargeResult{status: "paid"},
	)

	status, err := f.svc.PollUntilTerminal(ctx, payment.ReferenceNo, 20)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSucceeded, status)

	// The exponential schedule starts at 2^0 once PENDING responses resume;
	// transient retries only spend the fixed delay.
	assert.Equal(t, []time.Duration{
		5 * time.Second,
		5 * time.Second,
		1 * time.Second,
		2 * time.Second,
	}, f.clk.Sleeps())
}

func TestPollTransientErrorsCountTowardAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment, _, _ := f.pendingPayment(t)

	f.gw.queue(
		chargeResult{err: domain.ErrGatewayUnavailable},
		chargeResult{err: domain.ErrGatewayUnavailable},
		chargeResult{err: domain.ErrGatewayUnavailable},
	)

	_, err := f.svc.PollUntilTerminal(ctx, payment.ReferenceNo, 3)
	assert.ErrorIs(t, err, domain.ErrPollTimeout)
	assert.Equal(t, 3, f.gw.getCalls)
}

func TestPollUnknownReference(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PollUntilTerminal(context.Background(), "HP-NOPE", 3)
	assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
}

func TestPollTerminalPaymentReturnsImmediately(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment, _, _ := f.pendingPayment(t)

	_, err := f.svc.Reconcile(ctx, domain.ReconcileInput{
		Source:     domain.SourcePoll,
		ExternalID: *payment.ExternalID,
		Status:     domain.PaymentStatusSucceeded,
	})
	require.NoError(t, err)

	status, err := f.svc.PollUntilTerminal(ctx, payment.ReferenceNo, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSucceeded, status)
	assert.Zero(t, f.gw.getCalls)
}
