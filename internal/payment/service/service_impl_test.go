package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	bookingdomain "github.com/hanapark/hanapark/internal/booking/domain"
	bookingrepository "github.com/hanapark/hanapark/internal/booking/repository"
	bookingservice "github.com/hanapark/hanapark/internal/booking/service"
	"github.com/hanapark/hanapark/internal/clock"
	"github.com/hanapark/hanapark/internal/config"
	"github.com/hanapark/hanapark/internal/locking"
	notificationdomain "github.com/hanapark/hanapark/internal/notification/domain"
	"github.com/hanapark/hanapark/internal/payment/domain"
	"github.com/hanapark/hanapark/internal/payment/gateway"
	paymentrepository "github.com/hanapark/hanapark/internal/payment/repository"
	spotdomain "github.com/hanapark/hanapark/internal/spot/domain"
	spotrepository "github.com/hanapark/hanapark/internal/spot/repository"
	spotservice "github.com/hanapark/hanapark/internal/spot/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type chargeResult struct {
	status string
	err    error
}

type fakeGateway struct {
	mu        sync.Mutex
	responses []chargeResult
	getCalls  int
}

func (g *fakeGateway) CreateCharge(_ context.Context, req gateway.CreateChargeRequest) (gateway.Charge, error) {
	return gateway.Charge{
		ExternalID:  "link_" + req.ReferenceNo,
		CheckoutURL: "https://pay.test/" + req.ReferenceNo,
		Status:      "pending",
	}, nil
}

func (g *fakeGateway) GetCharge(_ context.Context, externalID string) (gateway.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.getCalls++

	if len(g.responses) == 0 {
		return gateway.Charge{ExternalID: externalID, Status: "pending"}, nil
	}
	next := g.responses[0]
	g.responses = g.responses[1:]
	if next.err != nil {
		return gateway.Charge{}, next.err
	}
	return gateway.Charge{ExternalID: externalID, Status: next.status}, nil
}

func (g *fakeGateway) queue(results ...chargeResult) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses = append(g.responses, results...)
}

type countingDispatcher struct {
	mu   sync.Mutex
	sent []notificationdomain.Notification
}

func (d *countingDispatcher) Notify(_ context.Context, n notificationdomain.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
}

func (d *countingDispatcher) notifications() []notificationdomain.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notificationdomain.Notification(nil), d.sent...)
}

type fixture struct {
	db         *gorm.DB
	node       *snowflake.Node
	clk        *clock.FakeClock
	gw         *fakeGateway
	dispatcher *countingDispatcher
	spots      spotdomain.Service
	bookings   bookingdomain.Service
	svc        domain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	// Tables created manually to match the production schema.
	db.Exec(`CREATE TABLE IF NOT EXISTS parking_spots (
		id BIGINT PRIMARY KEY,
		owner_id BIGINT NOT NULL,
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		price_per_hour BIGINT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'PHP',
		status TEXT NOT NULL DEFAULT 'PENDING',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	db.Exec(`CREATE TABLE IF NOT EXISTS bookings (
		id BIGINT PRIMARY KEY,
		spot_id BIGINT NOT NULL,
		requester_id BIGINT NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NOT NULL,
		total_price BIGINT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'PHP',
		status TEXT NOT NULL DEFAULT 'PENDING',
		confirmed_at TIMESTAMP,
		cancelled_at TIMESTAMP,
		completed_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	db.Exec(`CREATE TABLE IF NOT EXISTS payments (
		id BIGINT PRIMARY KEY,
		booking_id BIGINT NOT NULL,
		reference_no TEXT NOT NULL,
		external_id TEXT,
		amount BIGINT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'PHP',
		status TEXT NOT NULL DEFAULT 'PENDING',
		checkout_url TEXT NOT NULL DEFAULT '',
		metadata TEXT,
		succeeded_at TIMESTAMP,
		failed_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	db.Exec(`CREATE TABLE IF NOT EXISTS payment_webhook_events (
		id BIGINT PRIMARY KEY,
		event_id TEXT NOT NULL,
		external_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		received_at TIMESTAMP NOT NULL,
		processed_at TIMESTAMP
	)`)
	// SQLite requires an explicit UNIQUE index for ON CONFLICT to work.
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS ux_payment_webhook_events_event_id ON payment_webhook_events(event_id)")
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS ux_payments_booking ON payments(booking_id)")
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS ux_payments_reference ON payments(reference_no)")

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	spots := spotservice.NewService(spotservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: clk,
		Repo:  spotrepository.Provide(),
	})
	bookingRepo := bookingrepository.Provide()
	paymentRepo := paymentrepository.Provide()
	bookings := bookingservice.NewService(bookingservice.Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    clk,
		Repo:     bookingRepo,
		Spots:    spots,
		Payments: paymentRepo,
		Keys:     locking.NewKeyedMutex(),
	})

	gw := &fakeGateway{}
	dispatcher := &countingDispatcher{}

	svc := NewService(Params{
		DB:         db,
		Log:        log,
		GenID:      node,
		Clock:      clk,
		Sleeper:    clk,
		Holder:     config.NewGatewayConfigHolderFrom(config.DefaultGatewayConfig()),
		Repo:       paymentRepo,
		Bookings:   bookingRepo,
		Spots:      spots,
		Gateway:    gw,
		Dispatcher: dispatcher,
	})

	return &fixture{
		db:         db,
		node:       node,
		clk:        clk,
		gw:         gw,
		dispatcher: dispatcher,
		spots:      spots,
		bookings:   bookings,
		svc:        svc,
	}
}

// pendingPayment sets up an approved spot, a pending booking by a fresh
// requester, and an initiated payment for it.
func (f *fixture) pendingPayment(t *testing.T) (domain.Payment, bookingdomain.Booking, snowflake.ID) {
	t.Helper()
	ctx := context.Background()

	owner := f.node.Generate()
	spot, err := f.spots.Register(ctx, spotdomain.RegisterSpotRequest{
		OwnerID:      owner.String(),
		Name:         "QC Covered Slot " + f.node.Generate().String(),
		PricePerHour: 10000,
	})
	require.NoError(t, err)
	require.NoError(t, f.spots.Approve(ctx, spot.ID.String()))

	requester := f.node.Generate()
	booking, err := f.bookings.Create(ctx, bookingdomain.CreateBookingRequest{
		SpotID:      spot.ID.String(),
		RequesterID: requester.String(),
		StartTime:   time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	payment, err := f.svc.Initiate(ctx, booking.ID.String(), requester.String())
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusPending, payment.Status)
	require.NotNil(t, payment.ExternalID)

	return payment, booking, owner
}

func TestInitiatePayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment, booking, _ := f.pendingPayment(t)

	assert.Equal(t, booking.TotalPrice, payment.Amount)
	assert.Equal(t, int64(10000), payment.Amount) // one hour at PHP 100.00
	assert.Equal(t, "PHP", payment.Currency)
	assert.Contains(t, payment.CheckoutURL, payment.ReferenceNo)

	t.Run("second payment for same booking rejected", func(t *testing.T) {
		_, err := f.svc.Initiate(ctx, booking.ID.String(), booking.RequesterID.String())
		assert.ErrorIs(t, err, domain.ErrPaymentExists)
	})

	t.Run("missing booking", func(t *testing.T) {
		_, err := f.svc.Initiate(ctx, f.node.Generate().String(), booking.RequesterID.String())
		assert.ErrorIs(t, err, bookingdomain.ErrBookingNotFound)
	})
}

func TestReconcileSucceededConfirmsBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment, booking, owner := f.pendingPayment(t)

	result, err := f.svc.Reconcile(ctx, domain.ReconcileInput{
		Source:     domain.SourceWebhook,
		EventID:    "evt_001",
		EventType:  "payment.paid",
		ExternalID: *payment.ExternalID,
		Status:     domain.PaymentStatusSucceeded,
		RawPayload: []byte(`{"id":"evt_001"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, result.Outcome)

	got, err := f.svc.GetByReference(ctx, payment.ReferenceNo)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSucceeded, got.Status)
	assert.NotNil(t, got.SucceededAt)

	updated, err := f.bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, bookingdomain.BookingStatusConfirmed, updated.Status)
	assert.NotNil(t, updated.ConfirmedAt)

	sent := f.dispatcher.notifications()
	require.Len(t, sent, 2)
	recipients := map[snowflake.ID]notificationdomain.Role{}
	for _, n := range sent {
		assert.Equal(t, notificationdomain.KindBookingConfirmed, n.Kind)
		assert.Equal(t, booking.ID, n.BookingID)
		recipients[n.Recipient] = n.Role
	}
	assert.Equal(t, notificationdomain.RoleRequester, recipients[booking.RequesterID])
	assert.Equal(t, notificationdomain.RoleOwner, recipients[owner])
}

func TestReconcileDuplicateEventIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment, _, _ := f.pendingPayment(t)

	input := domain.ReconcileInput{
		Source:     domain.SourceWebhook,
		EventID:    "evt_dup",
		EventType:  "payment.paid",
		ExternalID: *payment.ExternalID,
		Status:     domain.PaymentStatusSucceeded,
	}

	first, err := f.svc.Reconcile(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, first.Outcome)

	second, err := f.svc.Reconcile(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeDuplicate, second.Outcome)

	// Replay delivered no second round of notifications.
	assert.Len(t, f.dispatcher.notifications(), 2)
}

func TestReconcileStatusUnchangedIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment, booking, _ := f.pendingPayment(t)

	_, err := f.svc.Reconcile(ctx, domain.ReconcileInput{
		Source:     domain.SourceWebhook,
		EventID:    "evt_a",
		ExternalID: *payment.ExternalID,
		Status:     domain.PaymentStatusSucceeded,
	})
	require.NoError(t, err)

	// A different event reporting an already-terminal payment must not touch
	// anything, including a late FAILED after SUCCEEDED.
	result, err := f.svc.Reconcile(ctx, domain.ReconcileInput{
		Source:     domain.SourceWebhook,
		EventID:    "evt_b",
		ExternalID: *payment.ExternalID,
		Status:     domain.PaymentStatusFailed,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNoop, result.Outcome)

	got, err := f.svc.GetByReference(ctx, payment.ReferenceNo)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSucceeded, got.Status)

	updated, err := f.bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, bookingdomain.BookingStatusConfirmed, updated.Status)
	assert.Len(t, f.dispatcher.notifications(), 2)
}

func TestReconcileFailedCancelsBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment, booking, _ := f.pendingPayment(t)

	result, err := f.svc.Reconcile(ctx, domain.ReconcileInput{
		Source:     domain.SourceWebhook,
		EventID:    "evt_fail",
		ExternalID: *payment.ExternalID,
		Status:     domain.PaymentStatusFailed,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, result.Outcome)

	got, err := f.svc.GetByReference(ctx, payment.ReferenceNo)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, got.Status)
	assert.NotNil(t, got.FailedAt)

	updated, err := f.bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, bookingdomain.BookingStatusCancelled, updated.Status)

	sent := f.dispatcher.notifications()
	require.Len(t, sent, 1)
	assert.Equal(t, notificationdomain.KindBookingCancelled, sent[0].Kind)
	assert.Equal(t, booking.RequesterID, sent[0].Recipient)
}

func TestReconcileUnmatchedPaymentIsAcknowledged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.Reconcile(ctx, domain.ReconcileInput{
		Source:     domain.SourceWebhook,
		EventID:    "evt_orphan",
		ExternalID: "link_unknown",
		Status:     domain.PaymentStatusSucceeded,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUnmatched, result.Outcome)
	assert.Nil(t, result.Payment)
	assert.Empty(t, f.dispatcher.notifications())
}

func TestReconcileEarlyWebhookAppliesOnRedelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := domain.ReconcileInput{
		Source:     domain.SourceWebhook,
		EventID:    "evt_race",
		EventType:  "payment.paid",
		ExternalID: "link_in_flight",
		Status:     domain.PaymentStatusSucceeded,
	}

	// The gateway can push the paid event before Initiate has inserted the
	// payment row; that delivery must not burn the event id.
	early, err := f.svc.Reconcile(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUnmatched, early.Outcome)

	// Initiate finishes and the row lands with the charge id the gateway
	// already reported on.
	payment, booking, _ := f.pendingPayment(t)
	require.NoError(t, f.db.Exec(
		"UPDATE payments SET external_id = ? WHERE id = ?",
		"link_in_flight", payment.ID,
	).Error)

	redelivered, err := f.svc.Reconcile(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, redelivered.Outcome)

	got, err := f.svc.GetByReference(ctx, payment.ReferenceNo)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSucceeded, got.Status)

	updated, err := f.bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, bookingdomain.BookingStatusConfirmed, updated.Status)
}

func TestReconcileSkipsTerminalBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment, booking, _ := f.pendingPayment(t)

	// Requester cancels while the charge is in flight; the booking cancel also
	// cancels the pending payment, so simulate the race by re-opening the
	// payment row only.
	require.NoError(t, f.bookings.Cancel(ctx, booking.ID.String(), booking.RequesterID.String()))
	require.NoError(t, f.db.Exec(
		"UPDATE payments SET status = ? WHERE id = ?",
		domain.PaymentStatusPending, payment.ID,
	).Error)

	result, err := f.svc.Reconcile(ctx, domain.ReconcileInput{
		Source:     domain.SourceWebhook,
		EventID:    "evt_late",
		ExternalID: *payment.ExternalID,
		Status:     domain.PaymentStatusSucceeded,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, result.Outcome)

	// Payment settles but the cancelled booking stays cancelled and nobody is
	// told their booking was confirmed.
	updated, err := f.bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, bookingdomain.BookingStatusCancelled, updated.Status)
	assert.Empty(t, f.dispatcher.notifications())
}
