package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/hanapark/hanapark/internal/booking/domain"
	"github.com/hanapark/hanapark/internal/clock"
	"github.com/hanapark/hanapark/internal/config"
	notificationdomain "github.com/hanapark/hanapark/internal/notification/domain"
	"github.com/hanapark/hanapark/internal/payment/domain"
	"github.com/hanapark/hanapark/internal/payment/gateway"
	spotdomain "github.com/hanapark/hanapark/internal/spot/domain"
	"github.com/hanapark/hanapark/pkg/db"
	"github.com/hanapark/hanapark/pkg/telemetry"
	"github.com/hanapark/hanapark/pkg/telemetry/correlation"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Sleeper    clock.Sleeper
	Holder     *config.GatewayConfigHolder
	Repo       domain.Repository
	Bookings   bookingdomain.Repository
	Spots      spotdomain.Service
	Gateway    gateway.Gateway
	Dispatcher notificationdomain.Dispatcher
	Metrics    *telemetry.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	sleeper    clock.Sleeper
	holder     *config.GatewayConfigHolder
	repo       domain.Repository
	bookings   bookingdomain.Repository
	spots      spotdomain.Service
	gateway    gateway.Gateway
	dispatcher notificationdomain.Dispatcher
	metrics    *telemetry.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		sleeper:    p.Sleeper,
		holder:     p.Holder,
		repo:       p.Repo,
		bookings:   p.Bookings,
		spots:      p.Spots,
		gateway:    p.Gateway,
		dispatcher: p.Dispatcher,
		metrics:    p.Metrics,
	}
}

func (s *Service) Initiate(ctx context.Context, bookingID string, requesterID string) (domain.Payment, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(bookingID))
	if err != nil || id == 0 {
		return domain.Payment{}, bookingdomain.ErrInvalidBooking
	}
	requester, err := snowflake.ParseString(strings.TrimSpace(requesterID))
	if err != nil || requester == 0 {
		return domain.Payment{}, bookingdomain.ErrInvalidRequester
	}

	booking, err := s.bookings.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Payment{}, err
	}
	if booking == nil {
		return domain.Payment{}, bookingdomain.ErrBookingNotFound
	}
	if booking.RequesterID != requester {
		return domain.Payment{}, bookingdomain.ErrNotRequester
	}
	if booking.Status != bookingdomain.BookingStatusPending {
		return domain.Payment{}, domain.ErrBookingNotPayable
	}

	existing, err := s.repo.FindByBookingID(ctx, s.db, id)
	if err != nil {
		return domain.Payment{}, err
	}
	if existing != nil {
		return domain.Payment{}, domain.ErrPaymentExists
	}

	referenceNo := "HP-" + ulid.Make().String()
	charge, err := s.gateway.CreateCharge(ctx, gateway.CreateChargeRequest{
		ReferenceNo: referenceNo,
		Amount:      booking.TotalPrice,
		Currency:    booking.Currency,
		Description: "Parking booking " + booking.ID.String(),
	})
	if err != nil {
		return domain.Payment{}, err
	}

	now := s.clock.Now().UTC()
	payment := domain.Payment{
		ID:          s.genID.Generate(),
		BookingID:   id,
		ReferenceNo: referenceNo,
		Amount:      booking.TotalPrice,
		Currency:    booking.Currency,
		Status:      domain.PaymentStatusPending,
		CheckoutURL: charge.CheckoutURL,
		Metadata: datatypes.JSONMap{
			"booking_id": booking.ID.String(),
			"spot_id":    booking.SpotID.String(),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if charge.ExternalID != "" {
		externalID := charge.ExternalID
		payment.ExternalID = &externalID
	}

	if err := s.repo.Insert(ctx, s.db, &payment); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Payment{}, domain.ErrPaymentExists
		}
		return domain.Payment{}, err
	}

	s.log.Info("payment initiated",
		zap.String("payment_id", payment.ID.String()),
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference_no", referenceNo),
		zap.Int64("amount", payment.Amount),
	)
	return payment, nil
}

// Reconcile applies one gateway status report. The whole decision runs in a
// single transaction keyed on the payment row lock, so a webhook and a poll
// for the same payment serialize; whichever runs second observes the updated
// status and no-ops.
func (s *Service) Reconcile(ctx context.Context, in domain.ReconcileInput) (domain.ReconcileResult, error) {
	ctx, cid := correlation.EnsureCorrelationID(ctx)
	log := s.log.With(
		zap.String("correlation_id", cid),
		zap.String("source", string(in.Source)),
		zap.String("event_id", in.EventID),
		zap.String("reference_no", in.ReferenceNo),
		zap.String("external_id", in.ExternalID),
	)

	result := domain.ReconcileResult{}
	var pending []notificationdomain.Notification

	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now().UTC()

		payment, txErr := s.findForUpdate(ctx, tx, in)
		if txErr != nil {
			return txErr
		}
		if payment == nil {
			// Webhooks can race ahead of local payment creation. The event id
			// stays unrecorded so a redelivery after the row exists still
			// applies.
			log.Warn("no payment matches status report, acknowledging without recording")
			result.Outcome = domain.OutcomeUnmatched
			return nil
		}
		result.Payment = payment

		// Recorded only after the payment row lock is held, so concurrent
		// deliveries of the same event serialize on the row and the loser sees
		// the insert conflict.
		if in.EventID != "" {
			inserted, txErr := s.repo.InsertEventOnce(ctx, tx, &domain.WebhookEvent{
				ID:         s.genID.Generate(),
				EventID:    in.EventID,
				ExternalID: in.ExternalID,
				EventType:  in.EventType,
				Payload:    eventPayload(in.RawPayload),
				ReceivedAt: now,
			})
			if txErr != nil {
				return txErr
			}
			if !inserted {
				log.Info("webhook event already processed, skipping")
				result.Outcome = domain.OutcomeDuplicate
				return nil
			}
		}

		if payment.Status == in.Status || payment.Status.Terminal() {
			log.Info("payment status unchanged, no-op",
				zap.String("current_status", string(payment.Status)),
				zap.String("reported_status", string(in.Status)),
			)
			result.Outcome = domain.OutcomeNoop
			return s.markProcessed(ctx, tx, in.EventID, now)
		}

		payment.Status = in.Status
		payment.UpdatedAt = now
		switch in.Status {
		case domain.PaymentStatusSucceeded:
			payment.SucceededAt = &now
		case domain.PaymentStatusFailed:
			payment.FailedAt = &now
		}
		if payment.ExternalID == nil && in.ExternalID != "" {
			externalID := in.ExternalID
			payment.ExternalID = &externalID
		}
		if txErr := s.repo.UpdateSettlement(ctx, tx, payment); txErr != nil {
			return txErr
		}

		notifications, txErr := s.transitionBooking(ctx, tx, log, payment, now)
		if txErr != nil {
			return txErr
		}
		pending = notifications

		result.Outcome = domain.OutcomeApplied
		return s.markProcessed(ctx, tx, in.EventID, now)
	})
	if err != nil {
		return domain.ReconcileResult{}, err
	}

	s.metrics.RecordPaymentEvent(string(in.Source), reconcileMetricStatus(result.Outcome, in.Status))
	// Dispatch only after the transaction committed so a rollback can never
	// produce a notification.
	for _, n := range pending {
		s.dispatcher.Notify(ctx, n)
	}
	return result, nil
}

func (s *Service) findForUpdate(ctx context.Context, tx *gorm.DB, in domain.ReconcileInput) (*domain.Payment, error) {
	if in.ExternalID != "" {
		payment, err := s.repo.FindByExternalIDForUpdate(ctx, tx, in.ExternalID)
		if err != nil || payment != nil {
			return payment, err
		}
	}
	if in.ReferenceNo != "" {
		return s.repo.FindByReferenceForUpdate(ctx, tx, in.ReferenceNo)
	}
	return nil, nil
}

func (s *Service) transitionBooking(
	ctx context.Context,
	tx *gorm.DB,
	log *zap.Logger,
	payment *domain.Payment,
	now time.Time,
) ([]notificationdomain.Notification, error) {
	booking, err := s.bookings.FindByIDForUpdate(ctx, tx, payment.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		log.Warn("payment references missing booking",
			zap.String("booking_id", payment.BookingID.String()),
		)
		return nil, nil
	}
	if booking.Status.Terminal() {
		log.Info("booking already terminal, leaving untouched",
			zap.String("booking_id", booking.ID.String()),
			zap.String("booking_status", string(booking.Status)),
		)
		return nil, nil
	}

	var target bookingdomain.BookingStatus
	switch payment.Status {
	case domain.PaymentStatusSucceeded:
		target = bookingdomain.BookingStatusConfirmed
	case domain.PaymentStatusFailed, domain.PaymentStatusCancelled:
		target = bookingdomain.BookingStatusCancelled
	default:
		return nil, nil
	}

	if !bookingdomain.CanTransition(booking.Status, target) {
		log.Warn("booking transition not allowed, skipping",
			zap.String("booking_id", booking.ID.String()),
			zap.String("from", string(booking.Status)),
			zap.String("to", string(target)),
		)
		return nil, nil
	}

	booking.Status = target
	booking.UpdatedAt = now
	switch target {
	case bookingdomain.BookingStatusConfirmed:
		booking.ConfirmedAt = &now
	case bookingdomain.BookingStatusCancelled:
		booking.CancelledAt = &now
	}
	if err := s.bookings.UpdateLifecycle(ctx, tx, booking); err != nil {
		return nil, err
	}

	log.Info("booking transitioned by reconciler",
		zap.String("booking_id", booking.ID.String()),
		zap.String("booking_status", string(target)),
	)

	switch target {
	case bookingdomain.BookingStatusConfirmed:
		return s.confirmationNotifications(ctx, booking), nil
	case bookingdomain.BookingStatusCancelled:
		return []notificationdomain.Notification{{
			Recipient: booking.RequesterID,
			Role:      notificationdomain.RoleRequester,
			BookingID: booking.ID,
			Kind:      notificationdomain.KindBookingCancelled,
		}}, nil
	}
	return nil, nil
}

func (s *Service) confirmationNotifications(ctx context.Context, booking *bookingdomain.Booking) []notificationdomain.Notification {
	notifications := []notificationdomain.Notification{{
		Recipient: booking.RequesterID,
		Role:      notificationdomain.RoleRequester,
		BookingID: booking.ID,
		Kind:      notificationdomain.KindBookingConfirmed,
	}}
	spot, err := s.spots.GetByID(ctx, booking.SpotID)
	if err != nil || spot == nil {
		s.log.Warn("spot lookup failed for owner notification",
			zap.String("spot_id", booking.SpotID.String()),
			zap.Error(err),
		)
		return notifications
	}
	return append(notifications, notificationdomain.Notification{
		Recipient: spot.OwnerID,
		Role:      notificationdomain.RoleOwner,
		BookingID: booking.ID,
		Kind:      notificationdomain.KindBookingConfirmed,
	})
}

func (s *Service) markProcessed(ctx context.Context, tx *gorm.DB, eventID string, now time.Time) error {
	if eventID == "" {
		return nil
	}
	return s.repo.MarkEventProcessed(ctx, tx, eventID, now)
}

func (s *Service) GetByReference(ctx context.Context, referenceNo string) (*domain.Payment, error) {
	referenceNo = strings.TrimSpace(referenceNo)
	if referenceNo == "" {
		return nil, domain.ErrInvalidReference
	}
	return s.repo.FindByReference(ctx, s.db, referenceNo)
}

func eventPayload(raw []byte) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(raw)
}

func reconcileMetricStatus(outcome domain.ReconcileOutcome, status domain.PaymentStatus) string {
	if outcome == domain.OutcomeApplied {
		return string(status)
	}
	return string(outcome)
}
