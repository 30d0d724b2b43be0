package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/hanapark/hanapark/internal/payment/domain"
	"github.com/hanapark/hanapark/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const paymentColumns = `id, booking_id, reference_no, external_id, amount, currency, status,
	checkout_url, metadata, succeeded_at, failed_at, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, payment *domain.Payment) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, booking_id, reference_no, external_id, amount, currency, status,
			checkout_url, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.BookingID,
		payment.ReferenceNo,
		payment.ExternalID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.CheckoutURL,
		payment.Metadata,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
}

func (r *repo) FindByReference(ctx context.Context, tx *gorm.DB, referenceNo string) (*domain.Payment, error) {
	return r.findOne(ctx, tx, "reference_no = ?", referenceNo, "")
}

func (r *repo) FindByReferenceForUpdate(ctx context.Context, tx *gorm.DB, referenceNo string) (*domain.Payment, error) {
	return r.findOne(ctx, tx, "reference_no = ?", referenceNo, db.LockSuffix(tx))
}

func (r *repo) FindByExternalIDForUpdate(ctx context.Context, tx *gorm.DB, externalID string) (*domain.Payment, error) {
	return r.findOne(ctx, tx, "external_id = ?", externalID, db.LockSuffix(tx))
}

func (r *repo) FindByBookingID(ctx context.Context, tx *gorm.DB, bookingID snowflake.ID) (*domain.Payment, error) {
	return r.findOne(ctx, tx, "booking_id = ?", bookingID, "")
}

func (r *repo) findOne(ctx context.Context, tx *gorm.DB, where string, arg any, lock string) (*domain.Payment, error) {
	var item domain.Payment
	err := tx.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+`
		 FROM payments
		 WHERE `+where+`
		 LIMIT 1`+lock,
		arg,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) UpdateSettlement(ctx context.Context, tx *gorm.DB, payment *domain.Payment) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE payments
		 SET status = ?, external_id = ?, succeeded_at = ?, failed_at = ?, updated_at = ?
		 WHERE id = ?`,
		payment.Status,
		payment.ExternalID,
		payment.SucceededAt,
		payment.FailedAt,
		payment.UpdatedAt,
		payment.ID,
	).Error
}

func (r *repo) CancelPendingByBookingID(ctx context.Context, tx *gorm.DB, bookingID snowflake.ID, now time.Time) (int64, error) {
	res := tx.WithContext(ctx).Exec(
		`UPDATE payments
		 SET status = ?, updated_at = ?
		 WHERE booking_id = ? AND status = ?`,
		domain.PaymentStatusCancelled,
		now,
		bookingID,
		domain.PaymentStatusPending,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// InsertEventOnce relies on the unique event_id index: a conflicting insert
// affects zero rows, which signals a replayed webhook.
func (r *repo) InsertEventOnce(ctx context.Context, tx *gorm.DB, event *domain.WebhookEvent) (bool, error) {
	res := tx.WithContext(ctx).Exec(
		`INSERT INTO payment_webhook_events (
			id, event_id, external_id, event_type, payload, received_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (event_id) DO NOTHING`,
		event.ID,
		event.EventID,
		event.ExternalID,
		event.EventType,
		event.Payload,
		event.ReceivedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) MarkEventProcessed(ctx context.Context, tx *gorm.DB, eventID string, now time.Time) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE payment_webhook_events
		 SET processed_at = ?
		 WHERE event_id = ?`,
		now,
		eventID,
	).Error
}
