package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByReference(ctx context.Context, db *gorm.DB, referenceNo string) (*Payment, error)
	// The ForUpdate variants take a row lock where the dialect supports it and
	// must run inside a transaction.
	FindByReferenceForUpdate(ctx context.Context, db *gorm.DB, referenceNo string) (*Payment, error)
	FindByExternalIDForUpdate(ctx context.Context, db *gorm.DB, externalID string) (*Payment, error)
	FindByBookingID(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*Payment, error)
	UpdateSettlement(ctx context.Context, db *gorm.DB, payment *Payment) error
	// CancelPendingByBookingID flips a PENDING payment on the booking to
	// CANCELLED and reports how many rows changed.
	CancelPendingByBookingID(ctx context.Context, db *gorm.DB, bookingID snowflake.ID, now time.Time) (int64, error)
	// InsertEventOnce records a webhook event, returning false when the
	// event_id was already present.
	InsertEventOnce(ctx context.Context, db *gorm.DB, event *WebhookEvent) (bool, error)
	MarkEventProcessed(ctx context.Context, db *gorm.DB, eventID string, now time.Time) error
}
