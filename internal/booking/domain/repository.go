package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, booking *Booking) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Booking, error)
	// FindByIDForUpdate takes a row lock when the dialect supports it; it must
	// be called inside a transaction.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Booking, error)
	// HasConflict reports whether any booking in the given statuses overlaps
	// [start, end) on the spot, excluding excludeID when non-zero.
	HasConflict(ctx context.Context, db *gorm.DB, spotID snowflake.ID, start, end time.Time, statuses []BookingStatus, excludeID snowflake.ID) (bool, error)
	UpdateLifecycle(ctx context.Context, db *gorm.DB, booking *Booking) error
	CompleteElapsed(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
}
