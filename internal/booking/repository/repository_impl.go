package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/hanapark/hanapark/internal/booking/domain"
	"github.com/hanapark/hanapark/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const bookingColumns = `id, spot_id, requester_id, start_time, end_time, total_price, currency,
	status, confirmed_at, cancelled_at, completed_at, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, booking *domain.Booking) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO bookings (
			id, spot_id, requester_id, start_time, end_time, total_price, currency,
			status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.ID,
		booking.SpotID,
		booking.RequesterID,
		booking.StartTime,
		booking.EndTime,
		booking.TotalPrice,
		booking.Currency,
		booking.Status,
		booking.CreatedAt,
		booking.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Booking, error) {
	return r.findByID(ctx, tx, id, "")
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Booking, error) {
	return r.findByID(ctx, tx, id, db.LockSuffix(tx))
}

func (r *repo) findByID(ctx context.Context, tx *gorm.DB, id snowflake.ID, lock string) (*domain.Booking, error) {
	var item domain.Booking
	err := tx.WithContext(ctx).Raw(
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE id = ?
		 LIMIT 1`+lock,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

// HasConflict is the interval index probe. Half-open semantics: an existing
// booking [s,e) conflicts with [start,end) iff s < end AND start < e, so
// back-to-back bookings never count.
func (r *repo) HasConflict(ctx context.Context, tx *gorm.DB, spotID snowflake.ID, start, end time.Time, statuses []domain.BookingStatus, excludeID snowflake.ID) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Raw(
		`SELECT COUNT(1)
		 FROM bookings
		 WHERE spot_id = ?
		   AND status IN ?
		   AND start_time < ?
		   AND ? < end_time
		   AND id <> ?`,
		spotID,
		statuses,
		end,
		start,
		excludeID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) UpdateLifecycle(ctx context.Context, tx *gorm.DB, booking *domain.Booking) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE bookings
		 SET status = ?, confirmed_at = ?, cancelled_at = ?, completed_at = ?, updated_at = ?
		 WHERE id = ?`,
		booking.Status,
		booking.ConfirmedAt,
		booking.CancelledAt,
		booking.CompletedAt,
		booking.UpdatedAt,
		booking.ID,
	).Error
}

func (r *repo) CompleteElapsed(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	res := tx.WithContext(ctx).Exec(
		`UPDATE bookings
		 SET status = ?, completed_at = ?, updated_at = ?
		 WHERE status = ? AND end_time <= ?`,
		domain.BookingStatusCompleted,
		now,
		now,
		domain.BookingStatusConfirmed,
		now,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
