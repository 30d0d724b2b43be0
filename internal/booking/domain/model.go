// Package domain contains the booking lifecycle model. A booking holds a
// half-open time interval [start, end) on a parking spot; two bookings on the
// same spot conflict iff their intervals overlap and both are still active.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

// ActiveStatuses are the statuses that block other bookings on the same
// interval. Cancelled and completed bookings never block.
func ActiveStatuses() []BookingStatus {
	return []BookingStatus{BookingStatusPending, BookingStatusConfirmed}
}

func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

// CanTransition encodes the lifecycle table. Confirmation and
// payment-driven cancellation belong to the reconciler; completion belongs to
// the elapsed-booking sweep.
func CanTransition(from, to BookingStatus) bool {
	switch from {
	case BookingStatusPending:
		return to == BookingStatusConfirmed || to == BookingStatusCancelled
	case BookingStatusConfirmed:
		return to == BookingStatusCancelled || to == BookingStatusCompleted
	}
	return false
}

// Booking reserves [StartTime, EndTime) on a spot. TotalPrice is computed at
// creation and never recomputed, so later price changes on the spot do not
// affect it.
type Booking struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	SpotID      snowflake.ID  `gorm:"not null;index" json:"spot_id"`
	RequesterID snowflake.ID  `gorm:"not null;index" json:"requester_id"`
	StartTime   time.Time     `gorm:"not null" json:"start_time"`
	EndTime     time.Time     `gorm:"not null" json:"end_time"`
	TotalPrice  int64         `gorm:"not null" json:"total_price"`
	Currency    string        `gorm:"type:text;not null" json:"currency"`
	Status      BookingStatus `gorm:"type:text;not null" json:"status"`
	ConfirmedAt *time.Time    `json:"confirmed_at,omitempty"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CreatedAt   time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Booking) TableName() string { return "bookings" }

// Overlaps reports whether two half-open intervals conflict:
// [s1,e1) and [s2,e2) overlap iff s1 < e2 && s2 < e1. Back-to-back
// bookings (e1 == s2) do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// TotalPriceFor computes the booking price in minor units, rounding up to the
// next centavo: ceil(pricePerHour * seconds / 3600).
func TotalPriceFor(pricePerHour int64, start, end time.Time) int64 {
	seconds := int64(end.Sub(start) / time.Second)
	if seconds <= 0 || pricePerHour <= 0 {
		return 0
	}
	return (pricePerHour*seconds + 3599) / 3600
}
