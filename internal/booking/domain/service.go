package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateBookingRequest struct {
	SpotID      string    `json:"spot_id"`
	RequesterID string    `json:"requester_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

type Service interface {
	Create(ctx context.Context, req CreateBookingRequest) (Booking, error)
	// Cancel is the requester-initiated path: PENDING bookings only. A
	// pending payment on the booking is cancelled in the same transaction.
	Cancel(ctx context.Context, bookingID string, requesterID string) error
	GetByID(ctx context.Context, id snowflake.ID) (*Booking, error)
	// CompleteElapsed marks CONFIRMED bookings whose interval has passed as
	// COMPLETED and reports how many rows changed.
	CompleteElapsed(ctx context.Context, now time.Time) (int64, error)
}

var (
	ErrBookingConflict        = errors.New("booking_conflict")
	ErrInvalidStateTransition = errors.New("invalid_state_transition")
	ErrBookingNotFound        = errors.New("booking_not_found")
	ErrInvalidInterval        = errors.New("invalid_interval")
	ErrStartInPast            = errors.New("start_in_past")
	ErrOwnSpotBooking         = errors.New("own_spot_booking")
	ErrSpotNotBookable        = errors.New("spot_not_bookable")
	ErrNotRequester           = errors.New("not_requester")
	ErrInvalidBooking         = errors.New("invalid_booking")
	ErrInvalidRequester       = errors.New("invalid_requester")
	ErrInvalidSpot            = errors.New("invalid_spot")
)
