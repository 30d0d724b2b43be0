// Package domain defines the notification contract. Dispatch is fire and
// forget: reconciliation enqueues after its transaction commits and never
// waits on delivery.
package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Kind string

const (
	KindBookingConfirmed Kind = "booking_confirmed"
	KindBookingCancelled Kind = "booking_cancelled"
)

type Role string

const (
	RoleOwner     Role = "owner"
	RoleRequester Role = "requester"
)

type Notification struct {
	Recipient snowflake.ID
	Role      Role
	BookingID snowflake.ID
	Kind      Kind
}

// Dispatcher accepts notifications without blocking the caller. Delivery
// failures are logged, never propagated.
type Dispatcher interface {
	Notify(ctx context.Context, n Notification)
}
