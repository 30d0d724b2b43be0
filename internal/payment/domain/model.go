// Package domain contains the payment model and the reconciliation contract.
// A payment belongs to exactly one booking; the gateway knows it by
// external_id, callers know it by reference_no.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

type Payment struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	BookingID   snowflake.ID      `gorm:"not null;uniqueIndex" json:"booking_id"`
	ReferenceNo string            `gorm:"type:text;not null;uniqueIndex" json:"reference_no"`
	ExternalID  *string           `gorm:"type:text" json:"external_id,omitempty"`
	Amount      int64             `gorm:"not null" json:"amount"`
	Currency    string            `gorm:"type:text;not null" json:"currency"`
	Status      PaymentStatus     `gorm:"type:text;not null" json:"status"`
	CheckoutURL string            `gorm:"type:text" json:"checkout_url,omitempty"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
	SucceededAt *time.Time        `json:"succeeded_at,omitempty"`
	FailedAt    *time.Time        `json:"failed_at,omitempty"`
	CreatedAt   time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// WebhookEvent is the dedup ledger for gateway callbacks. Rows are inserted at
// most once per event_id and only processed_at is ever updated afterwards.
type WebhookEvent struct {
	ID          snowflake.ID   `gorm:"primaryKey" json:"id"`
	EventID     string         `gorm:"type:text;not null;uniqueIndex" json:"event_id"`
	ExternalID  string         `gorm:"type:text;not null" json:"external_id"`
	EventType   string         `gorm:"type:text;not null" json:"event_type"`
	Payload     datatypes.JSON `gorm:"not null" json:"payload"`
	ReceivedAt  time.Time      `gorm:"not null" json:"received_at"`
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
}

// TableName sets the database table name.
func (WebhookEvent) TableName() string { return "payment_webhook_events" }
