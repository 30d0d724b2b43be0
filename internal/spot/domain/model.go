// Package domain contains persistence models for parking spots.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SpotStatus is the approval state of a listed parking spot. Only approved
// spots accept bookings.
type SpotStatus string

const (
	SpotStatusPending  SpotStatus = "PENDING"
	SpotStatusApproved SpotStatus = "APPROVED"
	SpotStatusRejected SpotStatus = "REJECTED"
	SpotStatusInactive SpotStatus = "INACTIVE"
)

// Spot is a bookable parking spot listed by an owner.
type Spot struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerID      snowflake.ID `gorm:"not null;index" json:"owner_id"`
	Name         string       `gorm:"type:text;not null" json:"name"`
	Slug         string       `gorm:"type:text;not null;uniqueIndex" json:"slug"`
	Address      string       `gorm:"type:text;not null" json:"address"`
	PricePerHour int64        `gorm:"not null" json:"price_per_hour"`
	Currency     string       `gorm:"type:text;not null" json:"currency"`
	Status       SpotStatus   `gorm:"type:text;not null" json:"status"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Spot) TableName() string { return "parking_spots" }

func (s SpotStatus) Valid() bool {
	switch s {
	case SpotStatusPending, SpotStatusApproved, SpotStatusRejected, SpotStatusInactive:
		return true
	}
	return false
}
