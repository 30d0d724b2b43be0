package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type RegisterSpotRequest struct {
	OwnerID      string `json:"owner_id"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	PricePerHour int64  `json:"price_per_hour"`
	Currency     string `json:"currency,omitempty"`
}

type Service interface {
	Register(ctx context.Context, req RegisterSpotRequest) (Spot, error)
	Approve(ctx context.Context, spotID string) error
	Reject(ctx context.Context, spotID string) error
	Deactivate(ctx context.Context, spotID string) error
	GetByID(ctx context.Context, spotID snowflake.ID) (*Spot, error)
	GetBySlug(ctx context.Context, slug string) (*Spot, error)
}

var (
	ErrSpotNotFound    = errors.New("spot_not_found")
	ErrInvalidOwner    = errors.New("invalid_owner")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidSpot     = errors.New("invalid_spot")
	ErrInvalidApproval = errors.New("invalid_approval_state")
	ErrSlugTaken       = errors.New("slug_taken")
)
