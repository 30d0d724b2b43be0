package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, spot *Spot) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Spot, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Spot, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status SpotStatus) (int64, error)
}
