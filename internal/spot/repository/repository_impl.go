package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/hanapark/hanapark/internal/spot/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, spot *domain.Spot) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO parking_spots (
			id, owner_id, name, slug, address, price_per_hour, currency, status,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		spot.ID,
		spot.OwnerID,
		spot.Name,
		spot.Slug,
		spot.Address,
		spot.PricePerHour,
		spot.Currency,
		spot.Status,
		spot.CreatedAt,
		spot.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Spot, error) {
	var item domain.Spot
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, name, slug, address, price_per_hour, currency, status,
			created_at, updated_at
		 FROM parking_spots
		 WHERE id = ?
		 LIMIT 1`,
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

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Spot, error) {
	var item domain.Spot
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, name, slug, address, price_per_hour, currency, status,
			created_at, updated_at
		 FROM parking_spots
		 WHERE slug = ?
		 LIMIT 1`,
		slug,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.SpotStatus) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE parking_spots
		 SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		status,
		id,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
