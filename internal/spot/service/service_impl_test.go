package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/hanapark/hanapark/internal/clock"
	"github.com/hanapark/hanapark/internal/spot/domain"
	spotrepository "github.com/hanapark/hanapark/internal/spot/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	db.Exec(`CREATE TABLE IF NOT EXISTS parking_spots (
		id BIGINT PRIMARY KEY,
		owner_id BIGINT NOT NULL,
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		price_per_hour BIGINT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'PHP',
		status TEXT NOT NULL DEFAULT 'PENDING',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS ux_parking_spots_slug ON parking_spots(slug)")

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)),
		Repo:  spotrepository.Provide(),
	})
	return svc, node
}

func TestRegisterSpot(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()

	spot, err := svc.Register(ctx, domain.RegisterSpotRequest{
		OwnerID:      node.Generate().String(),
		Name:         "Ortigas Tower Slot B2-14",
		Address:      "Emerald Ave",
		PricePerHour: 7500,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SpotStatusPending, spot.Status)
	assert.Equal(t, "PHP", spot.Currency)
	assert.Contains(t, spot.Slug, "ortigas-tower-slot-b2-14")

	t.Run("lookup by slug", func(t *testing.T) {
		got, err := svc.GetBySlug(ctx, spot.Slug)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, spot.ID, got.ID)
	})

	t.Run("invalid price rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, domain.RegisterSpotRequest{
			OwnerID:      node.Generate().String(),
			Name:         "Free Slot",
			PricePerHour: 0,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidPrice)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, domain.RegisterSpotRequest{
			OwnerID:      node.Generate().String(),
			Name:         "   ",
			PricePerHour: 1000,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidName)
	})
}

func TestSpotStatusTransitions(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()

	spot, err := svc.Register(ctx, domain.RegisterSpotRequest{
		OwnerID:      node.Generate().String(),
		Name:         "Cebu IT Park Slot",
		PricePerHour: 6000,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Approve(ctx, spot.ID.String()))
	got, err := svc.GetByID(ctx, spot.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SpotStatusApproved, got.Status)

	require.NoError(t, svc.Deactivate(ctx, spot.ID.String()))
	got, err = svc.GetByID(ctx, spot.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SpotStatusInactive, got.Status)

	t.Run("unknown spot", func(t *testing.T) {
		err := svc.Approve(ctx, node.Generate().String())
		assert.ErrorIs(t, err, domain.ErrSpotNotFound)
	})
}
