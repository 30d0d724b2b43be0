package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/hanapark/hanapark/internal/clock"
	"github.com/hanapark/hanapark/internal/spot/domain"
	"github.com/hanapark/hanapark/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultCurrency = "PHP"

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("spot.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterSpotRequest) (domain.Spot, error) {
	ownerID, err := parseID(req.OwnerID, domain.ErrInvalidOwner)
	if err != nil {
		return domain.Spot{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Spot{}, domain.ErrInvalidName
	}
	if req.PricePerHour <= 0 {
		return domain.Spot{}, domain.ErrInvalidPrice
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	now := s.clock.Now().UTC()
	spot := domain.Spot{
		ID:           s.genID.Generate(),
		OwnerID:      ownerID,
		Name:         name,
		Slug:         slug.Make(name) + "-" + spotSlugSuffix(s.genID.Generate()),
		Address:      strings.TrimSpace(req.Address),
		PricePerHour: req.PricePerHour,
		Currency:     currency,
		Status:       domain.SpotStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, &spot); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Spot{}, domain.ErrSlugTaken
		}
		return domain.Spot{}, err
	}

	s.log.Info("spot registered",
		zap.String("spot_id", spot.ID.String()),
		zap.String("slug", spot.Slug),
	)
	return spot, nil
}

func (s *Service) Approve(ctx context.Context, spotID string) error {
	return s.transition(ctx, spotID, domain.SpotStatusApproved)
}

func (s *Service) Reject(ctx context.Context, spotID string) error {
	return s.transition(ctx, spotID, domain.SpotStatusRejected)
}

func (s *Service) Deactivate(ctx context.Context, spotID string) error {
	return s.transition(ctx, spotID, domain.SpotStatusInactive)
}

func (s *Service) GetByID(ctx context.Context, spotID snowflake.ID) (*domain.Spot, error) {
	return s.repo.FindByID(ctx, s.db, spotID)
}

func (s *Service) GetBySlug(ctx context.Context, rawSlug string) (*domain.Spot, error) {
	rawSlug = strings.TrimSpace(rawSlug)
	if rawSlug == "" {
		return nil, domain.ErrSpotNotFound
	}
	return s.repo.FindBySlug(ctx, s.db, rawSlug)
}

func (s *Service) transition(ctx context.Context, spotID string, target domain.SpotStatus) error {
	id, err := parseID(spotID, domain.ErrInvalidSpot)
	if err != nil {
		return err
	}
	affected, err := s.repo.UpdateStatus(ctx, s.db, id, target)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrSpotNotFound
	}
	return nil
}

func parseID(value string, invalidErr error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalidErr
	}
	return id, nil
}

// spotSlugSuffix keeps slugs unique without leaking the full snowflake.
func spotSlugSuffix(id snowflake.ID) string {
	raw := id.Base36()
	if len(raw) > 6 {
		return raw[len(raw)-6:]
	}
	return raw
}
