package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/hanapark/hanapark/internal/booking/domain"
	"github.com/hanapark/hanapark/internal/clock"
	"github.com/hanapark/hanapark/internal/locking"
	paymentdomain "github.com/hanapark/hanapark/internal/payment/domain"
	spotdomain "github.com/hanapark/hanapark/internal/spot/domain"
	"github.com/hanapark/hanapark/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const spotLockTTL = 10 * time.Second

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Spots    spotdomain.Service
	Payments paymentdomain.Repository
	Keys     *locking.KeyedMutex
	Locker   *locking.RedisLocker `optional:"true"`
	Metrics  *telemetry.Metrics   `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	spots    spotdomain.Service
	payments paymentdomain.Repository
	keys     *locking.KeyedMutex
	locker   *locking.RedisLocker
	metrics  *telemetry.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("booking.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		spots:    p.Spots,
		payments: p.Payments,
		keys:     p.Keys,
		locker:   p.Locker,
		metrics:  p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateBookingRequest) (domain.Booking, error) {
	spotID, err := parseID(req.SpotID, domain.ErrInvalidSpot)
	if err != nil {
		return domain.Booking{}, err
	}
	requesterID, err := parseID(req.RequesterID, domain.ErrInvalidRequester)
	if err != nil {
		return domain.Booking{}, err
	}

	start := req.StartTime.UTC()
	end := req.EndTime.UTC()
	if !start.Before(end) {
		return domain.Booking{}, domain.ErrInvalidInterval
	}

	now := s.clock.Now().UTC()
	if start.Before(now) {
		return domain.Booking{}, domain.ErrStartInPast
	}

	spot, err := s.spots.GetByID(ctx, spotID)
	if err != nil {
		return domain.Booking{}, err
	}
	if spot == nil {
		return domain.Booking{}, spotdomain.ErrSpotNotFound
	}
	if spot.Status != spotdomain.SpotStatusApproved {
		return domain.Booking{}, domain.ErrSpotNotBookable
	}
	if spot.OwnerID == requesterID {
		return domain.Booking{}, domain.ErrOwnSpotBooking
	}

	booking := domain.Booking{
		ID:          s.genID.Generate(),
		SpotID:      spotID,
		RequesterID: requesterID,
		StartTime:   start,
		EndTime:     end,
		TotalPrice:  domain.TotalPriceFor(spot.PricePerHour, start, end),
		Currency:    spot.Currency,
		Status:      domain.BookingStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Serialize conflict check + insert per spot. The in-process mutex covers
	// a single node; the redis lock extends that across nodes when configured
	// and is best effort, since the transaction re-checks either way.
	lockKey := "booking:spot:" + spotID.String()
	s.keys.Lock(lockKey)
	defer s.keys.Unlock(lockKey)

	if s.locker != nil {
		token, acquired, lockErr := s.locker.TryLock(ctx, lockKey, spotLockTTL)
		if lockErr != nil {
			s.log.Warn("spot lock unavailable, relying on transaction re-check",
				zap.String("spot_id", spotID.String()),
				zap.Error(lockErr),
			)
		} else if !acquired {
			s.recordConflict()
			return domain.Booking{}, domain.ErrBookingConflict
		} else {
			defer func() {
				if releaseErr := s.locker.Release(context.WithoutCancel(ctx), lockKey, token); releaseErr != nil {
					s.log.Warn("spot lock release failed", zap.Error(releaseErr))
				}
			}()
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		conflict, txErr := s.repo.HasConflict(ctx, tx, spotID, start, end, domain.ActiveStatuses(), 0)
		if txErr != nil {
			return txErr
		}
		if conflict {
			return domain.ErrBookingConflict
		}
		if txErr := s.repo.Insert(ctx, tx, &booking); txErr != nil {
			return txErr
		}
		// Re-check after insert to catch a row committed between the first
		// probe and ours when running without the locks.
		conflict, txErr = s.repo.HasConflict(ctx, tx, spotID, start, end, domain.ActiveStatuses(), booking.ID)
		if txErr != nil {
			return txErr
		}
		if conflict {
			return domain.ErrBookingConflict
		}
		return nil
	})
	if err != nil {
		if err == domain.ErrBookingConflict {
			s.recordConflict()
		}
		return domain.Booking{}, err
	}

	s.metrics.RecordBookingCreated(string(booking.Status))
	s.log.Info("booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("spot_id", spotID.String()),
		zap.Time("start_time", start),
		zap.Time("end_time", end),
		zap.Int64("total_price", booking.TotalPrice),
	)
	return booking, nil
}

func (s *Service) Cancel(ctx context.Context, bookingID string, requesterID string) error {
	id, err := parseID(bookingID, domain.ErrInvalidBooking)
	if err != nil {
		return err
	}
	requester, err := parseID(requesterID, domain.ErrInvalidRequester)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		booking, txErr := s.repo.FindByIDForUpdate(ctx, tx, id)
		if txErr != nil {
			return txErr
		}
		if booking == nil {
			return domain.ErrBookingNotFound
		}
		if booking.RequesterID != requester {
			return domain.ErrNotRequester
		}
		if booking.Status != domain.BookingStatusPending {
			return domain.ErrInvalidStateTransition
		}

		now := s.clock.Now().UTC()
		booking.Status = domain.BookingStatusCancelled
		booking.CancelledAt = &now
		booking.UpdatedAt = now
		if txErr := s.repo.UpdateLifecycle(ctx, tx, booking); txErr != nil {
			return txErr
		}

		cancelled, txErr := s.payments.CancelPendingByBookingID(ctx, tx, id, now)
		if txErr != nil {
			return txErr
		}

		s.log.Info("booking cancelled by requester",
			zap.String("booking_id", booking.ID.String()),
			zap.Bool("payment_cancelled", cancelled > 0),
		)
		return nil
	})
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Booking, error) {
	return s.repo.FindByID(ctx, s.db, id)
}

func (s *Service) CompleteElapsed(ctx context.Context, now time.Time) (int64, error) {
	completed, err := s.repo.CompleteElapsed(ctx, s.db, now.UTC())
	if err != nil {
		return 0, err
	}
	if completed > 0 {
		s.log.Info("elapsed bookings completed", zap.Int64("count", completed))
	}
	return completed, nil
}

func (s *Service) recordConflict() {
	s.metrics.RecordBookingConflict()
	s.metrics.RecordBookingCreated("conflict")
}

func parseID(value string, invalidErr error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalidErr
	}
	return id, nil
}
