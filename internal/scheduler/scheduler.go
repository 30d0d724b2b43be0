// Package scheduler runs the time-driven jobs, currently the sweep that marks
// elapsed CONFIRMED bookings COMPLETED.
package scheduler

import (
	"context"
	"time"

	bookingdomain "github.com/hanapark/hanapark/internal/booking/domain"
	"github.com/hanapark/hanapark/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config controls the run cadence and per-run timeout.
type Config struct {
	RunInterval time.Duration
	JobTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Minute,
		JobTimeout:  30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	BookingSvc bookingdomain.Service
	Config     Config `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	clock      clock.Clock
	bookingSvc bookingdomain.Service
}

func New(p Params) *Scheduler {
	return &Scheduler{
		log:        p.Log.Named("scheduler"),
		cfg:        p.Config.withDefaults(),
		clock:      p.Clock,
		bookingSvc: p.BookingSvc,
	}
}

// RunOnce executes every job a single time. Exposed so operators and tests can
// trigger a sweep without the run loop.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	completed, err := s.bookingSvc.CompleteElapsed(ctx, s.clock.Now())
	if err != nil {
		return err
	}
	if completed > 0 {
		s.log.Info("completion sweep done", zap.Int64("completed", completed))
	}
	return nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
