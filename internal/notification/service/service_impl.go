package service

import (
	"context"

	"github.com/hanapark/hanapark/internal/config"
	"github.com/hanapark/hanapark/internal/notification/domain"
	"github.com/hanapark/hanapark/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config  config.Config
	Log     *zap.Logger
	Metrics *telemetry.Metrics `optional:"true"`
}

// Dispatcher buffers notifications and delivers them from a single worker
// goroutine. Delivery is a structured log line; provider integration hangs off
// deliver when it arrives.
type Dispatcher struct {
	log     *zap.Logger
	metrics *telemetry.Metrics
	queue   chan domain.Notification
	done    chan struct{}
}

func NewDispatcher(p Params) *Dispatcher {
	buffer := p.Config.NotificationBuffer
	if buffer <= 0 {
		buffer = 64
	}
	return &Dispatcher{
		log:     p.Log.Named("notification.dispatcher"),
		metrics: p.Metrics,
		queue:   make(chan domain.Notification, buffer),
		done:    make(chan struct{}),
	}
}

// Notify enqueues without blocking. A full buffer drops the notification with
// a warning rather than stalling reconciliation.
func (d *Dispatcher) Notify(_ context.Context, n domain.Notification) {
	select {
	case d.queue <- n:
	default:
		d.log.Warn("notification buffer full, dropping",
			zap.String("booking_id", n.BookingID.String()),
			zap.String("kind", string(n.Kind)),
		)
	}
}

func (d *Dispatcher) Start() {
	go d.run()
}

// Stop closes the queue and waits for the worker to drain it.
func (d *Dispatcher) Stop() {
	close(d.queue)
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for n := range d.queue {
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n domain.Notification) {
	d.metrics.RecordNotification(string(n.Kind))
	d.log.Info("notification dispatched",
		zap.String("recipient", n.Recipient.String()),
		zap.String("role", string(n.Role)),
		zap.String("booking_id", n.BookingID.String()),
		zap.String("kind", string(n.Kind)),
	)
}
