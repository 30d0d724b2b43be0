package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus observability primitives for the booking core.
type Metrics struct {
	bookingsCreated  *prometheus.CounterVec
	bookingConflicts prometheus.Counter
	paymentEvents    *prometheus.CounterVec
	pollAttempts     *prometheus.CounterVec
	notifications    *prometheus.CounterVec
}

// NewMetrics registers and returns Prometheus metrics for telemetry.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers against a caller-supplied registry; tests use this
// to avoid duplicate registration in the default registry.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	bookingsCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hanapark_bookings_created_total",
		Help: "Bookings created by outcome.",
	}, []string{"status"})

	bookingConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hanapark_booking_conflicts_total",
		Help: "Booking attempts rejected by the interval conflict check.",
	})

	paymentEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hanapark_payment_events_total",
		Help: "Reconciled payment events by source and status.",
	}, []string{"source", "status"})

	pollAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hanapark_poll_attempts_total",
		Help: "Gateway status poll attempts by result.",
	}, []string{"result"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hanapark_notifications_total",
		Help: "Notification dispatches by template kind.",
	}, []string{"kind"})

	reg.MustRegister(
		bookingsCreated,
		bookingConflicts,
		paymentEvents,
		pollAttempts,
		notifications,
	)

	return &Metrics{
		bookingsCreated:  bookingsCreated,
		bookingConflicts: bookingConflicts,
		paymentEvents:    paymentEvents,
		pollAttempts:     pollAttempts,
		notifications:    notifications,
	}
}

// RecordBookingCreated counts a booking creation with its resulting status.
func (m *Metrics) RecordBookingCreated(status string) {
	if m == nil {
		return
	}
	m.bookingsCreated.WithLabelValues(sanitizeLabel(status)).Inc()
}

// RecordBookingConflict counts a rejected overlapping booking attempt.
func (m *Metrics) RecordBookingConflict() {
	if m == nil {
		return
	}
	m.bookingConflicts.Inc()
}

// RecordPaymentEvent counts a reconciled payment event. source is "webhook"
// or "poll".
func (m *Metrics) RecordPaymentEvent(source, status string) {
	if m == nil {
		return
	}
	m.paymentEvents.WithLabelValues(sanitizeLabel(source), sanitizeLabel(status)).Inc()
}

// RecordPollAttempt counts one gateway poll attempt by result.
func (m *Metrics) RecordPollAttempt(result string) {
	if m == nil {
		return
	}
	m.pollAttempts.WithLabelValues(sanitizeLabel(result)).Inc()
}

// RecordNotification counts a dispatched notification.
func (m *Metrics) RecordNotification(kind string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(sanitizeLabel(kind)).Inc()
}

func sanitizeLabel(val string) string {
	if val == "" {
		return "unknown"
	}
	return val
}
