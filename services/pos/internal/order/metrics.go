package order

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records lifecycle operation outcomes. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	tickets    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "payper",
				Subsystem: "orders",
				Name:      "operations_total",
				Help:      "Order lifecycle operations by outcome.",
			},
			[]string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "payper",
				Subsystem: "orders",
				Name:      "operation_duration_seconds",
				Help:      "Duration of order lifecycle operations.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"operation"},
		),
		tickets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "payper",
				Subsystem: "kitchen",
				Name:      "tickets_total",
				Help:      "Kitchen ticket events by type.",
			},
			[]string{"event"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.duration, m.tickets)
	}
	return m
}

func (m *Metrics) Observe(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, Outcome(err)).Inc()
	m.duration.WithLabelValues(operation).Observe(d.Seconds())
}

// TicketEvent counts a change that touched a kitchen ticket, issued or advanced.
func (m *Metrics) TicketEvent(eventType string) {
	if m == nil {
		return
	}
	m.tickets.WithLabelValues(eventType).Inc()
}
