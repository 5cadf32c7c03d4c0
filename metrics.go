package slooze

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors updated by the service.
type Metrics struct {
	OrdersPlaced        *prometheus.CounterVec
	OrderTransitions    *prometheus.CounterVec
	RejectedTransitions *prometheus.CounterVec
	AuthorizationDenied *prometheus.CounterVec
	OperationDuration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slooze",
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Orders placed, by restaurant region.",
		}, []string{"region"}),
		OrderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slooze",
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Applied order status transitions, by target status.",
		}, []string{"status"}),
		RejectedTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slooze",
			Subsystem: "orders",
			Name:      "transitions_rejected_total",
			Help:      "Order transitions rejected because the order was not PENDING.",
		}, []string{"status"}),
		AuthorizationDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slooze",
			Subsystem: "authz",
			Name:      "denied_total",
			Help:      "Operations denied by the authorization gate.",
		}, []string{"operation", "role"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "slooze",
			Subsystem: "service",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "result"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.OrdersPlaced,
			m.OrderTransitions,
			m.RejectedTransitions,
			m.AuthorizationDenied,
			m.OperationDuration,
		)
	}
	return m
}

func (m *Metrics) observe(op Operation, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = KindOf(err)
	}
	m.OperationDuration.WithLabelValues(string(op), result).Observe(time.Since(start).Seconds())
}

func (m *Metrics) denied(op Operation, role Role) {
	if m == nil {
		return
	}
	m.AuthorizationDenied.WithLabelValues(string(op), string(role)).Inc()
}

func (m *Metrics) placed(region Region) {
	if m == nil {
		return
	}
	m.OrdersPlaced.WithLabelValues(string(region)).Inc()
}

func (m *Metrics) transitioned(to OrderStatus, err error) {
	if m == nil {
		return
	}
	switch {
	case err == nil:
		m.OrderTransitions.WithLabelValues(string(to)).Inc()
	case IsInvalidTransition(err):
		m.RejectedTransitions.WithLabelValues(string(to)).Inc()
	}
}
