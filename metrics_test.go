package slooze

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMetricsRegistration tests that all collectors are registered
func TestMetricsRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.placed(RegionIndia)
	m.denied(OpPayOrder, RoleMember)
	m.transitioned(OrderPaid, nil)
	m.transitioned(OrderCancelled, NewError(ErrInvalidTransition, ""))
	m.observe(OpPlaceOrder, time.Now(), nil)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"slooze_orders_placed_total",
		"slooze_orders_transitions_total",
		"slooze_orders_transitions_rejected_total",
		"slooze_authz_denied_total",
		"slooze_service_operation_duration_seconds",
	}, names)
}

// TestMetricsCounters tests counter updates
func TestMetricsCounters(t *testing.T) {
	m := NewMetrics(nil)

	m.placed(RegionUSA)
	m.placed(RegionUSA)
	m.transitioned(OrderPaid, nil)
	m.transitioned(OrderPaid, NewError(ErrInvalidTransition, ""))
	m.transitioned(OrderPaid, errors.New("db down"))
	m.denied(OpCreateRestaurant, RoleManager)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OrdersPlaced.WithLabelValues("USA")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrderTransitions.WithLabelValues("PAID")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectedTransitions.WithLabelValues("PAID")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthorizationDenied.WithLabelValues("restaurants.create", "MANAGER")))
}

// TestMetricsNilSafe tests that a nil *Metrics is a no-op
func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.placed(RegionIndia)
		m.denied(OpPayOrder, RoleMember)
		m.transitioned(OrderPaid, nil)
		m.observe(OpPayOrder, time.Now(), nil)
	})
}
