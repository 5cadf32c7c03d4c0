package slooze

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCanTransition tests the order state machine
func TestCanTransition(t *testing.T) {
	statuses := []OrderStatus{OrderPending, OrderPaid, OrderCancelled}
	allowed := map[[2]OrderStatus]bool{
		{OrderPending, OrderPaid}:      true,
		{OrderPending, OrderCancelled}: true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				assert.Equal(t, allowed[[2]OrderStatus{from, to}], CanTransition(from, to))
			})
		}
	}

	assert.False(t, OrderPending.Terminal())
	assert.True(t, OrderPaid.Terminal())
	assert.True(t, OrderCancelled.Terminal())
}

// TestCheckTransition tests the error returned for a terminal order
func TestCheckTransition(t *testing.T) {
	assert.NoError(t, checkTransition(&Order{ID: "o1", Status: OrderPending}, OrderPaid))

	err := checkTransition(&Order{ID: "o1", Status: OrderPaid}, OrderCancelled)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "PAID")
}

func menuFinder(items ...MenuItem) menuItemFinder {
	byID := make(map[string]MenuItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	return func(ctx context.Context, id string) (*MenuItem, error) {
		item, ok := byID[id]
		if !ok {
			return nil, notFound("menu_item", id)
		}
		return &item, nil
	}
}

// TestBuildOrderLines tests line resolution, snapshots and totals
func TestBuildOrderLines(t *testing.T) {
	find := menuFinder(
		MenuItem{ID: "naan", RestaurantID: "r1", Name: "Naan", Price: dec("100")},
		MenuItem{ID: "paneer", RestaurantID: "r1", Name: "Paneer Tikka", Price: dec("300")},
		MenuItem{ID: "whopper", RestaurantID: "r2", Name: "Whopper", Price: dec("6.99")},
	)
	ctx := context.Background()

	t.Run("snapshot and total", func(t *testing.T) {
		lines, total, err := buildOrderLines(ctx, "r1", []LineRequest{
			{MenuItemID: "naan", Quantity: 2},
			{MenuItemID: "paneer", Quantity: 1},
		}, find)
		require.NoError(t, err)
		require.Len(t, lines, 2)

		assert.True(t, dec("500").Equal(total))
		assert.Equal(t, "Naan", lines[0].Name)
		assert.Equal(t, 0, lines[0].Position)
		assert.True(t, dec("100").Equal(lines[0].UnitPrice))
		assert.Equal(t, 1, lines[1].Position)
		assert.True(t, total.Equal(OrderTotal(lines)))
	})

	t.Run("decimal prices", func(t *testing.T) {
		_, total, err := buildOrderLines(ctx, "r2", []LineRequest{{MenuItemID: "whopper", Quantity: 3}}, find)
		require.NoError(t, err)
		assert.Equal(t, "20.97", total.StringFixed(2))
	})

	tests := []struct {
		name string
		reqs []LineRequest
		want error
	}{
		{"empty", nil, ErrInvalidInput},
		{"missing item id", []LineRequest{{Quantity: 1}}, ErrInvalidInput},
		{"zero quantity", []LineRequest{{MenuItemID: "naan", Quantity: 0}}, ErrInvalidQuantity},
		{"negative quantity", []LineRequest{{MenuItemID: "naan", Quantity: -1}}, ErrInvalidQuantity},
		{"unknown item", []LineRequest{{MenuItemID: "nope", Quantity: 1}}, ErrNotFound},
		{"item from another restaurant", []LineRequest{
			{MenuItemID: "naan", Quantity: 1},
			{MenuItemID: "whopper", Quantity: 1},
		}, ErrInconsistentRestaurant},
		// Quantities are checked before any item is resolved.
		{"quantity before lookup", []LineRequest{
			{MenuItemID: "nope", Quantity: 1},
			{MenuItemID: "naan", Quantity: 0},
		}, ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, total, err := buildOrderLines(ctx, "r1", tt.reqs, find)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, lines)
			assert.True(t, total.IsZero())
		})
	}
}

// TestOrderLineSubtotal tests unit price times quantity
func TestOrderLineSubtotal(t *testing.T) {
	l := OrderLine{UnitPrice: dec("2.99"), Quantity: 4}
	assert.Equal(t, "11.96", l.Subtotal().StringFixed(2))
	assert.True(t, OrderTotal(nil).IsZero())
}
