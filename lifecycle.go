package slooze

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// CanTransition reports whether an order may move from one status to another.
// PENDING moves to PAID or CANCELLED; PAID and CANCELLED are terminal.
func CanTransition(from, to OrderStatus) bool {
	return from == OrderPending && (to == OrderPaid || to == OrderCancelled)
}

// checkTransition returns ErrInvalidTransition when o cannot move to status to.
func checkTransition(o *Order, to OrderStatus) error {
	if CanTransition(o.Status, to) {
		return nil
	}
	return NewError(ErrInvalidTransition,
		fmt.Sprintf("order is %s and cannot become %s", o.Status, to)).
		WithEntity("order", o.ID)
}

func eventTypeFor(to OrderStatus) OrderEventType {
	if to == OrderPaid {
		return OrderEventPaid
	}
	return OrderEventCancelled
}

// validateLineRequests rejects empty orders and non-positive quantities.
func validateLineRequests(lines []LineRequest) error {
	if len(lines) == 0 {
		return NewError(ErrInvalidInput, "order must contain at least one item")
	}
	for i, l := range lines {
		if l.MenuItemID == "" {
			return NewError(ErrInvalidInput, fmt.Sprintf("line %d: menu item id is required", i))
		}
		if l.Quantity <= 0 {
			return NewError(ErrInvalidQuantity,
				fmt.Sprintf("line %d: quantity must be positive, got %d", i, l.Quantity)).
				WithEntity("menu_item", l.MenuItemID)
		}
	}
	return nil
}

// menuItemFinder resolves a menu item by id.
type menuItemFinder func(ctx context.Context, id string) (*MenuItem, error)

// buildOrderLines resolves every requested line, checks that each item belongs to
// restaurantID and snapshots name and unit price. It returns the lines and their total.
// Nothing is written.
func buildOrderLines(ctx context.Context, restaurantID string, reqs []LineRequest, find menuItemFinder) ([]OrderLine, decimal.Decimal, error) {
	if err := validateLineRequests(reqs); err != nil {
		return nil, decimal.Zero, err
	}

	lines := make([]OrderLine, 0, len(reqs))
	total := decimal.Zero
	for i, req := range reqs {
		item, err := find(ctx, req.MenuItemID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if item.RestaurantID != restaurantID {
			return nil, decimal.Zero, NewError(ErrInconsistentRestaurant,
				fmt.Sprintf("menu item %s belongs to restaurant %s, not %s", item.ID, item.RestaurantID, restaurantID)).
				WithEntity("menu_item", item.ID)
		}

		line := OrderLine{
			MenuItemID: item.ID,
			Position:   i,
			Name:       item.Name,
			Quantity:   req.Quantity,
			UnitPrice:  item.Price,
		}
		total = total.Add(line.Subtotal())
		lines = append(lines, line)
	}
	return lines, total, nil
}

// OrderTotal recomputes the total of a line snapshot.
func OrderTotal(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
