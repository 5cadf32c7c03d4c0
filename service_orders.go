package slooze

import (
	"context"
	"strings"
	"time"
)

// ============================================================================
// ORDER LIFECYCLE
// ============================================================================

// PlaceOrder creates a PENDING order against a restaurant. ADMIN and MANAGER may place
// orders, for themselves or on behalf of another actor (OwnerID). Line prices are
// snapshotted from the current menu, so later price changes never alter the total.
//
// Example:
//
//	order, err := service.PlaceOrder(ctx, manager, slooze.PlaceOrderInput{
//	    RestaurantID:  "restaurant-india-1",
//	    PaymentMethod: "card",
//	    OwnerID:       memberID,
//	    Lines: []slooze.LineRequest{
//	        {MenuItemID: naanID, Quantity: 2},
//	        {MenuItemID: paneerID, Quantity: 1},
//	    },
//	})
func (s *Service) PlaceOrder(ctx context.Context, actor Actor, in PlaceOrderInput) (order *Order, err error) {
	defer s.track(OpPlaceOrder, time.Now(), &err)

	if err = s.authorize(ctx, actor, OpPlaceOrder); err != nil {
		return nil, err
	}

	restaurant, err := s.store.FindRestaurant(ctx, in.RestaurantID)
	if err != nil {
		return nil, err
	}
	if !ScopeRestaurants(actor).AllowsRestaurant(restaurant.Region) {
		return nil, outOfScope(actor, OpPlaceOrder, "restaurant", restaurant.ID)
	}

	ownerID := in.OwnerID
	if ownerID == "" {
		ownerID = actor.ID
	}
	if ownerID != actor.ID {
		if _, err = s.store.FindActor(ctx, ownerID); err != nil {
			return nil, err
		}
	}

	lines, total, err := buildOrderLines(ctx, restaurant.ID, in.Lines, s.store.FindMenuItem)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order = &Order{
		ID:            s.newID(),
		OwnerID:       ownerID,
		RestaurantID:  restaurant.ID,
		Status:        OrderPending,
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
		Total:         total,
		CreatedAt:     now,
		UpdatedAt:     now,
		Lines:         lines,
	}
	for i := range order.Lines {
		order.Lines[i].ID = s.newID()
		order.Lines[i].OrderID = order.ID
	}

	event := s.newEvent(ctx, actor, order.ID, OrderEventCreated, "", OrderPending)
	if err = s.store.CreateOrder(ctx, order, event); err != nil {
		return nil, err
	}

	order.Restaurant = &Restaurant{ID: restaurant.ID, Name: restaurant.Name, Region: restaurant.Region, CreatedAt: restaurant.CreatedAt}
	s.metrics.placed(restaurant.Region)
	s.log(ctx).Info("order placed",
		"order_id", order.ID,
		"owner_id", order.OwnerID,
		"restaurant_id", order.RestaurantID,
		"total", order.Total.String(),
		"actor_id", actor.ID,
	)
	return order, nil
}

// PayOrder marks a PENDING order PAID.
func (s *Service) PayOrder(ctx context.Context, actor Actor, orderID string) (order *Order, err error) {
	defer s.track(OpPayOrder, time.Now(), &err)
	return s.transition(ctx, actor, OpPayOrder, orderID, OrderPaid)
}

// CancelOrder marks a PENDING order CANCELLED. Cancelled orders are kept for history.
func (s *Service) CancelOrder(ctx context.Context, actor Actor, orderID string) (order *Order, err error) {
	defer s.track(OpCancelOrder, time.Now(), &err)
	return s.transition(ctx, actor, OpCancelOrder, orderID, OrderCancelled)
}

// transition moves an order out of PENDING. The store applies the change as a
// compare-and-set, so of two concurrent transitions on one order only the first wins
// and the second fails with ErrInvalidTransition.
func (s *Service) transition(ctx context.Context, actor Actor, op Operation, orderID string, to OrderStatus) (*Order, error) {
	if err := s.authorize(ctx, actor, op); err != nil {
		return nil, err
	}

	current, err := s.store.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !s.Checker(actor).CanSeeOrder(current) {
		return nil, outOfScope(actor, op, "order", orderID)
	}
	if err := checkTransition(current, to); err != nil {
		s.metrics.transitioned(to, err)
		return nil, err
	}

	event := s.newEvent(ctx, actor, orderID, eventTypeFor(to), OrderPending, to)
	updated, err := s.store.TransitionOrder(ctx, orderID, OrderPending, event)
	s.metrics.transitioned(to, err)
	if err != nil {
		if IsInvalidTransition(err) {
			s.log(ctx).Warn("order transition lost race", "order_id", orderID, "to", to, "actor_id", actor.ID)
		}
		return nil, err
	}

	s.log(ctx).Info("order transitioned",
		"order_id", orderID,
		"from", OrderPending,
		"to", to,
		"actor_id", actor.ID,
	)
	return updated, nil
}

// UpdatePaymentMethod is restricted to ADMIN. Payment method changes are not modeled
// yet: the order's status, total and payment method are left untouched and only
// updated_at is bumped, with an entry in the order history.
func (s *Service) UpdatePaymentMethod(ctx context.Context, actor Actor, orderID string) (order *Order, err error) {
	defer s.track(OpUpdatePaymentMethod, time.Now(), &err)

	if err = s.authorize(ctx, actor, OpUpdatePaymentMethod); err != nil {
		return nil, err
	}

	current, err := s.store.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !s.Checker(actor).CanSeeOrder(current) {
		return nil, outOfScope(actor, OpUpdatePaymentMethod, "order", orderID)
	}

	event := s.newEvent(ctx, actor, orderID, OrderEventPaymentMethodTouched, current.Status, current.Status)
	return s.store.TouchOrder(ctx, orderID, event)
}
