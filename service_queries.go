package slooze

import (
	"context"
	"time"
)

// ============================================================================
// READS
// ============================================================================

// ListRestaurants returns the restaurants visible to actor, with their menus.
// A non-admin actor without a region gets an empty list, not an error.
func (s *Service) ListRestaurants(ctx context.Context, actor Actor, filter ListFilter) (restaurants []Restaurant, err error) {
	defer s.track(OpListRestaurants, time.Now(), &err)

	if err = s.authorize(ctx, actor, OpListRestaurants); err != nil {
		return nil, err
	}

	v := ScopeRestaurants(actor)
	if v.IsEmpty() {
		return []Restaurant{}, nil
	}
	restaurants, err = s.store.FindRestaurants(ctx, v, filter)
	if err != nil {
		return nil, err
	}
	if restaurants == nil {
		restaurants = []Restaurant{}
	}
	return restaurants, nil
}

// GetRestaurant returns one restaurant. Restaurants outside the actor's visibility
// are reported as not found.
func (s *Service) GetRestaurant(ctx context.Context, actor Actor, id string) (restaurant *Restaurant, err error) {
	defer s.track(OpReadRestaurant, time.Now(), &err)

	if err = s.authorize(ctx, actor, OpReadRestaurant); err != nil {
		return nil, err
	}

	restaurant, err = s.store.FindRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ScopeRestaurants(actor).AllowsRestaurant(restaurant.Region) {
		return nil, notFound("restaurant", id)
	}
	return restaurant, nil
}

// ListOrders returns the orders visible to actor: everything for ADMIN, orders against
// restaurants in the region for MANAGER, own orders for MEMBER.
func (s *Service) ListOrders(ctx context.Context, actor Actor, filter ListFilter) (orders []Order, err error) {
	defer s.track(OpListOrders, time.Now(), &err)

	if err = s.authorize(ctx, actor, OpListOrders); err != nil {
		return nil, err
	}

	v := ScopeOrders(actor)
	if v.IsEmpty() {
		return []Order{}, nil
	}
	orders, err = s.store.FindOrders(ctx, v, filter)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []Order{}
	}
	return orders, nil
}

// GetOrder returns one order. Orders outside the actor's visibility are reported as
// not found.
func (s *Service) GetOrder(ctx context.Context, actor Actor, id string) (order *Order, err error) {
	defer s.track(OpReadOrder, time.Now(), &err)

	if err = s.authorize(ctx, actor, OpReadOrder); err != nil {
		return nil, err
	}
	return s.visibleOrder(ctx, actor, id)
}

// OrderHistory returns the recorded events of a visible order, oldest first.
func (s *Service) OrderHistory(ctx context.Context, actor Actor, id string) (events []OrderEvent, err error) {
	defer s.track(OpReadOrder, time.Now(), &err)

	if err = s.authorize(ctx, actor, OpReadOrder); err != nil {
		return nil, err
	}
	if _, err = s.visibleOrder(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.store.OrderEvents(ctx, id)
}

func (s *Service) visibleOrder(ctx context.Context, actor Actor, id string) (*Order, error) {
	order, err := s.store.FindOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.Checker(actor).CanSeeOrder(order) {
		return nil, notFound("order", id)
	}
	return order, nil
}

// Profile reloads the actor's own record.
func (s *Service) Profile(ctx context.Context, actor Actor) (profile *Actor, err error) {
	defer s.track(OpReadProfile, time.Now(), &err)

	if err = s.authorize(ctx, actor, OpReadProfile); err != nil {
		return nil, err
	}
	return s.store.FindActor(ctx, actor.ID)
}
