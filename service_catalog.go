package slooze

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CreateRestaurantInput holds the arguments of CreateRestaurant.
type CreateRestaurantInput struct {
	ID     string `json:"id,omitempty"` // Generated when empty
	Name   string `json:"name"`
	Region Region `json:"region"`
}

// CreateMenuItemInput holds the arguments of CreateMenuItem.
type CreateMenuItemInput struct {
	ID           string          `json:"id,omitempty"` // Generated when empty
	RestaurantID string          `json:"restaurantId"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
}

// CreateRestaurant adds a restaurant. ADMIN only.
func (s *Service) CreateRestaurant(ctx context.Context, actor Actor, in CreateRestaurantInput) (restaurant *Restaurant, err error) {
	defer s.track(OpCreateRestaurant, time.Now(), &err)

	if err = s.authorize(ctx, actor, OpCreateRestaurant); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, NewError(ErrInvalidInput, "restaurant name is required")
	}
	if !in.Region.Valid() {
		return nil, NewError(ErrInvalidInput, "unknown region "+string(in.Region))
	}

	restaurant = &Restaurant{
		ID:        in.ID,
		Name:      name,
		Region:    in.Region,
		CreatedAt: s.now(),
	}
	if restaurant.ID == "" {
		restaurant.ID = s.newID()
	}
	if err = s.store.CreateRestaurant(ctx, restaurant); err != nil {
		return nil, err
	}
	restaurant.MenuItems = []MenuItem{}

	s.log(ctx).Info("restaurant created", "restaurant_id", restaurant.ID, "region", restaurant.Region, "actor_id", actor.ID)
	return restaurant, nil
}

// CreateMenuItem adds an item to a restaurant's menu. ADMIN and MANAGER; a MANAGER
// only for restaurants in their region. An unknown restaurant fails with ErrNotFound
// and nothing is created.
func (s *Service) CreateMenuItem(ctx context.Context, actor Actor, in CreateMenuItemInput) (item *MenuItem, err error) {
	defer s.track(OpCreateMenuItem, time.Now(), &err)

	if err = s.authorize(ctx, actor, OpCreateMenuItem); err != nil {
		return nil, err
	}

	restaurant, err := s.store.FindRestaurant(ctx, in.RestaurantID)
	if err != nil {
		return nil, err
	}
	if !ScopeRestaurants(actor).AllowsRestaurant(restaurant.Region) {
		return nil, outOfScope(actor, OpCreateMenuItem, "restaurant", restaurant.ID)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, NewError(ErrInvalidInput, "menu item name is required")
	}
	if err = validatePrice(in.Price); err != nil {
		return nil, err
	}

	now := s.now()
	item = &MenuItem{
		ID:           in.ID,
		RestaurantID: restaurant.ID,
		Name:         name,
		Price:        in.Price,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if item.ID == "" {
		item.ID = s.newID()
	}
	if err = s.store.CreateMenuItem(ctx, item); err != nil {
		return nil, err
	}

	s.log(ctx).Info("menu item created", "menu_item_id", item.ID, "restaurant_id", item.RestaurantID, "actor_id", actor.ID)
	return item, nil
}

// UpdateMenuItemPrice changes the current price of a menu item. Orders already placed
// keep their snapshot prices and totals.
func (s *Service) UpdateMenuItemPrice(ctx context.Context, actor Actor, itemID string, price decimal.Decimal) (item *MenuItem, err error) {
	defer s.track(OpUpdateMenuItem, time.Now(), &err)

	if err = s.authorize(ctx, actor, OpUpdateMenuItem); err != nil {
		return nil, err
	}

	current, err := s.store.FindMenuItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	restaurant, err := s.store.FindRestaurant(ctx, current.RestaurantID)
	if err != nil {
		return nil, err
	}
	if !ScopeRestaurants(actor).AllowsRestaurant(restaurant.Region) {
		return nil, outOfScope(actor, OpUpdateMenuItem, "menu_item", itemID)
	}
	if err = validatePrice(price); err != nil {
		return nil, err
	}

	return s.store.UpdateMenuItemPrice(ctx, itemID, price)
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return NewError(ErrInvalidInput, "price must not be negative")
	}
	return nil
}
