package slooze

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/shopspring/decimal"
)

// MemoryStore is an in-process Store. All operations run under one mutex, which
// gives CreateOrder and TransitionOrder the same atomicity as a database transaction.
type MemoryStore struct {
	mu          sync.RWMutex
	actors      map[string]Actor
	restaurants map[string]Restaurant
	items       map[string]MenuItem
	itemOrder   []string
	orders      map[string]Order
	events      map[string][]OrderEvent
	now         func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		actors:      make(map[string]Actor),
		restaurants: make(map[string]Restaurant),
		items:       make(map[string]MenuItem),
		orders:      make(map[string]Order),
		events:      make(map[string][]OrderEvent),
		now:         time.Now,
	}
}

func (m *MemoryStore) FindActor(ctx context.Context, id string) (*Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.actors[id]
	if !ok {
		return nil, notFound("actor", id)
	}
	return &a, nil
}

func (m *MemoryStore) FindRestaurant(ctx context.Context, id string) (*Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.restaurants[id]
	if !ok {
		return nil, notFound("restaurant", id)
	}
	out := m.restaurantWithMenu(r)
	return &out, nil
}

func (m *MemoryStore) FindMenuItem(ctx context.Context, id string) (*MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[id]
	if !ok {
		return nil, notFound("menu_item", id)
	}
	return &item, nil
}

func (m *MemoryStore) FindOrder(ctx context.Context, id string) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, notFound("order", id)
	}
	out := m.orderWithRelations(o)
	return &out, nil
}

func (m *MemoryStore) FindRestaurants(ctx context.Context, v Visibility, filter ListFilter) ([]Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []Restaurant
	for _, r := range m.restaurants {
		if !v.AllowsRestaurant(r.Region) {
			continue
		}
		if filter.Region != "" && r.Region != filter.Region {
			continue
		}
		matched = append(matched, r)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})

	start, end := filter.page(len(matched))
	out := make([]Restaurant, 0, end-start)
	for _, r := range matched[start:end] {
		out = append(out, m.restaurantWithMenu(r))
	}
	return out, nil
}

func (m *MemoryStore) FindOrders(ctx context.Context, v Visibility, filter ListFilter) ([]Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []Order
	for _, o := range m.orders {
		region := m.restaurants[o.RestaurantID].Region
		if !v.AllowsOrder(o.OwnerID, region) {
			continue
		}
		if !filter.matchesOrder(&o, region) {
			continue
		}
		matched = append(matched, o)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	start, end := filter.page(len(matched))
	out := make([]Order, 0, end-start)
	for _, o := range matched[start:end] {
		out = append(out, m.orderWithRelations(o))
	}
	return out, nil
}

func (m *MemoryStore) OrderEvents(ctx context.Context, orderID string) ([]OrderEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.orders[orderID]; !ok {
		return nil, notFound("order", orderID)
	}
	return append([]OrderEvent(nil), m.events[orderID]...), nil
}

func (m *MemoryStore) CreateActor(ctx context.Context, actor *Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.actors[actor.ID]; ok {
		return NewError(ErrAlreadyExists, "actor "+actor.ID).WithEntity("actor", actor.ID)
	}
	for _, a := range m.actors {
		if a.Email == actor.Email {
			return NewError(ErrAlreadyExists, "email "+actor.Email).WithEntity("actor", a.ID)
		}
	}
	if actor.CreatedAt.IsZero() {
		actor.CreatedAt = m.now()
	}
	m.actors[actor.ID] = *actor
	return nil
}

func (m *MemoryStore) CreateRestaurant(ctx context.Context, restaurant *Restaurant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.restaurants[restaurant.ID]; ok {
		return NewError(ErrAlreadyExists, "restaurant "+restaurant.ID).WithEntity("restaurant", restaurant.ID)
	}
	if restaurant.CreatedAt.IsZero() {
		restaurant.CreatedAt = m.now()
	}
	stored := *restaurant
	stored.MenuItems = nil
	m.restaurants[restaurant.ID] = stored
	return nil
}

func (m *MemoryStore) CreateMenuItem(ctx context.Context, item *MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.restaurants[item.RestaurantID]; !ok {
		return notFound("restaurant", item.RestaurantID)
	}
	if _, ok := m.items[item.ID]; ok {
		return NewError(ErrAlreadyExists, "menu item "+item.ID).WithEntity("menu_item", item.ID)
	}
	now := m.now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}
	m.items[item.ID] = *item
	m.itemOrder = append(m.itemOrder, item.ID)
	return nil
}

func (m *MemoryStore) UpdateMenuItemPrice(ctx context.Context, id string, price decimal.Decimal) (*MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return nil, notFound("menu_item", id)
	}
	item.Price = price
	item.UpdatedAt = m.now()
	m.items[id] = item
	return &item, nil
}

func (m *MemoryStore) CreateOrder(ctx context.Context, order *Order, event *OrderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[order.ID]; ok {
		return NewError(ErrAlreadyExists, "order "+order.ID).WithEntity("order", order.ID)
	}
	if _, ok := m.actors[order.OwnerID]; !ok {
		return notFound("actor", order.OwnerID)
	}
	if _, ok := m.restaurants[order.RestaurantID]; !ok {
		return notFound("restaurant", order.RestaurantID)
	}
	for _, l := range order.Lines {
		if _, ok := m.items[l.MenuItemID]; !ok {
			return notFound("menu_item", l.MenuItemID)
		}
	}

	stored := *order
	stored.Restaurant = nil
	stored.Lines = make([]OrderLine, len(order.Lines))
	for i, l := range order.Lines {
		l.OrderID = order.ID
		stored.Lines[i] = l
		order.Lines[i].OrderID = order.ID
	}
	m.orders[order.ID] = stored
	m.events[order.ID] = append(m.events[order.ID], *event)
	return nil
}

func (m *MemoryStore) TransitionOrder(ctx context.Context, id string, from OrderStatus, event *OrderEvent) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, notFound("order", id)
	}
	if o.Status != from {
		return nil, NewError(ErrInvalidTransition,
			fmt.Sprintf("order is %s and cannot become %s", o.Status, event.ToStatus)).
			WithEntity("order", id)
	}

	event.FromStatus = from
	o.Status = event.ToStatus
	o.UpdatedAt = event.Timestamp
	m.orders[id] = o
	m.events[id] = append(m.events[id], *event)

	out := m.orderWithRelations(o)
	return &out, nil
}

func (m *MemoryStore) TouchOrder(ctx context.Context, id string, event *OrderEvent) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, notFound("order", id)
	}
	o.UpdatedAt = event.Timestamp
	m.orders[id] = o
	m.events[id] = append(m.events[id], *event)

	out := m.orderWithRelations(o)
	return &out, nil
}

// Health always reports healthy; there is no connection to lose.
func (m *MemoryStore) Health(ctx context.Context) dbkit.HealthStatus {
	return dbkit.HealthStatus{Healthy: true}
}

func (m *MemoryStore) IsHealthy(ctx context.Context) bool {
	return true
}

func (m *MemoryStore) GetPoolStats() dbkit.PoolStats {
	return dbkit.PoolStats{}
}

// restaurantWithMenu copies r and attaches its menu items in creation order.
// Callers hold m.mu.
func (m *MemoryStore) restaurantWithMenu(r Restaurant) Restaurant {
	r.MenuItems = nil
	for _, id := range m.itemOrder {
		if item := m.items[id]; item.RestaurantID == r.ID {
			r.MenuItems = append(r.MenuItems, item)
		}
	}
	return r
}

// orderWithRelations copies o, its lines and its restaurant. Callers hold m.mu.
func (m *MemoryStore) orderWithRelations(o Order) Order {
	o.Lines = append([]OrderLine(nil), o.Lines...)
	if r, ok := m.restaurants[o.RestaurantID]; ok {
		rc := r
		rc.MenuItems = nil
		o.Restaurant = &rc
	}
	return o
}
