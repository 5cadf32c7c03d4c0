package slooze

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Role is the closed set of actor roles.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleMember  Role = "MEMBER"
)

// Roles lists every defined role.
var Roles = []Role{RoleAdmin, RoleManager, RoleMember}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleMember:
		return true
	}
	return false
}

// ParseRole parses a role name, case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", NewError(ErrInvalidInput, "unknown role "+s)
	}
	return r, nil
}

// Region is a geographic partition scoping visibility for non-admin actors.
type Region string

const (
	RegionIndia Region = "INDIA"
	RegionUSA   Region = "USA"
)

// Regions lists every defined region.
var Regions = []Region{RegionIndia, RegionUSA}

// Valid reports whether r is one of the defined regions.
func (r Region) Valid() bool {
	switch r {
	case RegionIndia, RegionUSA:
		return true
	}
	return false
}

// ParseRegion parses a region name, case-insensitively.
func ParseRegion(s string) (Region, error) {
	r := Region(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", NewError(ErrInvalidInput, "unknown region "+s)
	}
	return r, nil
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderCancelled OrderStatus = "CANCELLED"
)

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	return s == OrderPaid || s == OrderCancelled
}

// Actor is an authenticated user of the system.
// MANAGER and MEMBER always carry a region; ADMIN's region is advisory.
type Actor struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     string    `bun:"email,notnull,unique" json:"email"`
	Role      Role      `bun:"role,notnull" json:"role"`
	Region    Region    `bun:"region,nullzero" json:"region,omitempty"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// Validate checks the actor's role and region combination.
func (a *Actor) Validate() error {
	if a.ID == "" {
		return NewError(ErrInvalidInput, "actor id is required")
	}
	if !a.Role.Valid() {
		return NewError(ErrInvalidInput, "unknown role "+string(a.Role)).WithEntity("actor", a.ID)
	}
	if a.Region != "" && !a.Region.Valid() {
		return NewError(ErrInvalidInput, "unknown region "+string(a.Region)).WithEntity("actor", a.ID)
	}
	if a.Role != RoleAdmin && a.Region == "" {
		return NewError(ErrInvalidInput, "managers and members require a region").WithEntity("actor", a.ID)
	}
	return nil
}

// Restaurant owns an ordered collection of menu items. Its region never changes.
type Restaurant struct {
	bun.BaseModel `bun:"table:restaurants,alias:r"`

	ID        string     `bun:"id,pk" json:"id"`
	Name      string     `bun:"name,notnull" json:"name"`
	Region    Region     `bun:"region,notnull" json:"region"`
	CreatedAt time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	MenuItems []MenuItem `bun:"rel:has-many,join:id=restaurant_id" json:"menuItems"`
}

// MenuItem is exclusively owned by its restaurant.
type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items,alias:mi"`

	ID           string          `bun:"id,pk" json:"id"`
	RestaurantID string          `bun:"restaurant_id,notnull" json:"restaurantId"`
	Name         string          `bun:"name,notnull" json:"name"`
	Price        decimal.Decimal `bun:"price,type:numeric(12,2),notnull" json:"price"`
	CreatedAt    time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// Order is placed against one restaurant. Total is derived from the line snapshot.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID            string          `bun:"id,pk" json:"id"`
	OwnerID       string          `bun:"owner_id,notnull" json:"ownerId"`
	RestaurantID  string          `bun:"restaurant_id,notnull" json:"restaurantId"`
	Status        OrderStatus     `bun:"status,notnull" json:"status"`
	PaymentMethod string          `bun:"payment_method" json:"paymentMethod"`
	Total         decimal.Decimal `bun:"total,type:numeric(12,2),notnull" json:"total"`
	CreatedAt     time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt     time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`

	Restaurant *Restaurant `bun:"rel:belongs-to,join:restaurant_id=id" json:"restaurant,omitempty"`
	Lines      []OrderLine `bun:"rel:has-many,join:id=order_id" json:"lines"`
}

// OrderLine references a menu item with a positive quantity. Name and unit price are
// copied from the menu item when the order is placed.
type OrderLine struct {
	bun.BaseModel `bun:"table:order_lines,alias:ol"`

	ID         string          `bun:"id,pk" json:"id"`
	OrderID    string          `bun:"order_id,notnull" json:"orderId"`
	MenuItemID string          `bun:"menu_item_id,notnull" json:"menuItemId"`
	Position   int             `bun:"position,notnull" json:"position"`
	Name       string          `bun:"name,notnull" json:"name"`
	Quantity   int             `bun:"quantity,notnull" json:"quantity"`
	UnitPrice  decimal.Decimal `bun:"unit_price,type:numeric(12,2),notnull" json:"unitPrice"`
}

// Subtotal returns unit price times quantity.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderEventType names an entry in an order's history.
type OrderEventType string

const (
	OrderEventCreated              OrderEventType = "created"
	OrderEventPaid                 OrderEventType = "paid"
	OrderEventCancelled            OrderEventType = "cancelled"
	OrderEventPaymentMethodTouched OrderEventType = "payment_method_touched"
)

// OrderEvent records every change applied to an order.
type OrderEvent struct {
	bun.BaseModel `bun:"table:order_events,alias:oe"`

	ID         string         `bun:"id,pk" json:"id"`
	OrderID    string         `bun:"order_id,notnull" json:"orderId"`
	Type       OrderEventType `bun:"type,notnull" json:"type"`
	FromStatus OrderStatus    `bun:"from_status,nullzero" json:"fromStatus,omitempty"`
	ToStatus   OrderStatus    `bun:"to_status,notnull" json:"toStatus"`
	Timestamp  time.Time      `bun:"timestamp,nullzero,notnull,default:current_timestamp" json:"timestamp"`

	// Request metadata
	ActorID   string `bun:"actor_id,notnull" json:"actorId"`
	IPAddress string `bun:"ip_address" json:"ipAddress,omitempty"`
	UserAgent string `bun:"user_agent" json:"userAgent,omitempty"`
	RequestID string `bun:"request_id" json:"requestId,omitempty"`
}

// LineRequest is one requested line of a new order.
type LineRequest struct {
	MenuItemID string `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
}

// PlaceOrderInput holds the arguments of PlaceOrder.
type PlaceOrderInput struct {
	RestaurantID  string        `json:"restaurantId"`
	PaymentMethod string        `json:"paymentMethod"`
	OwnerID       string        `json:"ownerId,omitempty"` // Defaults to the caller
	Lines         []LineRequest `json:"items"`
}
