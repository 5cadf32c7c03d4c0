package slooze

import (
	"context"

	"github.com/fernandezvara/dbkit"
	"github.com/shopspring/decimal"
)

// Store is the persistence collaborator. Implementations must make CreateOrder and
// TransitionOrder atomic: an order is stored with all its lines or not at all, and
// at most one transition out of PENDING succeeds per order.
type Store interface {
	FindActor(ctx context.Context, id string) (*Actor, error)
	FindRestaurant(ctx context.Context, id string) (*Restaurant, error)
	FindMenuItem(ctx context.Context, id string) (*MenuItem, error)
	FindOrder(ctx context.Context, id string) (*Order, error)

	FindRestaurants(ctx context.Context, v Visibility, filter ListFilter) ([]Restaurant, error)
	FindOrders(ctx context.Context, v Visibility, filter ListFilter) ([]Order, error)
	OrderEvents(ctx context.Context, orderID string) ([]OrderEvent, error)

	CreateActor(ctx context.Context, actor *Actor) error
	CreateRestaurant(ctx context.Context, restaurant *Restaurant) error
	CreateMenuItem(ctx context.Context, item *MenuItem) error
	UpdateMenuItemPrice(ctx context.Context, id string, price decimal.Decimal) (*MenuItem, error)

	// CreateOrder stores the order, its lines and the creation event together.
	CreateOrder(ctx context.Context, order *Order, event *OrderEvent) error

	// TransitionOrder moves the order from status from to event.ToStatus and records
	// event. It returns ErrInvalidTransition when the order is no longer in from.
	TransitionOrder(ctx context.Context, id string, from OrderStatus, event *OrderEvent) (*Order, error)

	// TouchOrder bumps updated_at and records event.
	TouchOrder(ctx context.Context, id string, event *OrderEvent) (*Order, error)
}

// HealthMonitor defines the health monitoring interface
type HealthMonitor interface {
	Health(ctx context.Context) dbkit.HealthStatus
	IsHealthy(ctx context.Context) bool
	GetPoolStats() dbkit.PoolStats
}

// PoolManager defines the connection pool management interface
type PoolManager interface {
	ConfigureConnectionPool(config PoolConfig) error
	GetConnectionPoolConfig() (*PoolConfig, error)
}

// TransactionMonitor defines the transaction monitoring interface
type TransactionMonitor interface {
	GetTransactionMetrics() TransactionMetrics
	ResetTransactionMetrics()
	IsTransactionHealthy() bool
}

var (
	_ Store              = (*MemoryStore)(nil)
	_ Store              = (*BunStore)(nil)
	_ HealthMonitor      = (*BunStore)(nil)
	_ HealthMonitor      = (*MemoryStore)(nil)
	_ PoolManager        = (*BunStore)(nil)
	_ TransactionMonitor = (*BunStore)(nil)
)
