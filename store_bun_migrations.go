package slooze

import (
	"context"
	"fmt"

	"github.com/fernandezvara/dbkit"
)

// Migrations returns all database migrations required by BunStore.
// Run them with db.Migrate(ctx, slooze.Migrations()) or Migrate.
func Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "slooze-001",
			Description: "Create users table",
			SQL: `
                CREATE TABLE IF NOT EXISTS users (
                    id TEXT PRIMARY KEY,
                    name TEXT NOT NULL,
                    email TEXT NOT NULL UNIQUE,
                    role TEXT NOT NULL CHECK (role IN ('ADMIN', 'MANAGER', 'MEMBER')),
                    region TEXT CHECK (region IN ('INDIA', 'USA')),
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "slooze-002",
			Description: "Create restaurants table",
			SQL: `
                CREATE TABLE IF NOT EXISTS restaurants (
                    id TEXT PRIMARY KEY,
                    name TEXT NOT NULL,
                    region TEXT NOT NULL CHECK (region IN ('INDIA', 'USA')),
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "slooze-003",
			Description: "Create menu_items table",
			SQL: `
                CREATE TABLE IF NOT EXISTS menu_items (
                    id TEXT PRIMARY KEY,
                    restaurant_id TEXT NOT NULL REFERENCES restaurants(id),
                    name TEXT NOT NULL,
                    price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "slooze-004",
			Description: "Create orders table",
			SQL: `
                CREATE TABLE IF NOT EXISTS orders (
                    id TEXT PRIMARY KEY,
                    owner_id TEXT NOT NULL REFERENCES users(id),
                    restaurant_id TEXT NOT NULL REFERENCES restaurants(id),
                    status TEXT NOT NULL CHECK (status IN ('PENDING', 'PAID', 'CANCELLED')),
                    payment_method TEXT,
                    total NUMERIC(12,2) NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "slooze-005",
			Description: "Create order_lines table",
			SQL: `
                CREATE TABLE IF NOT EXISTS order_lines (
                    id TEXT PRIMARY KEY,
                    order_id TEXT NOT NULL REFERENCES orders(id),
                    menu_item_id TEXT NOT NULL REFERENCES menu_items(id),
                    position INT NOT NULL,
                    name TEXT NOT NULL,
                    quantity INT NOT NULL CHECK (quantity > 0),
                    unit_price NUMERIC(12,2) NOT NULL
                )`,
		},
		{
			ID:          "slooze-006",
			Description: "Create order_events table",
			SQL: `
                CREATE TABLE IF NOT EXISTS order_events (
                    id TEXT PRIMARY KEY,
                    order_id TEXT NOT NULL REFERENCES orders(id),
                    type TEXT NOT NULL,
                    from_status TEXT,
                    to_status TEXT NOT NULL,
                    timestamp TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    actor_id TEXT NOT NULL,
                    ip_address TEXT,
                    user_agent TEXT,
                    request_id TEXT
                )`,
		},
		{
			ID:          "slooze-007",
			Description: "Index menu_items by restaurant",
			SQL: `
                CREATE INDEX IF NOT EXISTS idx_menu_items_restaurant ON menu_items (restaurant_id)`,
		},
		{
			ID:          "slooze-008",
			Description: "Index orders by owner",
			SQL: `
                CREATE INDEX IF NOT EXISTS idx_orders_owner ON orders (owner_id)`,
		},
		{
			ID:          "slooze-009",
			Description: "Index orders by restaurant",
			SQL: `
                CREATE INDEX IF NOT EXISTS idx_orders_restaurant ON orders (restaurant_id)`,
		},
		{
			ID:          "slooze-010",
			Description: "Index order_lines by order",
			SQL: `
                CREATE INDEX IF NOT EXISTS idx_order_lines_order ON order_lines (order_id)`,
		},
		{
			ID:          "slooze-011",
			Description: "Index order_events by order",
			SQL: `
                CREATE INDEX IF NOT EXISTS idx_order_events_order ON order_events (order_id)`,
		},
	}
}

// Migrate applies pending migrations and returns the ids that were applied.
func Migrate(ctx context.Context, db *dbkit.DBKit) ([]string, error) {
	result, err := db.Migrate(ctx, Migrations())
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	applied := make([]string, 0, len(result.Applied))
	for _, m := range result.Applied {
		applied = append(applied, m.ID)
	}
	return applied, nil
}
