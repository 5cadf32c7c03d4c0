package slooze

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fernandezvara/dbkit"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// BunStore is the PostgreSQL Store built on dbkit and bun.
//
// Error Handling:
// Every query is wrapped with dbkit's chainable error helpers so failures carry the
// operation name. Missing rows map to ErrNotFound, unique violations to
// ErrAlreadyExists and anything else to ErrDatabaseError with the cause attached.
type BunStore struct {
	db        dbkit.IDB
	txMonitor *transactionMonitor
}

// NewBunStore creates a store over a dbkit connection.
//
// Example:
//
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	store := slooze.NewBunStore(db)
func NewBunStore(db dbkit.IDB) *BunStore {
	return &BunStore{
		db:        db,
		txMonitor: newTransactionMonitor(),
	}
}

// ============================================================================
// READS
// ============================================================================

func (s *BunStore) FindActor(ctx context.Context, id string) (*Actor, error) {
	a := new(Actor)
	err := dbkit.WithErr1(s.db.NewSelect().Model(a).Where("u.id = ?", id).Scan(ctx), "FindActor").Err()
	if err != nil {
		return nil, mapStoreErr(err, "actor", id)
	}
	return a, nil
}

func (s *BunStore) FindRestaurant(ctx context.Context, id string) (*Restaurant, error) {
	r := new(Restaurant)
	err := dbkit.WithErr1(s.db.NewSelect().
		Model(r).
		Relation("MenuItems", orderMenuItems).
		Where("r.id = ?", id).
		Scan(ctx), "FindRestaurant").Err()
	if err != nil {
		return nil, mapStoreErr(err, "restaurant", id)
	}
	return r, nil
}

func (s *BunStore) FindMenuItem(ctx context.Context, id string) (*MenuItem, error) {
	item := new(MenuItem)
	err := dbkit.WithErr1(s.db.NewSelect().Model(item).Where("mi.id = ?", id).Scan(ctx), "FindMenuItem").Err()
	if err != nil {
		return nil, mapStoreErr(err, "menu_item", id)
	}
	return item, nil
}

func (s *BunStore) FindOrder(ctx context.Context, id string) (*Order, error) {
	return findOrder(ctx, s.db, id)
}

func findOrder(ctx context.Context, db dbkit.IDB, id string) (*Order, error) {
	o := new(Order)
	err := dbkit.WithErr1(db.NewSelect().
		Model(o).
		Relation("Restaurant").
		Relation("Lines", orderLines).
		Where("o.id = ?", id).
		Scan(ctx), "FindOrder").Err()
	if err != nil {
		return nil, mapStoreErr(err, "order", id)
	}
	return o, nil
}

func (s *BunStore) FindRestaurants(ctx context.Context, v Visibility, filter ListFilter) ([]Restaurant, error) {
	var restaurants []Restaurant
	if v.IsEmpty() {
		return restaurants, nil
	}

	q := s.db.NewSelect().Model(&restaurants).Relation("MenuItems", orderMenuItems)
	q = v.applyRestaurants(q)
	if filter.Region != "" {
		q = q.Where("r.region = ?", filter.Region)
	}
	q = q.OrderExpr("r.name ASC, r.id ASC").Limit(filter.limit())
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	err := dbkit.WithErr1(q.Scan(ctx), "FindRestaurants").Err()
	if err != nil {
		return nil, mapStoreErr(err, "restaurant", "")
	}
	return restaurants, nil
}

func (s *BunStore) FindOrders(ctx context.Context, v Visibility, filter ListFilter) ([]Order, error) {
	var orders []Order
	if v.IsEmpty() {
		return orders, nil
	}

	q := s.db.NewSelect().Model(&orders).Relation("Restaurant").Relation("Lines", orderLines)
	q = v.applyOrders(q)
	if filter.Region != "" {
		q = q.Where("o.restaurant_id IN (SELECT id FROM restaurants WHERE region = ?)", filter.Region)
	}
	if filter.RestaurantID != "" {
		q = q.Where("o.restaurant_id = ?", filter.RestaurantID)
	}
	if filter.Status != "" {
		q = q.Where("o.status = ?", filter.Status)
	}
	if !filter.Since.IsZero() {
		q = q.Where("o.created_at >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("o.created_at <= ?", filter.Until)
	}
	q = q.OrderExpr("o.created_at DESC, o.id ASC").Limit(filter.limit())
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	err := dbkit.WithErr1(q.Scan(ctx), "FindOrders").Err()
	if err != nil {
		return nil, mapStoreErr(err, "order", "")
	}
	return orders, nil
}

// OrderEvents reads the existence check and the events in one read-only snapshot.
func (s *BunStore) OrderEvents(ctx context.Context, orderID string) ([]OrderEvent, error) {
	var events []OrderEvent
	err := s.ReadOnlyTransaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		exists, err := dbkit.Exists[Order](ctx, tx, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("o.id = ?", orderID)
		})
		if err != nil {
			return mapStoreErr(err, "order", orderID)
		}
		if !exists {
			return notFound("order", orderID)
		}

		err = dbkit.WithErr1(tx.NewSelect().
			Model(&events).
			Where("oe.order_id = ?", orderID).
			OrderExpr("oe.timestamp ASC, oe.id ASC").
			Scan(ctx), "OrderEvents").Err()
		return mapStoreErr(err, "order", orderID)
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ============================================================================
// WRITES
// ============================================================================

func (s *BunStore) CreateActor(ctx context.Context, actor *Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	result, err := s.db.NewInsert().Model(actor).Exec(ctx)
	return mapStoreErr(dbkit.WithErr(result, err, "CreateActor").Err(), "actor", actor.ID)
}

func (s *BunStore) CreateRestaurant(ctx context.Context, restaurant *Restaurant) error {
	result, err := s.db.NewInsert().Model(restaurant).Exec(ctx)
	return mapStoreErr(dbkit.WithErr(result, err, "CreateRestaurant").Err(), "restaurant", restaurant.ID)
}

func (s *BunStore) CreateMenuItem(ctx context.Context, item *MenuItem) error {
	exists, err := dbkit.Exists[Restaurant](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("r.id = ?", item.RestaurantID)
	})
	if err != nil {
		return mapStoreErr(err, "restaurant", item.RestaurantID)
	}
	if !exists {
		return notFound("restaurant", item.RestaurantID)
	}

	result, err := s.db.NewInsert().Model(item).Exec(ctx)
	return mapStoreErr(dbkit.WithErr(result, err, "CreateMenuItem").Err(), "menu_item", item.ID)
}

func (s *BunStore) UpdateMenuItemPrice(ctx context.Context, id string, price decimal.Decimal) (*MenuItem, error) {
	item := new(MenuItem)
	_, err := s.db.NewUpdate().
		Model(item).
		Set("price = ?", price).
		Set("updated_at = current_timestamp").
		Where("mi.id = ?", id).
		Returning("*").
		Exec(ctx, item)
	err = dbkit.WithErr1(err, "UpdateMenuItemPrice").Err()
	if err != nil {
		return nil, mapStoreErr(err, "menu_item", id)
	}
	if item.ID == "" {
		return nil, notFound("menu_item", id)
	}
	return item, nil
}

// CreateOrder inserts the order, its lines and the creation event in one transaction.
func (s *BunStore) CreateOrder(ctx context.Context, order *Order, event *OrderEvent) error {
	return s.Transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		result, err := tx.NewInsert().Model(order).Exec(ctx)
		if err := dbkit.WithErr(result, err, "CreateOrder").Err(); err != nil {
			return mapStoreErr(err, "order", order.ID)
		}

		lines := make([]*OrderLine, len(order.Lines))
		for i := range order.Lines {
			order.Lines[i].OrderID = order.ID
			lines[i] = &order.Lines[i]
		}
		if _, err := dbkit.BatchInsert(ctx, tx, lines, dbkit.BatchSize); err != nil {
			return mapStoreErr(dbkit.WithErr1(err, "CreateOrderLines").Err(), "order", order.ID)
		}

		return insertEvent(ctx, tx, event)
	})
}

// TransitionOrder applies a compare-and-set on the order status. The UPDATE only
// matches while the row is still in from, so concurrent transitions on the same
// order cannot both succeed.
func (s *BunStore) TransitionOrder(ctx context.Context, id string, from OrderStatus, event *OrderEvent) (*Order, error) {
	var out *Order
	err := s.Transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		result, err := tx.NewUpdate().
			Model((*Order)(nil)).
			Set("status = ?", event.ToStatus).
			Set("updated_at = ?", event.Timestamp).
			Where("o.id = ?", id).
			Where("o.status = ?", from).
			Exec(ctx)
		if err := dbkit.WithErr(result, err, "TransitionOrder").Err(); err != nil {
			return mapStoreErr(err, "order", id)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return mapStoreErr(err, "order", id)
		}
		if rows == 0 {
			current, err := findOrder(ctx, tx, id)
			if err != nil {
				return err
			}
			return NewError(ErrInvalidTransition,
				fmt.Sprintf("order is %s and cannot become %s", current.Status, event.ToStatus)).
				WithEntity("order", id)
		}

		event.FromStatus = from
		if err := insertEvent(ctx, tx, event); err != nil {
			return err
		}

		out, err = findOrder(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BunStore) TouchOrder(ctx context.Context, id string, event *OrderEvent) (*Order, error) {
	var out *Order
	err := s.Transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		result, err := tx.NewUpdate().
			Model((*Order)(nil)).
			Set("updated_at = ?", event.Timestamp).
			Where("o.id = ?", id).
			Exec(ctx)
		if err := dbkit.WithErr(result, err, "TouchOrder").Err(); err != nil {
			return mapStoreErr(err, "order", id)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return mapStoreErr(err, "order", id)
		}
		if rows == 0 {
			return notFound("order", id)
		}

		if err := insertEvent(ctx, tx, event); err != nil {
			return err
		}

		out, err = findOrder(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func insertEvent(ctx context.Context, db dbkit.IDB, event *OrderEvent) error {
	result, err := db.NewInsert().Model(event).Exec(ctx)
	return mapStoreErr(dbkit.WithErr(result, err, "InsertOrderEvent").Err(), "order", event.OrderID)
}

func orderMenuItems(q *bun.SelectQuery) *bun.SelectQuery {
	return q.OrderExpr("mi.created_at ASC, mi.id ASC")
}

func orderLines(q *bun.SelectQuery) *bun.SelectQuery {
	return q.OrderExpr("ol.position ASC")
}

// ============================================================================
// ERROR MAPPING
// ============================================================================

// PostgreSQL error codes the store distinguishes.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsRetryable reports whether err is a serialization failure or deadlock that a
// caller may choose to retry. The store itself never retries.
func IsRetryable(err error) bool {
	switch pgErrorCode(err) {
	case pgSerializationFailure, pgDeadlockDetected:
		return true
	}
	return false
}

// mapStoreErr translates driver errors onto the package sentinels. Errors that
// already carry a sentinel pass through unchanged.
func mapStoreErr(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	switch {
	case errors.Is(err, sql.ErrNoRows) || dbkit.IsNotFound(err):
		return notFound(entity, id)
	case dbkit.IsDuplicate(err) || pgErrorCode(err) == pgUniqueViolation:
		return NewError(ErrAlreadyExists, entity+" already exists").WithEntity(entity, id)
	case pgErrorCode(err) == pgForeignKeyViolation:
		return NewError(ErrNotFound, "referenced record not found").WithEntity(entity, id)
	}
	return fmt.Errorf("%w: %w", ErrDatabaseError, err)
}
