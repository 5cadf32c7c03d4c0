// Package slooze provides the access-control and order-lifecycle core of a
// region-partitioned food ordering service.
//
// Every request is made by an authenticated Actor carrying a Role (ADMIN, MANAGER or
// MEMBER) and, for non-admins, a Region. Two layers decide what an actor may do:
// a static role-to-operation Policy, and a Visibility that narrows which restaurants
// and orders the actor can see.
//
// # Core Concepts
//
// Operation: A dot-separated name like "orders.pay" or "restaurants.list". Policies
// grant patterns with wildcards: "*" (all), "orders.*" (all order actions),
// "*.read" (all read actions).
//
// Visibility: The slice of data an actor sees. ADMIN sees everything. MANAGER sees
// the restaurants of their region and every order placed against them. MEMBER sees
// the restaurants of their region and only their own orders. A non-admin without a
// region sees no restaurants, and a manager without one sees no orders.
//
// Order lifecycle: PENDING -> PAID or PENDING -> CANCELLED. Both targets are terminal.
// Lines snapshot the menu item's name and price when the order is placed, so menu
// price changes never alter an existing order's total.
//
// # Default Policy
//
//	ADMIN    *
//	MANAGER  *.list, *.read, menu_items.create, menu_items.update,
//	         orders.place, orders.pay, orders.cancel
//	MEMBER   *.list, *.read
//
// # Basic Usage
//
//	db, _ := dbkit.New(dbkit.Config{URL: os.Getenv("DATABASE_URL")})
//	slooze.Migrate(ctx, db)
//
//	service := slooze.NewService(slooze.NewBunStore(db))
//
//	order, err := service.PlaceOrder(ctx, manager, slooze.PlaceOrderInput{
//	    RestaurantID: "restaurant-india-1",
//	    Lines:        []slooze.LineRequest{{MenuItemID: naanID, Quantity: 2}},
//	})
//	_, err = service.PayOrder(ctx, manager, order.ID)
//
// # HTTP
//
// NewHandler exposes the service as a JSON API. Middleware.Authenticate verifies
// HS256 bearer tokens and reloads the actor from the store; RequireOperation runs
// the policy before the handler is reached. Errors are rendered as
// {"error": kind, "message": text} with a status derived from the error kind.
//
// # Stores
//
// BunStore persists to PostgreSQL through dbkit and bun; MemoryStore keeps everything
// in process and is used by tests and the -store=memory server mode. Both apply order
// transitions as a compare-and-set on the current status, so two concurrent attempts
// to pay or cancel the same order cannot both succeed.
package slooze
