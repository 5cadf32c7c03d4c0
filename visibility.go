package slooze

import (
	"github.com/uptrace/bun"
)

// ResourceClass names a collection the Visibility Scoper can narrow.
type ResourceClass int

const (
	ResourceRestaurants ResourceClass = iota + 1
	ResourceOrders
)

// VisibilityKind selects how a Visibility filters rows.
type VisibilityKind int

const (
	// VisibleNone matches nothing. It is the zero value so an unset Visibility fails closed.
	VisibleNone VisibilityKind = iota
	// VisibleAll applies no filter.
	VisibleAll
	// VisibleRegion matches restaurants in Region, or orders placed against them.
	VisibleRegion
	// VisibleOwner matches orders owned by OwnerID.
	VisibleOwner
)

// Visibility is the row predicate computed for an actor and a resource class.
type Visibility struct {
	Kind    VisibilityKind
	Region  Region
	OwnerID string
}

// Scope computes the predicate restricting what actor may see of class.
//
// Restaurants: ADMIN sees all, everyone else sees their region.
// Orders: ADMIN sees all, MANAGER sees orders against restaurants in their region,
// MEMBER sees only their own orders. A non-admin without a region sees no restaurants,
// and for managers no orders.
func Scope(actor Actor, class ResourceClass) Visibility {
	if actor.Role == RoleAdmin {
		return Visibility{Kind: VisibleAll}
	}

	switch class {
	case ResourceRestaurants:
		if actor.Role != RoleManager && actor.Role != RoleMember {
			return Visibility{}
		}
		return regionScope(actor.Region)

	case ResourceOrders:
		switch actor.Role {
		case RoleManager:
			return regionScope(actor.Region)
		case RoleMember:
			if actor.ID == "" {
				return Visibility{}
			}
			return Visibility{Kind: VisibleOwner, OwnerID: actor.ID}
		}
	}
	return Visibility{}
}

func regionScope(region Region) Visibility {
	if !region.Valid() {
		return Visibility{}
	}
	return Visibility{Kind: VisibleRegion, Region: region}
}

// ScopeRestaurants is shorthand for Scope(actor, ResourceRestaurants).
func ScopeRestaurants(actor Actor) Visibility {
	return Scope(actor, ResourceRestaurants)
}

// ScopeOrders is shorthand for Scope(actor, ResourceOrders).
func ScopeOrders(actor Actor) Visibility {
	return Scope(actor, ResourceOrders)
}

// IsEmpty reports whether the predicate matches nothing.
func (v Visibility) IsEmpty() bool {
	return v.Kind == VisibleNone
}

// AllowsRestaurant reports whether a restaurant in region is visible.
func (v Visibility) AllowsRestaurant(region Region) bool {
	switch v.Kind {
	case VisibleAll:
		return true
	case VisibleRegion:
		return region == v.Region
	}
	return false
}

// AllowsOrder reports whether an order owned by ownerID and placed against a restaurant
// in restaurantRegion is visible. The owner's own region is never consulted.
func (v Visibility) AllowsOrder(ownerID string, restaurantRegion Region) bool {
	switch v.Kind {
	case VisibleAll:
		return true
	case VisibleRegion:
		return restaurantRegion == v.Region
	case VisibleOwner:
		return ownerID == v.OwnerID
	}
	return false
}

// applyRestaurants narrows a restaurants query (alias "r").
func (v Visibility) applyRestaurants(q *bun.SelectQuery) *bun.SelectQuery {
	switch v.Kind {
	case VisibleAll:
		return q
	case VisibleRegion:
		return q.Where("r.region = ?", v.Region)
	}
	return q.Where("FALSE")
}

// applyOrders narrows an orders query (alias "o").
func (v Visibility) applyOrders(q *bun.SelectQuery) *bun.SelectQuery {
	switch v.Kind {
	case VisibleAll:
		return q
	case VisibleRegion:
		return q.Where("o.restaurant_id IN (SELECT id FROM restaurants WHERE region = ?)", v.Region)
	case VisibleOwner:
		return q.Where("o.owner_id = ?", v.OwnerID)
	}
	return q.Where("FALSE")
}
