package slooze

import "time"

// DefaultListLimit caps list results when no limit is set.
const DefaultListLimit = 100

// ListFilter provides options for narrowing restaurant and order listings.
// It never widens what the actor's Visibility allows.
type ListFilter struct {
	// Filter restaurants by region (orders: by their restaurant's region)
	Region Region

	// Filter orders by restaurant
	RestaurantID string

	// Filter orders by status
	Status OrderStatus

	// Filter orders by creation time
	Since time.Time
	Until time.Time

	// Pagination
	Limit  int
	Offset int
}

// NewListFilter creates a new ListFilter with default values.
func NewListFilter() ListFilter {
	return ListFilter{
		Limit: DefaultListLimit,
	}
}

// WithRegion sets the region filter.
func (f ListFilter) WithRegion(region Region) ListFilter {
	f.Region = region
	return f
}

// WithRestaurant sets the restaurant filter.
func (f ListFilter) WithRestaurant(restaurantID string) ListFilter {
	f.RestaurantID = restaurantID
	return f
}

// WithStatus sets the status filter.
func (f ListFilter) WithStatus(status OrderStatus) ListFilter {
	f.Status = status
	return f
}

// WithTimeRange sets the creation time range.
func (f ListFilter) WithTimeRange(since, until time.Time) ListFilter {
	f.Since = since
	f.Until = until
	return f
}

// WithPagination sets both limit and offset.
func (f ListFilter) WithPagination(limit, offset int) ListFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}

func (f ListFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// page applies offset and limit to n already filtered items and returns the bounds.
func (f ListFilter) page(n int) (int, int) {
	start := f.Offset
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end := start + f.limit()
	if end > n {
		end = n
	}
	return start, end
}

func (f ListFilter) matchesOrder(o *Order, restaurantRegion Region) bool {
	if f.Region != "" && restaurantRegion != f.Region {
		return false
	}
	if f.RestaurantID != "" && o.RestaurantID != f.RestaurantID {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if !f.Since.IsZero() && o.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && o.CreatedAt.After(f.Until) {
		return false
	}
	return true
}
