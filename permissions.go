package slooze

import (
	"strings"
)

// Operation names a request the Authorization Gate decides on.
// Names are dot-separated "resource.action" pairs.
type Operation string

const (
	OpCreateRestaurant    Operation = "restaurants.create"
	OpListRestaurants     Operation = "restaurants.list"
	OpReadRestaurant      Operation = "restaurants.read"
	OpCreateMenuItem      Operation = "menu_items.create"
	OpUpdateMenuItem      Operation = "menu_items.update"
	OpPlaceOrder          Operation = "orders.place"
	OpPayOrder            Operation = "orders.pay"
	OpCancelOrder         Operation = "orders.cancel"
	OpUpdatePaymentMethod Operation = "orders.update_payment"
	OpListOrders          Operation = "orders.list"
	OpReadOrder           Operation = "orders.read"
	OpReadProfile         Operation = "profile.read"
)

// Operations lists every defined operation.
var Operations = []Operation{
	OpCreateRestaurant,
	OpListRestaurants,
	OpReadRestaurant,
	OpCreateMenuItem,
	OpUpdateMenuItem,
	OpPlaceOrder,
	OpPayOrder,
	OpCancelOrder,
	OpUpdatePaymentMethod,
	OpListOrders,
	OpReadOrder,
	OpReadProfile,
}

// Valid reports whether op is one of the defined operations.
func (op Operation) Valid() bool {
	for _, o := range Operations {
		if o == op {
			return true
		}
	}
	return false
}

// OperationMatcher matches operations against grant patterns.
//
// Supported patterns:
//   - "*" matches every operation
//   - "orders.*" matches every action on a resource
//   - "*.list" matches an action on every resource
//   - "orders.pay" matches exactly
type OperationMatcher struct{}

// NewOperationMatcher creates a new OperationMatcher.
func NewOperationMatcher() *OperationMatcher {
	return &OperationMatcher{}
}

// Match checks if a pattern grants an operation.
//
// Examples:
//
//	Match("*", "orders.pay")              // true
//	Match("orders.*", "orders.cancel")    // true
//	Match("*.list", "restaurants.list")   // true
//	Match("orders.pay", "orders.cancel")  // false
func (m *OperationMatcher) Match(pattern string, op Operation) bool {
	name := string(op)
	if pattern == name || pattern == "*" {
		return true
	}

	patternParts := strings.Split(pattern, ".")
	opParts := strings.Split(name, ".")
	if len(patternParts) != len(opParts) {
		return false
	}

	for i, pp := range patternParts {
		if pp == "*" {
			continue
		}
		if pp != opParts[i] {
			return false
		}
	}
	return true
}

// MatchAny checks if any of the patterns grant the operation.
func (m *OperationMatcher) MatchAny(patterns []string, op Operation) bool {
	for _, pattern := range patterns {
		if m.Match(pattern, op) {
			return true
		}
	}
	return false
}

// Expand returns the defined operations a set of patterns grants, in definition order.
func (m *OperationMatcher) Expand(patterns []string) []Operation {
	var out []Operation
	for _, op := range Operations {
		if m.MatchAny(patterns, op) {
			out = append(out, op)
		}
	}
	return out
}

// Validate checks if a grant pattern is well formed.
func (m *OperationMatcher) Validate(pattern string) error {
	if pattern == "" {
		return NewError(ErrInvalidInput, "operation pattern cannot be empty")
	}
	if pattern == "*" {
		return nil
	}

	parts := strings.Split(pattern, ".")
	if len(parts) != 2 {
		return NewError(ErrInvalidInput, "operation pattern must be resource.action")
	}
	for _, part := range parts {
		if part == "" {
			return NewError(ErrInvalidInput, "operation pattern parts cannot be empty")
		}
		if part == "*" {
			continue
		}
		for _, c := range part {
			if !isValidOperationChar(c) {
				return NewError(ErrInvalidInput, "operation pattern contains invalid character")
			}
		}
	}
	return nil
}

func isValidOperationChar(c rune) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') ||
		c == '_'
}

// DefaultMatcher is the default matcher instance.
var DefaultMatcher = NewOperationMatcher()
