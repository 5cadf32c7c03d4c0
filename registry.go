package slooze

import (
	"sort"
	"sync"
)

// Policy holds the operation grants of every role.
// It is created at startup and should be treated as immutable after initialization.
type Policy struct {
	mu      sync.RWMutex
	roles   map[Role]*RoleGrant
	matcher *OperationMatcher
}

// RoleGrant lists the operation patterns granted to a role.
type RoleGrant struct {
	role     Role
	patterns []string
	policy   *Policy
}

// NewPolicy creates an empty policy. An empty policy denies everything.
func NewPolicy() *Policy {
	return &Policy{
		roles:   make(map[Role]*RoleGrant),
		matcher: DefaultMatcher,
	}
}

// Role starts defining the grants of a role.
//
// Example:
//
//	policy.Role(slooze.RoleManager).Allow("orders.*", "menu_items.create").
//	    Role(slooze.RoleMember).Allow("*.list")
func (p *Policy) Role(role Role) *RoleGrant {
	p.mu.Lock()
	defer p.mu.Unlock()

	grant, ok := p.roles[role]
	if !ok {
		grant = &RoleGrant{role: role, policy: p}
		p.roles[role] = grant
	}
	return grant
}

// Allow adds operation patterns to the role. Wildcards follow OperationMatcher.
func (g *RoleGrant) Allow(patterns ...string) *RoleGrant {
	g.policy.mu.Lock()
	defer g.policy.mu.Unlock()
	g.patterns = append(g.patterns, patterns...)
	return g
}

// Role continues defining roles on the parent policy.
func (g *RoleGrant) Role(role Role) *RoleGrant {
	return g.policy.Role(role)
}

// Patterns returns the patterns granted to this role.
func (g *RoleGrant) Patterns() []string {
	g.policy.mu.RLock()
	defer g.policy.mu.RUnlock()
	return append([]string(nil), g.patterns...)
}

// Validate checks every pattern and every role in the policy.
func (p *Policy) Validate() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for role, grant := range p.roles {
		if !role.Valid() {
			return NewError(ErrInvalidInput, "policy defines unknown role "+string(role))
		}
		for _, pattern := range grant.patterns {
			if err := p.matcher.Validate(pattern); err != nil {
				return err
			}
		}
	}
	return nil
}

// Allows reports whether role may perform op.
func (p *Policy) Allows(role Role, op Operation) bool {
	if !role.Valid() || !op.Valid() {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	grant, ok := p.roles[role]
	if !ok {
		return false
	}
	return p.matcher.MatchAny(grant.patterns, op)
}

// Authorize returns nil when role may perform op, and a Forbidden error otherwise.
// It consults no data.
func (p *Policy) Authorize(role Role, op Operation) error {
	if p.Allows(role, op) {
		return nil
	}
	return NewError(ErrForbidden, "role "+string(role)+" may not perform "+string(op)).
		WithRole(role).
		WithOperation(op)
}

// Operations returns the operations granted to role, sorted by name.
func (p *Policy) Operations(role Role) []Operation {
	p.mu.RLock()
	grant, ok := p.roles[role]
	var patterns []string
	if ok {
		patterns = append(patterns, grant.patterns...)
	}
	p.mu.RUnlock()

	ops := p.matcher.Expand(patterns)
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// DefaultPolicy is the platform's role table.
//
//	restaurants.create               ADMIN
//	menu_items.create / .update      ADMIN, MANAGER
//	orders.place / .pay / .cancel    ADMIN, MANAGER
//	orders.update_payment            ADMIN
//	*.list / *.read                  every role
var DefaultPolicy = newDefaultPolicy()

func newDefaultPolicy() *Policy {
	p := NewPolicy()
	p.Role(RoleAdmin).Allow("*").
		Role(RoleManager).Allow(
		"*.list", "*.read",
		"menu_items.create", "menu_items.update",
		"orders.place", "orders.pay", "orders.cancel",
	).
		Role(RoleMember).Allow("*.list", "*.read")
	return p
}

// Authorize checks role against DefaultPolicy.
func Authorize(role Role, op Operation) error {
	return DefaultPolicy.Authorize(role, op)
}
