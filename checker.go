package slooze

// Checker answers authorization and visibility questions for one actor.
// It is typically created by the middleware and stored in context for use in handlers.
type Checker struct {
	actor  Actor
	policy *Policy
}

// NewChecker creates a new Checker for an actor. A nil policy means DefaultPolicy.
func NewChecker(actor Actor, policy *Policy) *Checker {
	if policy == nil {
		policy = DefaultPolicy
	}
	return &Checker{actor: actor, policy: policy}
}

// Actor returns the actor this checker is for.
func (c *Checker) Actor() Actor {
	return c.actor
}

// Can checks if the actor's role may perform op.
//
// Example:
//
//	if checker.Can(slooze.OpCancelOrder) {
//	    // render the cancel button
//	}
func (c *Checker) Can(op Operation) bool {
	return c.policy.Allows(c.actor.Role, op)
}

// Authorize returns a Forbidden error carrying the actor id when op is denied.
func (c *Checker) Authorize(op Operation) error {
	if err := c.policy.Authorize(c.actor.Role, op); err != nil {
		if e, ok := err.(*Error); ok {
			return e.WithActor(c.actor.ID)
		}
		return err
	}
	return nil
}

// CanAny checks if the actor may perform any of the operations.
func (c *Checker) CanAny(ops ...Operation) bool {
	for _, op := range ops {
		if c.Can(op) {
			return true
		}
	}
	return false
}

// Operations returns every operation the actor's role is granted.
func (c *Checker) Operations() []Operation {
	return c.policy.Operations(c.actor.Role)
}

// CanSeeRestaurant checks if a restaurant is within the actor's visibility.
func (c *Checker) CanSeeRestaurant(r *Restaurant) bool {
	if r == nil {
		return false
	}
	return ScopeRestaurants(c.actor).AllowsRestaurant(r.Region)
}

// CanSeeOrder checks if an order is within the actor's visibility.
// The order's Restaurant must be loaded for region-scoped actors.
func (c *Checker) CanSeeOrder(o *Order) bool {
	if o == nil {
		return false
	}
	var region Region
	if o.Restaurant != nil {
		region = o.Restaurant.Region
	}
	return ScopeOrders(c.actor).AllowsOrder(o.OwnerID, region)
}
