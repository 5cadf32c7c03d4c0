package slooze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCheckerNewChecker tests the checker constructor
func TestCheckerNewChecker(t *testing.T) {
	actor := Actor{ID: "user123", Role: RoleManager, Region: RegionIndia}

	checker := NewChecker(actor, nil)
	assert.Equal(t, actor, checker.Actor())
	assert.Equal(t, DefaultPolicy, checker.policy)

	custom := NewPolicy()
	assert.Equal(t, custom, NewChecker(actor, custom).policy)
}

// TestCheckerCan tests operation checks
func TestCheckerCan(t *testing.T) {
	manager := NewChecker(Actor{ID: "m", Role: RoleManager, Region: RegionIndia}, nil)

	assert.True(t, manager.Can(OpPayOrder))
	assert.False(t, manager.Can(OpCreateRestaurant))
	assert.True(t, manager.CanAny(OpCreateRestaurant, OpCancelOrder))
	assert.False(t, manager.CanAny(OpCreateRestaurant, OpUpdatePaymentMethod))
	assert.False(t, manager.CanAny())
}

// TestCheckerAuthorize tests that denials carry the actor id
func TestCheckerAuthorize(t *testing.T) {
	member := NewChecker(Actor{ID: "thor", Role: RoleMember, Region: RegionIndia}, nil)

	assert.NoError(t, member.Authorize(OpReadOrder))

	err := member.Authorize(OpCancelOrder)
	require.ErrorIs(t, err, ErrForbidden)
	e, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, "thor", e.ActorID)
}

// TestCheckerOperations tests the operations list
func TestCheckerOperations(t *testing.T) {
	member := NewChecker(Actor{ID: "u", Role: RoleMember, Region: RegionUSA}, nil)
	for _, op := range member.Operations() {
		assert.True(t, member.Can(op))
	}
	assert.NotContains(t, member.Operations(), OpPlaceOrder)
}

// TestCheckerVisibility tests per-record visibility checks
func TestCheckerVisibility(t *testing.T) {
	india := &Restaurant{ID: "r1", Region: RegionIndia}
	usa := &Restaurant{ID: "r2", Region: RegionUSA}

	manager := NewChecker(Actor{ID: "cm", Role: RoleManager, Region: RegionIndia}, nil)
	assert.True(t, manager.CanSeeRestaurant(india))
	assert.False(t, manager.CanSeeRestaurant(usa))
	assert.False(t, manager.CanSeeRestaurant(nil))

	assert.True(t, manager.CanSeeOrder(&Order{OwnerID: "anyone", Restaurant: india}))
	assert.False(t, manager.CanSeeOrder(&Order{OwnerID: "anyone", Restaurant: usa}))
	assert.False(t, manager.CanSeeOrder(&Order{OwnerID: "anyone"}), "region unknown without restaurant")
	assert.False(t, manager.CanSeeOrder(nil))

	member := NewChecker(Actor{ID: "thor", Role: RoleMember, Region: RegionIndia}, nil)
	assert.True(t, member.CanSeeOrder(&Order{OwnerID: "thor", Restaurant: usa}))
	assert.False(t, member.CanSeeOrder(&Order{OwnerID: "thanos", Restaurant: india}))

	admin := NewChecker(Actor{ID: "nf", Role: RoleAdmin}, nil)
	assert.True(t, admin.CanSeeRestaurant(usa))
	assert.True(t, admin.CanSeeOrder(&Order{OwnerID: "x"}))
}
