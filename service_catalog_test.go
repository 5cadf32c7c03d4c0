package slooze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCreateRestaurant tests restaurant creation and its gate
func TestCreateRestaurant(t *testing.T) {
	f := newTestFixture(t)

	restaurant, err := f.service.CreateRestaurant(f.ctx, f.nickFury(), CreateRestaurantInput{
		Name:   "  Dosa Corner ",
		Region: RegionIndia,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, restaurant.ID)
	assert.Equal(t, "Dosa Corner", restaurant.Name)
	assert.NotNil(t, restaurant.MenuItems)

	_, err = f.service.CreateRestaurant(f.ctx, f.captainMarvel(), CreateRestaurantInput{Name: "X", Region: RegionIndia})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.service.CreateRestaurant(f.ctx, f.nickFury(), CreateRestaurantInput{Name: " ", Region: RegionIndia})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.service.CreateRestaurant(f.ctx, f.nickFury(), CreateRestaurantInput{Name: "X", Region: "MARS"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.service.CreateRestaurant(f.ctx, f.nickFury(), CreateRestaurantInput{
		ID: "restaurant-india-1", Name: "Dup", Region: RegionIndia,
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

// TestCreateMenuItem tests menu item creation
func TestCreateMenuItem(t *testing.T) {
	f := newTestFixture(t)

	item, err := f.service.CreateMenuItem(f.ctx, f.captainMarvel(), CreateMenuItemInput{
		RestaurantID: "restaurant-india-2",
		Name:         "Gulab Jamun",
		Price:        dec("80"),
	})
	require.NoError(t, err)
	assert.Equal(t, "restaurant-india-2", item.RestaurantID)

	restaurant, err := f.service.GetRestaurant(f.ctx, f.thanos(), "restaurant-india-2")
	require.NoError(t, err)
	require.Len(t, restaurant.MenuItems, 4)
	assert.Equal(t, "Gulab Jamun", restaurant.MenuItems[3].Name)
}

// TestCreateMenuItemRejections tests menu item rejections and that nothing is created
func TestCreateMenuItemRejections(t *testing.T) {
	tests := []struct {
		name  string
		actor func(*testFixture) Actor
		input CreateMenuItemInput
		want  error
	}{
		{"unknown restaurant", (*testFixture).nickFury, CreateMenuItemInput{
			RestaurantID: "nowhere", Name: "Ghost", Price: dec("1"),
		}, ErrNotFound},
		{"member", (*testFixture).thor, CreateMenuItemInput{
			RestaurantID: "restaurant-india-1", Name: "Tea", Price: dec("1"),
		}, ErrForbidden},
		{"manager outside region", (*testFixture).captainAmerica, CreateMenuItemInput{
			RestaurantID: "restaurant-india-1", Name: "Tea", Price: dec("1"),
		}, ErrForbidden},
		{"blank name", (*testFixture).nickFury, CreateMenuItemInput{
			RestaurantID: "restaurant-india-1", Name: "", Price: dec("1"),
		}, ErrInvalidInput},
		{"negative price", (*testFixture).nickFury, CreateMenuItemInput{
			RestaurantID: "restaurant-india-1", Name: "Tea", Price: dec("-1"),
		}, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFixture(t)
			item, err := f.service.CreateMenuItem(f.ctx, tt.actor(f), tt.input)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, item)

			restaurants, err := f.service.ListRestaurants(f.ctx, f.nickFury(), NewListFilter())
			require.NoError(t, err)
			count := 0
			for _, r := range restaurants {
				count += len(r.MenuItems)
			}
			assert.Equal(t, 12, count, "no menu item may be created")
		})
	}
}

// TestUpdateMenuItemPrice tests price updates and their scope
func TestUpdateMenuItemPrice(t *testing.T) {
	f := newTestFixture(t)
	fries := DemoMenuItemID("restaurant-usa-1", "Fries")

	item, err := f.service.UpdateMenuItemPrice(f.ctx, f.captainAmerica(), fries, dec("3.49"))
	require.NoError(t, err)
	assert.Equal(t, "3.49", item.Price.StringFixed(2))

	_, err = f.service.UpdateMenuItemPrice(f.ctx, f.captainMarvel(), fries, dec("1"))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.service.UpdateMenuItemPrice(f.ctx, f.travis(), fries, dec("1"))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.service.UpdateMenuItemPrice(f.ctx, f.nickFury(), fries, dec("-0.01"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.service.UpdateMenuItemPrice(f.ctx, f.nickFury(), "missing", dec("1"))
	assert.ErrorIs(t, err, ErrNotFound)
}
