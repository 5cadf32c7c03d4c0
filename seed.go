package slooze

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// seedNamespace derives stable ids for demo records, so reseeding is a no-op.
var seedNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://slooze.com/seed"))

// SeedID returns the deterministic id of a seeded record.
func SeedID(kind, key string) string {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+key)).String()
}

// DemoActors are the seeded users.
var DemoActors = []Actor{
	{Name: "Nick Fury", Email: "nick.fury@slooze.com", Role: RoleAdmin, Region: RegionIndia},
	{Name: "Captain Marvel", Email: "captain.marvel@slooze.com", Role: RoleManager, Region: RegionIndia},
	{Name: "Captain America", Email: "captain.america@slooze.com", Role: RoleManager, Region: RegionUSA},
	{Name: "Thanos", Email: "thanos@slooze.com", Role: RoleMember, Region: RegionIndia},
	{Name: "Thor", Email: "thor@slooze.com", Role: RoleMember, Region: RegionIndia},
	{Name: "Travis", Email: "travis@slooze.com", Role: RoleMember, Region: RegionUSA},
}

type demoMenuItem struct {
	name  string
	price string
}

var demoRestaurants = []struct {
	id     string
	name   string
	region Region
	menu   []demoMenuItem
}{
	{"restaurant-india-1", "Spicy Tandoor", RegionIndia, []demoMenuItem{
		{"Butter Chicken", "600"}, {"Naan", "100"}, {"Paneer Tikka", "300"},
	}},
	{"restaurant-india-2", "Curry House", RegionIndia, []demoMenuItem{
		{"Chicken Biryani", "400"}, {"Samosa", "150"}, {"Lassi", "120"},
	}},
	{"restaurant-usa-1", "Burger King", RegionUSA, []demoMenuItem{
		{"Whopper", "6.99"}, {"Fries", "2.99"}, {"Coke", "1.99"},
	}},
	{"restaurant-usa-2", "Pizza Hut", RegionUSA, []demoMenuItem{
		{"Pepperoni Pizza", "15.99"}, {"Garlic Bread", "5.99"}, {"Pasta", "11.99"},
	}},
}

// DemoActorID returns the id of the seeded actor with email.
func DemoActorID(email string) string {
	return SeedID("actor", email)
}

// DemoMenuItemID returns the id of a seeded menu item.
func DemoMenuItemID(restaurantID, name string) string {
	return SeedID("menu_item", restaurantID+"/"+name)
}

// SeedDemoData writes the demo users, restaurants and menus. Records that already
// exist are left as they are.
func SeedDemoData(ctx context.Context, store Store) error {
	for _, a := range DemoActors {
		actor := a
		actor.ID = DemoActorID(a.Email)
		if err := ignoreExisting(store.CreateActor(ctx, &actor)); err != nil {
			return fmt.Errorf("seed actor %s: %w", a.Email, err)
		}
	}

	for _, r := range demoRestaurants {
		restaurant := &Restaurant{ID: r.id, Name: r.name, Region: r.region}
		if err := ignoreExisting(store.CreateRestaurant(ctx, restaurant)); err != nil {
			return fmt.Errorf("seed restaurant %s: %w", r.id, err)
		}
		for _, m := range r.menu {
			item := &MenuItem{
				ID:           DemoMenuItemID(r.id, m.name),
				RestaurantID: r.id,
				Name:         m.name,
				Price:        decimal.RequireFromString(m.price),
			}
			if err := ignoreExisting(store.CreateMenuItem(ctx, item)); err != nil {
				return fmt.Errorf("seed menu item %s: %w", m.name, err)
			}
		}
	}
	return nil
}

func ignoreExisting(err error) error {
	if errors.Is(err, ErrAlreadyExists) {
		return nil
	}
	return err
}
