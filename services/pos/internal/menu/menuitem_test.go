package menu

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestValidateMenuItem(t *testing.T) {
	tests := []struct {
		name   string
		req    MenuItemRequest
		fields []string
	}{
		{name: "valid", req: MenuItemRequest{Name: "Paneer Tikka", Category: "Starters", Price: decimal.NewFromInt(50)}},
		{name: "freeItem", req: MenuItemRequest{Name: "Water", Category: "Drinks", Price: decimal.Zero}},
		{name: "missingName", req: MenuItemRequest{Category: "Starters", Price: decimal.NewFromInt(5)}, fields: []string{"name"}},
		{name: "negativePrice", req: MenuItemRequest{Name: "X", Category: "Y", Price: decimal.NewFromInt(-1)}, fields: []string{"price"}},
		{name: "subPaisa", req: MenuItemRequest{Name: "X", Category: "Y", Price: decimal.RequireFromString("1.005")}, fields: []string{"price"}},
		{name: "empty", req: MenuItemRequest{}, fields: []string{"name", "category"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateMenuItem(tt.req)
			if len(errs) != len(tt.fields) {
				t.Fatalf("ValidateMenuItem() = %+v, want fields %v", errs, tt.fields)
			}
			for i, f := range tt.fields {
				if errs[i].Field != f {
					t.Errorf("error %d field = %q, want %q", i, errs[i].Field, f)
				}
			}
		})
	}
}

func TestFilterMatches(t *testing.T) {
	yes, no := true, false
	item := NewMenuItem("Lassi", "Drinks", decimal.NewFromInt(4))

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{name: "empty", filter: Filter{}, want: true},
		{name: "categoryCaseInsensitive", filter: Filter{Category: "drinks"}, want: true},
		{name: "otherCategory", filter: Filter{Category: "Mains"}, want: false},
		{name: "available", filter: Filter{Available: &yes}, want: true},
		{name: "unavailable", filter: Filter{Available: &no}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(item); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	paneer := NewMenuItem("Paneer Tikka", "Starters", decimal.NewFromInt(50))
	paneer.Description = "Smoked cottage cheese"
	repo := NewMockMenuItemRepo(paneer)
	catalog := NewCatalog(repo)

	got, err := catalog.MenuItem(ctx, paneer.ID)
	if err != nil {
		t.Fatalf("MenuItem() error = %v", err)
	}
	if got.Name != "Paneer Tikka" || !got.Price.Equal(decimal.NewFromInt(50)) || !got.Available || got.Description == "" {
		t.Errorf("MenuItem() = %+v", got)
	}

	if missing, err := catalog.MenuItem(ctx, uuid.New()); missing != nil || err != nil {
		t.Errorf("unknown item = %+v, %v; want nil, nil", missing, err)
	}

	repo.GetErr = errors.New("mongo down")
	if _, err := catalog.MenuItem(ctx, paneer.ID); err == nil {
		t.Error("expected store error")
	}
}
