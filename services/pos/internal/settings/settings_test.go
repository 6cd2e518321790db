package settings

import (
	"context"
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		errs     int
	}{
		{name: "empty", settings: Settings{}},
		{name: "full", settings: Settings{RestaurantName: "Spice Route", UPIID: "spice@okaxis", Location: &Location{Latitude: 12.97, Longitude: 77.59}, RadiusMeters: 250}},
		{name: "badLatitude", settings: Settings{Location: &Location{Latitude: 91}}, errs: 1},
		{name: "badLongitude", settings: Settings{Location: &Location{Longitude: -181}}, errs: 1},
		{name: "negativeRadius", settings: Settings{RadiusMeters: -1}, errs: 1},
		{name: "badUPI", settings: Settings{UPIID: "spice"}, errs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(&tt.settings); len(got) != tt.errs {
				t.Errorf("Validate() = %v, want %d errors", got, tt.errs)
			}
		})
	}
}

func TestStoreDefaults(t *testing.T) {
	ctx := context.Background()
	repo := &MockSettingsRepo{}
	store := NewStore(repo, nil)

	cur, err := store.Current(ctx)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if cur.RestaurantName != DefaultRestaurantName || cur.RadiusMeters != DefaultRadiusMeters || cur.Location != nil {
		t.Errorf("defaults = %+v", cur)
	}
	if name := store.RestaurantName(ctx); name != "PayPer-Suite" {
		t.Errorf("RestaurantName() = %q", name)
	}
	if repo.Gets != 1 {
		t.Errorf("repository read %d times, want 1", repo.Gets)
	}
}

func TestStoreUpdate(t *testing.T) {
	ctx := context.Background()
	repo := &MockSettingsRepo{}
	store := NewStore(repo, nil)

	saved, err := store.Update(ctx, &Settings{RestaurantName: "  Spice Route ", Location: &Location{Latitude: 12.97, Longitude: 77.59}})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if saved.RestaurantName != "Spice Route" || saved.RadiusMeters != DefaultRadiusMeters || saved.UpdatedAt.IsZero() {
		t.Errorf("saved = %+v", saved)
	}

	saved.Location.Latitude = 0
	cur, _ := store.Current(ctx)
	if cur.Location.Latitude != 12.97 {
		t.Error("Current() must not share state with returned copies")
	}
	if repo.Gets != 0 || repo.Saves != 1 {
		t.Errorf("repo gets = %d, saves = %d", repo.Gets, repo.Saves)
	}

	blank, _ := store.Update(ctx, &Settings{})
	if blank.RestaurantName != DefaultRestaurantName {
		t.Errorf("blank name = %q, want default", blank.RestaurantName)
	}
}

func TestStoreErrors(t *testing.T) {
	ctx := context.Background()
	repo := &MockSettingsRepo{GetErr: errors.New("mongo down"), SaveErr: errors.New("mongo down")}
	store := NewStore(repo, nil)

	if _, err := store.Current(ctx); err == nil {
		t.Error("Current() should surface load errors")
	}
	if name := store.RestaurantName(ctx); name != DefaultRestaurantName {
		t.Errorf("RestaurantName() = %q, want default on error", name)
	}
	if _, err := store.Update(ctx, &Settings{RestaurantName: "X"}); err == nil {
		t.Error("Update() should surface save errors")
	}
}
