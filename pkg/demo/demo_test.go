package demo

import "testing"

func TestLoad(t *testing.T) {
	d, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(d.Tables) != 12 {
		t.Errorf("tables = %d, want 12", len(d.Tables))
	}
	if d.Restaurant.Name == "" {
		t.Error("restaurant name should be set")
	}
	for _, m := range d.Menu {
		if _, err := m.Amount(); err != nil {
			t.Errorf("Amount() error = %v", err)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "notYAML", raw: "tables: [T1"},
		{name: "noTables", raw: "menu:\n  - {name: Tea, category: Drinks, price: \"10\"}\n"},
		{name: "noMenu", raw: "tables: [T1]\n"},
		{name: "duplicateTable", raw: "tables: [T1, T1]\nmenu:\n  - {name: Tea, category: Drinks, price: \"10\"}\n"},
		{name: "badPrice", raw: "tables: [T1]\nmenu:\n  - {name: Tea, category: Drinks, price: \"ten\"}\n"},
		{name: "negativePrice", raw: "tables: [T1]\nmenu:\n  - {name: Tea, category: Drinks, price: \"-1\"}\n"},
		{name: "noCategory", raw: "tables: [T1]\nmenu:\n  - {name: Tea, price: \"10\"}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.raw)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSeedID(t *testing.T) {
	tests := []struct {
		kind string
		name string
		want string
	}{
		{kind: "table", name: "T1", want: "2025-01-15_demo_v1_table_t1"},
		{kind: "menu", name: "Butter Naan", want: "2025-01-15_demo_v1_menu_butter_naan"},
		{kind: "menu", name: "Fish & Chips", want: "2025-01-15_demo_v1_menu_fish__chips"},
		{kind: "menu", name: "!!", want: "2025-01-15_demo_v1_menu_seed"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := SeedID(tt.kind, tt.name); got != tt.want {
				t.Errorf("SeedID() = %q, want %q", got, tt.want)
			}
		})
	}
}
