// Package demo carries the sample restaurant used by demo seeding.
package demo

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// SeedVersion tags every demo seed so a changed data set can be reapplied.
const SeedVersion = "v1"

//go:embed demo.yaml
var demoYAML []byte

type Restaurant struct {
	Name      string  `yaml:"name"`
	UPIID     string  `yaml:"upi_id"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	RadiusM   float64 `yaml:"radius_m"`
}

type MenuItem struct {
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	Price       string `yaml:"price"`
	Description string `yaml:"description"`
}

// Amount parses the listed price.
func (m MenuItem) Amount() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(m.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("menu item %s: invalid price %q: %w", m.Name, m.Price, err)
	}
	return d, nil
}

type Data struct {
	Restaurant Restaurant `yaml:"restaurant"`
	Tables     []string   `yaml:"tables"`
	Menu       []MenuItem `yaml:"menu"`
}

// Load returns the embedded demo data set.
func Load() (*Data, error) {
	return Parse(demoYAML)
}

func Parse(raw []byte) (*Data, error) {
	if len(raw) == 0 {
		return nil, errors.New("demo data is empty")
	}
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode demo data: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (d *Data) Validate() error {
	if len(d.Tables) == 0 {
		return errors.New("demo data does not contain tables")
	}
	if len(d.Menu) == 0 {
		return errors.New("demo data does not contain menu items")
	}

	seen := make(map[string]bool, len(d.Tables))
	for _, t := range d.Tables {
		name := strings.TrimSpace(t)
		if name == "" {
			return errors.New("demo table with empty name")
		}
		if seen[name] {
			return fmt.Errorf("duplicate demo table %s", name)
		}
		seen[name] = true
	}

	for _, m := range d.Menu {
		if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Category) == "" {
			return fmt.Errorf("demo menu item %q needs a name and a category", m.Name)
		}
		price, err := m.Amount()
		if err != nil {
			return err
		}
		if price.IsNegative() {
			return fmt.Errorf("menu item %s: negative price", m.Name)
		}
	}
	return nil
}

// MenuNames lists the demo dish names.
func (d *Data) MenuNames() []string {
	names := make([]string, 0, len(d.Menu))
	for _, m := range d.Menu {
		names = append(names, m.Name)
	}
	return names
}

// SeedID builds a stable seed identifier such as "2025-01-15_demo_v1_table_t1".
func SeedID(kind, name string) string {
	return fmt.Sprintf("2025-01-15_demo_%s_%s_%s", SeedVersion, kind, Identifier(name))
}

// Identifier lowercases value and keeps only letters, digits and underscores.
func Identifier(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	replacer := strings.NewReplacer("-", "_", " ", "_", "/", "_", "\\", "_")
	value = replacer.Replace(value)

	var b strings.Builder
	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "seed"
	}
	return b.String()
}
