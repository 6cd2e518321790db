package menu

import (
	"strings"
	"time"

	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuItem is a dish or drink the restaurant sells.
type MenuItem struct {
	ID          uuid.UUID       `json:"id" bson:"_id"`
	Name        string          `json:"name" bson:"name"`
	Description string          `json:"description,omitempty" bson:"description,omitempty"`
	Price       decimal.Decimal `json:"price" bson:"price"`
	Category    string          `json:"category" bson:"category"`
	Available   bool            `json:"available" bson:"available"`
	CreatedAt   time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" bson:"updated_at"`
}

func NewMenuItem(name, category string, price decimal.Decimal) *MenuItem {
	item := &MenuItem{
		Name:      name,
		Category:  category,
		Price:     price,
		Available: true,
	}
	item.EnsureID()
	return item
}

func (m *MenuItem) GetID() uuid.UUID {
	return m.ID
}

func (m *MenuItem) ResourceType() string {
	return "menu-item"
}

func (m *MenuItem) SetID(id uuid.UUID) {
	m.ID = id
}

func (m *MenuItem) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
}

func (m *MenuItem) BeforeCreate() {
	m.EnsureID()
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
}

func (m *MenuItem) BeforeUpdate() {
	m.UpdatedAt = time.Now()
}

// Snapshot is the copy embedded into order rows.
func (m *MenuItem) Snapshot() *order.MenuItem {
	return &order.MenuItem{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Category:    m.Category,
		Available:   m.Available,
	}
}

// Filter narrows a menu listing. Empty fields match everything.
type Filter struct {
	Category  string
	Available *bool
}

func (f Filter) Matches(m *MenuItem) bool {
	if f.Category != "" && !strings.EqualFold(f.Category, m.Category) {
		return false
	}
	if f.Available != nil && *f.Available != m.Available {
		return false
	}
	return true
}
