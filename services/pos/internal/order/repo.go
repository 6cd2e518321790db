package order

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
)

// OrderRepo persists orders. Get returns nil, nil when the order does not
// exist. Update only succeeds when the stored version equals expectedVersion
// and reports ErrVersionMismatch otherwise. Create and Update report
// ErrTableOccupied when another active dine-in order holds the table.
type OrderRepo interface {
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	Update(ctx context.Context, order *Order, expectedVersion int64) error
	List(ctx context.Context, filter Filter) ([]*Order, error)
	FindActiveByTable(ctx context.Context, tableID uuid.UUID) (*Order, error)
	FindSwitchedFrom(ctx context.Context, tableID uuid.UUID) (*Order, error)
}

// Filter selects a set of orders. Zero fields match everything.
type Filter struct {
	Statuses []string
	TableID  uuid.UUID
	Type     string
	Platform string
	From     time.Time
	To       time.Time
}

// Matches applies the filter to a single order.
func (f Filter) Matches(o *Order) bool {
	if o == nil {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, o.Status) {
		return false
	}
	if f.TableID != uuid.Nil && o.TableID != f.TableID {
		return false
	}
	if f.Type != "" && o.OrderType != f.Type {
		return false
	}
	if f.Platform != "" && o.OnlinePlatform != f.Platform {
		return false
	}
	if !f.From.IsZero() && o.Timestamp < f.From.UnixMilli() {
		return false
	}
	if !f.To.IsZero() && o.Timestamp > f.To.UnixMilli() {
		return false
	}
	return true
}

// Catalog resolves menu items. It returns nil, nil for unknown ids.
type Catalog interface {
	MenuItem(ctx context.Context, id uuid.UUID) (*MenuItem, error)
}

// CatalogFunc adapts a function to Catalog.
type CatalogFunc func(ctx context.Context, id uuid.UUID) (*MenuItem, error)

func (f CatalogFunc) MenuItem(ctx context.Context, id uuid.UUID) (*MenuItem, error) {
	return f(ctx, id)
}

// TableRef is the part of a table the engine needs.
type TableRef struct {
	ID   uuid.UUID
	Name string
}

// TableLookup resolves tables. It returns nil, nil for unknown ids.
type TableLookup interface {
	Table(ctx context.Context, id uuid.UUID) (*TableRef, error)
}

// TableLookupFunc adapts a function to TableLookup.
type TableLookupFunc func(ctx context.Context, id uuid.UUID) (*TableRef, error)

func (f TableLookupFunc) Table(ctx context.Context, id uuid.UUID) (*TableRef, error) {
	return f(ctx, id)
}

// KeyStore deduplicates order placements by idempotency key. Reserve binds
// key to orderID unless the key is already bound, in which case it returns
// the existing order id and false.
type KeyStore interface {
	Reserve(ctx context.Context, key string, orderID uuid.UUID) (uuid.UUID, bool, error)
	Release(ctx context.Context, key string) error
}
