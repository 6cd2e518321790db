package tables

import (
	"context"

	"github.com/google/uuid"
)

// TableRepo persists tables. Get and GetByName return nil, nil when nothing matches.
type TableRepo interface {
	Create(ctx context.Context, table *Table) error
	Get(ctx context.Context, id uuid.UUID) (*Table, error)
	GetByName(ctx context.Context, name string) (*Table, error)
	List(ctx context.Context) ([]*Table, error)
	Save(ctx context.Context, table *Table) error
	Delete(ctx context.Context, id uuid.UUID) error
}
