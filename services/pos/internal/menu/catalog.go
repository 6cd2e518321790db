package menu

import (
	"context"
	"fmt"

	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/google/uuid"
)

// Catalog resolves cart lines against the stored menu.
type Catalog struct {
	repo MenuItemRepo
}

func NewCatalog(repo MenuItemRepo) *Catalog {
	return &Catalog{repo: repo}
}

// MenuItem implements order.Catalog.
func (c *Catalog) MenuItem(ctx context.Context, id uuid.UUID) (*order.MenuItem, error) {
	item, err := c.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve menu item %s: %w", id, err)
	}
	if item == nil {
		return nil, nil
	}
	return item.Snapshot(), nil
}
