package tables

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/google/uuid"
)

// Registry serves tables from memory and writes through to the repository.
// Lookups made by the order engine and the kitchen board never hit the store
// once the registry is warm.
type Registry struct {
	repo   TableRepo
	logger apt.Logger

	mu     sync.RWMutex
	tables map[uuid.UUID]*Table
	warm   bool
}

func NewRegistry(repo TableRepo, logger apt.Logger) *Registry {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Registry{
		repo:   repo,
		logger: logger,
		tables: make(map[uuid.UUID]*Table),
	}
}

// Warm loads every table from the repository.
func (r *Registry) Warm(ctx context.Context) error {
	list, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("cannot warm table registry: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables = make(map[uuid.UUID]*Table, len(list))
	for _, t := range list {
		r.tables[t.ID] = t
	}
	r.warm = true
	r.logger.Info("table registry warmed", "count", len(list))
	return nil
}

func (r *Registry) ensureWarm(ctx context.Context) error {
	r.mu.RLock()
	warm := r.warm
	r.mu.RUnlock()
	if warm {
		return nil
	}
	return r.Warm(ctx)
}

// List returns every table in natural order.
func (r *Registry) List(ctx context.Context) ([]*Table, error) {
	if err := r.ensureWarm(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	list := make([]*Table, 0, len(r.tables))
	for _, t := range r.tables {
		c := *t
		list = append(list, &c)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	Sort(list)
	return list, nil
}

func (r *Registry) Get(ctx context.Context, id uuid.UUID) (*Table, error) {
	if err := r.ensureWarm(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[id]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (r *Registry) Create(ctx context.Context, t *Table) error {
	existing, err := r.repo.GetByName(ctx, t.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrDuplicateName
	}
	t.BeforeCreate()
	if err := r.repo.Create(ctx, t); err != nil {
		return err
	}
	r.put(t)
	return nil
}

func (r *Registry) Save(ctx context.Context, t *Table) error {
	existing, err := r.repo.GetByName(ctx, t.Name)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != t.ID {
		return ErrDuplicateName
	}
	t.BeforeUpdate()
	if err := r.repo.Save(ctx, t); err != nil {
		return err
	}
	r.put(t)
	return nil
}

func (r *Registry) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.tables, id)
	r.mu.Unlock()
	return nil
}

func (r *Registry) put(t *Table) {
	c := *t
	r.mu.Lock()
	r.tables[t.ID] = &c
	r.mu.Unlock()
}

// Table implements order.TableLookup.
func (r *Registry) Table(ctx context.Context, id uuid.UUID) (*order.TableRef, error) {
	t, err := r.Get(ctx, id)
	if err != nil || t == nil {
		return nil, err
	}
	return &order.TableRef{ID: t.ID, Name: t.Name}, nil
}

// TableNames maps every table id to its name.
func (r *Registry) TableNames(ctx context.Context) (map[uuid.UUID]string, error) {
	if err := r.ensureWarm(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make(map[uuid.UUID]string, len(r.tables))
	for id, t := range r.tables {
		names[id] = t.Name
	}
	return names, nil
}
