package tables

import (
	"context"
	"errors"
	"sync"

	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/google/uuid"
)

type MockTableRepo struct {
	mu      sync.Mutex
	tables  map[uuid.UUID]*Table
	ListErr error
	Lists   int
	Creates int
	Deletes int
}

func NewMockTableRepo(seed ...*Table) *MockTableRepo {
	m := &MockTableRepo{tables: make(map[uuid.UUID]*Table)}
	for _, t := range seed {
		m.tables[t.ID] = t
	}
	return m
}

func (m *MockTableRepo) Create(ctx context.Context, t *Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *t
	m.tables[t.ID] = &c
	m.Creates++
	return nil
}

func (m *MockTableRepo) Get(ctx context.Context, id uuid.UUID) (*Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[id]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (m *MockTableRepo) GetByName(ctx context.Context, name string) (*Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tables {
		if t.Name == name {
			c := *t
			return &c, nil
		}
	}
	return nil, nil
}

func (m *MockTableRepo) List(ctx context.Context) ([]*Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lists++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var list []*Table
	for _, t := range m.tables {
		c := *t
		list = append(list, &c)
	}
	return list, nil
}

func (m *MockTableRepo) Save(ctx context.Context, t *Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[t.ID]; !ok {
		return errors.New("table not found")
	}
	c := *t
	m.tables[t.ID] = &c
	return nil
}

func (m *MockTableRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, id)
	m.Deletes++
	return nil
}

type mockOccupancy map[uuid.UUID]*order.Order

func (m mockOccupancy) FindActiveByTable(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return m[id], nil
}
