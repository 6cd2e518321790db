package menu

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type MockMenuItemRepo struct {
	mu     sync.Mutex
	items  map[uuid.UUID]*MenuItem
	GetErr error
}

func NewMockMenuItemRepo(seed ...*MenuItem) *MockMenuItemRepo {
	m := &MockMenuItemRepo{items: make(map[uuid.UUID]*MenuItem)}
	for _, item := range seed {
		m.items[item.ID] = item
	}
	return m
}

func (m *MockMenuItemRepo) Create(ctx context.Context, item *MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *item
	m.items[item.ID] = &c
	return nil
}

func (m *MockMenuItemRepo) Get(ctx context.Context, id uuid.UUID) (*MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	c := *item
	return &c, nil
}

func (m *MockMenuItemRepo) List(ctx context.Context, filter Filter) ([]*MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*MenuItem
	for _, item := range m.items {
		if filter.Matches(item) {
			c := *item
			list = append(list, &c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (m *MockMenuItemRepo) Save(ctx context.Context, item *MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; !ok {
		return errors.New("menu item not found")
	}
	c := *item
	m.items[item.ID] = &c
	return nil
}

func (m *MockMenuItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *MockMenuItemRepo) Categories(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, item := range m.items {
		if !seen[item.Category] {
			seen[item.Category] = true
			out = append(out, item.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}
