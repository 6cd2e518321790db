package app

import (
	"context"
	"sync"

	"github.com/appetiteclub/payper/services/pos/internal/menu"
	"github.com/appetiteclub/payper/services/pos/internal/settings"
	"github.com/appetiteclub/payper/services/pos/internal/tables"
)

type mockTables struct {
	mu     sync.Mutex
	tables []*tables.Table
}

func (m *mockTables) List(ctx context.Context) ([]*tables.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*tables.Table(nil), m.tables...), nil
}

func (m *mockTables) Create(ctx context.Context, t *tables.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tables {
		if existing.Name == t.Name {
			return tables.ErrDuplicateName
		}
	}
	m.tables = append(m.tables, t)
	return nil
}

type mockMenu struct {
	mu    sync.Mutex
	items []*menu.MenuItem
}

func (m *mockMenu) List(ctx context.Context, f menu.Filter) ([]*menu.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*menu.MenuItem
	for _, it := range m.items {
		if f.Matches(it) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockMenu) Create(ctx context.Context, item *menu.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, item)
	return nil
}

type mockSettingsRepo struct {
	saved *settings.Settings
}

func (m *mockSettingsRepo) Get(ctx context.Context) (*settings.Settings, error) {
	if m.saved == nil {
		return nil, nil
	}
	return m.saved.Clone(), nil
}

func (m *mockSettingsRepo) Save(ctx context.Context, s *settings.Settings) error {
	m.saved = s.Clone()
	return nil
}
