package settings

import (
	"context"
	"sync"
)

type MockSettingsRepo struct {
	mu      sync.Mutex
	doc     *Settings
	GetErr  error
	SaveErr error
	Gets    int
	Saves   int
}

func (m *MockSettingsRepo) Get(ctx context.Context) (*Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.doc == nil {
		return nil, nil
	}
	return m.doc.Clone(), nil
}

func (m *MockSettingsRepo) Save(ctx context.Context, s *Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Saves++
	m.doc = s.Clone()
	return nil
}
