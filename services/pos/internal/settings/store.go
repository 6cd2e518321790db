package settings

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
)

// Store caches the settings document in memory and writes through.
type Store struct {
	repo   SettingsRepo
	logger apt.Logger

	mu      sync.RWMutex
	current *Settings
}

func NewStore(repo SettingsRepo, logger apt.Logger) *Store {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Store{repo: repo, logger: logger}
}

// Current returns a copy of the settings, loading them on first use.
func (s *Store) Current(ctx context.Context) (*Settings, error) {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if cur != nil {
		return cur.Clone(), nil
	}

	loaded, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot load settings: %w", err)
	}
	if loaded == nil {
		loaded = Defaults()
	}
	loaded.normalize()

	s.mu.Lock()
	if s.current == nil {
		s.current = loaded
	}
	cur = s.current
	s.mu.Unlock()
	return cur.Clone(), nil
}

// Update replaces the settings document.
func (s *Store) Update(ctx context.Context, next *Settings) (*Settings, error) {
	next = next.Clone()
	next.normalize()
	next.UpdatedAt = time.Now()

	if err := s.repo.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("cannot save settings: %w", err)
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	s.logger.Info("settings updated", "restaurant_name", next.RestaurantName, "geofenced", next.Location != nil)
	return next.Clone(), nil
}

// RestaurantName implements order.Branding.
func (s *Store) RestaurantName(ctx context.Context) string {
	cur, err := s.Current(ctx)
	if err != nil {
		s.logger.Error("cannot read restaurant name", "error", err)
		return DefaultRestaurantName
	}
	return cur.RestaurantName
}
