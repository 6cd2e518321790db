package order

import (
	"context"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const DefaultKeyTTL = 24 * time.Hour

type reservation struct {
	orderID uuid.UUID
	expires time.Time
}

// MemoryKeyStore is the single-instance KeyStore. Expired keys are swept
// periodically once Start is called.
type MemoryKeyStore struct {
	mu     sync.Mutex
	keys   map[string]reservation
	ttl    time.Duration
	now    func() time.Time
	cron   *cron.Cron
	logger apt.Logger
}

func NewMemoryKeyStore(ttl time.Duration, logger apt.Logger) *MemoryKeyStore {
	if ttl <= 0 {
		ttl = DefaultKeyTTL
	}
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &MemoryKeyStore{
		keys:   make(map[string]reservation),
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

func (s *MemoryKeyStore) Reserve(ctx context.Context, key string, orderID uuid.UUID) (uuid.UUID, bool, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if r, ok := s.keys[key]; ok && now.Before(r.expires) {
		return r.orderID, false, nil
	}
	s.keys[key] = reservation{orderID: orderID, expires: now.Add(s.ttl)}
	return orderID, true, nil
}

func (s *MemoryKeyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

// Sweep drops expired keys and reports how many were removed.
func (s *MemoryKeyStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, r := range s.keys {
		if !now.Before(r.expires) {
			delete(s.keys, key)
			removed++
		}
	}
	return removed
}

func (s *MemoryKeyStore) Start(ctx context.Context) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc("@every 1m", func() {
		if n := s.Sweep(); n > 0 {
			s.logger.Debug("expired idempotency keys swept", "count", n)
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *MemoryKeyStore) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	return nil
}
