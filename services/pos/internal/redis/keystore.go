package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	DefaultURL = "redis://localhost:6379/0"
	keyPrefix  = "payper:idem:"
)

// KeyStore shares idempotency keys between service instances. Keys expire on
// their own after ttl.
type KeyStore struct {
	client goredis.UniversalClient
	url    string
	ttl    time.Duration
	logger apt.Logger
}

func NewKeyStore(url string, ttl time.Duration, logger apt.Logger) *KeyStore {
	if url == "" {
		url = DefaultURL
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &KeyStore{url: url, ttl: ttl, logger: logger}
}

// NewKeyStoreWithClient wraps an already connected client.
func NewKeyStoreWithClient(client goredis.UniversalClient, ttl time.Duration, logger apt.Logger) *KeyStore {
	ks := NewKeyStore("", ttl, logger)
	ks.client = client
	return ks
}

func (s *KeyStore) Start(ctx context.Context) error {
	if s.client == nil {
		opts, err := goredis.ParseURL(s.url)
		if err != nil {
			return fmt.Errorf("invalid redis url: %w", err)
		}
		s.client = goredis.NewClient(opts)
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cannot ping redis: %w", err)
	}
	s.logger.Info("idempotency key store connected", "backend", "redis")
	return nil
}

func (s *KeyStore) Stop(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *KeyStore) Reserve(ctx context.Context, key string, orderID uuid.UUID) (uuid.UUID, bool, error) {
	// A key can expire between SETNX and GET, so try twice.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, keyPrefix+key, orderID.String(), s.ttl).Result()
		if err != nil {
			return uuid.Nil, false, fmt.Errorf("cannot reserve idempotency key: %w", err)
		}
		if ok {
			return orderID, true, nil
		}

		existing, err := s.client.Get(ctx, keyPrefix+key).Result()
		if errors.Is(err, goredis.Nil) {
			continue
		}
		if err != nil {
			return uuid.Nil, false, fmt.Errorf("cannot read idempotency key: %w", err)
		}
		id, err := uuid.Parse(existing)
		if err != nil {
			return uuid.Nil, false, fmt.Errorf("corrupt idempotency key %s: %w", key, err)
		}
		return id, false, nil
	}
	return uuid.Nil, false, fmt.Errorf("cannot reserve idempotency key %s", key)
}

func (s *KeyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("cannot release idempotency key: %w", err)
	}
	return nil
}
