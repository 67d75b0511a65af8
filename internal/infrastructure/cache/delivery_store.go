package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DeliveryStore remembers webhook deliveries for a while so redelivered
// notifications are dropped before they reach the reconciler.
type DeliveryStore interface {
	// MarkDelivered returns true the first time a key is seen within ttl
	MarkDelivered(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Forget releases a key so the next delivery is processed again
	Forget(ctx context.Context, key string) error
}

// InMemoryDeliveryStore is a DeliveryStore for single instance deployments.
// Expired keys are swept lazily on write once the map grows past sweepAt.
type InMemoryDeliveryStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	sweepAt int
	now     func() time.Time
}

// NewInMemoryDeliveryStore creates an empty store
func NewInMemoryDeliveryStore() *InMemoryDeliveryStore {
	return &InMemoryDeliveryStore{
		expires: make(map[string]time.Time),
		sweepAt: 1024,
		now:     time.Now,
	}
}

// MarkDelivered implements DeliveryStore
func (s *InMemoryDeliveryStore) MarkDelivered(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.expires[key]; ok && now.Before(exp) {
		return false, nil
	}
	if len(s.expires) >= s.sweepAt {
		s.sweep(now)
	}
	s.expires[key] = now.Add(ttl)
	return true, nil
}

// Forget implements DeliveryStore
func (s *InMemoryDeliveryStore) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.expires, key)
	s.mu.Unlock()
	return nil
}

// Size returns the number of remembered keys, expired ones included
func (s *InMemoryDeliveryStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expires)
}

func (s *InMemoryDeliveryStore) sweep(now time.Time) {
	for key, exp := range s.expires {
		if !now.Before(exp) {
			delete(s.expires, key)
		}
	}
	// keep sweeps amortized when most keys are still live
	if len(s.expires) >= s.sweepAt {
		s.sweepAt *= 2
	}
}

const defaultDeliveryKeyPrefix = "marketplace:webhook:"

// RedisDeliveryStore shares delivery keys between instances using SET NX
type RedisDeliveryStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisDeliveryStore wraps an existing client
func NewRedisDeliveryStore(client redis.UniversalClient, keyPrefix string) *RedisDeliveryStore {
	if keyPrefix == "" {
		keyPrefix = defaultDeliveryKeyPrefix
	}
	return &RedisDeliveryStore{client: client, keyPrefix: keyPrefix}
}

// MarkDelivered implements DeliveryStore
func (s *RedisDeliveryStore) MarkDelivered(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	created, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark webhook delivery: %w", err)
	}
	return created, nil
}

// Forget implements DeliveryStore
func (s *RedisDeliveryStore) Forget(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release webhook delivery: %w", err)
	}
	return nil
}

var (
	_ DeliveryStore = (*InMemoryDeliveryStore)(nil)
	_ DeliveryStore = (*RedisDeliveryStore)(nil)
)
