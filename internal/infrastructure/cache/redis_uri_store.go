package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/infrastructure/config"
)

const defaultURIKeyPrefix = "marketplace:image_uri:"

// RedisURIStore keeps image URIs in Redis so every instance skips uploads
// another instance already made
type RedisURIStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisClient creates a client from configuration and checks the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisURIStore wraps an existing client. A zero ttl keeps keys forever.
func NewRedisURIStore(client redis.UniversalClient, keyPrefix string, ttl time.Duration) *RedisURIStore {
	if keyPrefix == "" {
		keyPrefix = defaultURIKeyPrefix
	}
	return &RedisURIStore{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// GetURI returns the stored URI; a missing key is not an error
func (s *RedisURIStore) GetURI(ctx context.Context, key integration.ImageCacheKey) (string, bool, error) {
	uri, err := s.client.Get(ctx, s.redisKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read image uri: %w", err)
	}
	return uri, true, nil
}

// SetURI stores the URI under the key
func (s *RedisURIStore) SetURI(ctx context.Context, key integration.ImageCacheKey, uri string) error {
	if err := s.client.Set(ctx, s.redisKey(key), uri, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write image uri: %w", err)
	}
	return nil
}

func (s *RedisURIStore) redisKey(key integration.ImageCacheKey) string {
	return s.keyPrefix + key.String()
}

var _ SharedURIStore = (*RedisURIStore)(nil)
