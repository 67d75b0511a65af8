// Package cache holds the cache tiers in front of marketplace lookups.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/erp/marketplace/internal/domain/integration"
)

// SharedURIStore is an optional tier shared between process instances
type SharedURIStore interface {
	GetURI(ctx context.Context, key integration.ImageCacheKey) (string, bool, error)
	SetURI(ctx context.Context, key integration.ImageCacheKey, uri string) error
}

// ImageURICache resolves (content hash, use case) to a marketplace image URI.
// Lookups go memory, then the shared tier; writes go to the repository first
// and then to every fast tier.
type ImageURICache struct {
	repo   integration.ImageCacheRepository
	shared SharedURIStore
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	entries map[integration.ImageCacheKey]string
}

// ImageURICacheOption configures an ImageURICache
type ImageURICacheOption func(*ImageURICache)

// WithSharedStore adds a shared tier, typically Redis
func WithSharedStore(store SharedURIStore) ImageURICacheOption {
	return func(c *ImageURICache) {
		c.shared = store
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ImageURICacheOption {
	return func(c *ImageURICache) {
		c.logger = logger
	}
}

// NewImageURICache creates an empty cache; call Initialize before serving
func NewImageURICache(repo integration.ImageCacheRepository, opts ...ImageURICacheOption) *ImageURICache {
	c := &ImageURICache{
		repo:    repo,
		logger:  zap.NewNop(),
		now:     time.Now,
		entries: make(map[integration.ImageCacheKey]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize loads every persisted entry into memory
func (c *ImageURICache) Initialize(ctx context.Context) error {
	entries, err := c.repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load image cache: %w", err)
	}

	c.mu.Lock()
	for _, e := range entries {
		c.entries[e.Key] = e.URI
	}
	c.mu.Unlock()

	c.logger.Info("Image URI cache loaded", zap.Int("entries", len(entries)))
	return nil
}

// Get returns the cached URI for key
func (c *ImageURICache) Get(ctx context.Context, key integration.ImageCacheKey) (string, bool) {
	c.mu.RLock()
	uri, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return uri, true
	}
	if c.shared == nil {
		return "", false
	}

	uri, ok, err := c.shared.GetURI(ctx, key)
	if err != nil {
		c.logger.Warn("Shared image cache lookup failed", zap.String("key", key.String()), zap.Error(err))
		return "", false
	}
	if !ok {
		return "", false
	}
	c.remember(key, uri)
	return uri, true
}

// Put persists the entry and updates memory and the shared tier.
// A shared tier failure is logged; the persisted row stays authoritative.
func (c *ImageURICache) Put(ctx context.Context, entry integration.ImageCacheEntry) error {
	if err := entry.Key.Validate(); err != nil {
		return err
	}
	if entry.LastUpdated.IsZero() {
		entry.LastUpdated = c.now()
	}
	if err := c.repo.Upsert(ctx, &entry); err != nil {
		return fmt.Errorf("failed to persist image cache entry: %w", err)
	}
	c.remember(entry.Key, entry.URI)

	if c.shared != nil {
		if err := c.shared.SetURI(ctx, entry.Key, entry.URI); err != nil {
			c.logger.Warn("Shared image cache write failed", zap.String("key", entry.Key.String()), zap.Error(err))
		}
	}
	return nil
}

// Len returns the number of entries held in memory
func (c *ImageURICache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ImageURICache) remember(key integration.ImageCacheKey, uri string) {
	c.mu.Lock()
	c.entries[key] = uri
	c.mu.Unlock()
}

var _ integration.ImageURICache = (*ImageURICache)(nil)
