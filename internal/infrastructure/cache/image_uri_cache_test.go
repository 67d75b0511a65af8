package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/erp/marketplace/internal/domain/integration"
)

type mockImageCacheRepo struct {
	mock.Mock
}

func (m *mockImageCacheRepo) FindAll(ctx context.Context) ([]integration.ImageCacheEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.ImageCacheEntry), args.Error(1)
}

func (m *mockImageCacheRepo) Upsert(ctx context.Context, entry *integration.ImageCacheEntry) error {
	return m.Called(ctx, entry).Error(0)
}

type fakeSharedStore struct {
	uris   map[integration.ImageCacheKey]string
	getErr error
	setErr error
}

func (f *fakeSharedStore) GetURI(_ context.Context, key integration.ImageCacheKey) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	uri, ok := f.uris[key]
	return uri, ok, nil
}

func (f *fakeSharedStore) SetURI(_ context.Context, key integration.ImageCacheKey, uri string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.uris[key] = uri
	return nil
}

func mainKey(content string) integration.ImageCacheKey {
	return integration.ImageCacheKey{
		ContentHash: integration.HashImageContent([]byte(content)),
		UseCase:     integration.ImageUseCaseMain,
	}
}

func TestImageURICache_Initialize(t *testing.T) {
	ctx := context.Background()
	repo := new(mockImageCacheRepo)
	repo.On("FindAll", ctx).Return([]integration.ImageCacheEntry{
		{Key: mainKey("a"), URI: "https://img/a"},
		{Key: mainKey("b"), URI: "https://img/b"},
	}, nil)

	c := NewImageURICache(repo)
	require.NoError(t, c.Initialize(ctx))
	assert.Equal(t, 2, c.Len())

	uri, ok := c.Get(ctx, mainKey("a"))
	assert.True(t, ok)
	assert.Equal(t, "https://img/a", uri)

	_, ok = c.Get(ctx, integration.ImageCacheKey{ContentHash: mainKey("a").ContentHash, UseCase: integration.ImageUseCaseVariant})
	assert.False(t, ok, "the use case is part of the key")
}

func TestImageURICache_InitializeFailure(t *testing.T) {
	ctx := context.Background()
	repo := new(mockImageCacheRepo)
	repo.On("FindAll", ctx).Return(nil, errors.New("db down"))

	err := NewImageURICache(repo).Initialize(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestImageURICache_Put(t *testing.T) {
	ctx := context.Background()

	t.Run("writes through to repository and shared tier", func(t *testing.T) {
		repo := new(mockImageCacheRepo)
		repo.On("Upsert", ctx, mock.MatchedBy(func(e *integration.ImageCacheEntry) bool {
			return e.URI == "https://img/a" && !e.LastUpdated.IsZero()
		})).Return(nil)
		shared := &fakeSharedStore{uris: map[integration.ImageCacheKey]string{}}

		c := NewImageURICache(repo, WithSharedStore(shared))
		require.NoError(t, c.Put(ctx, integration.ImageCacheEntry{Key: mainKey("a"), ImagePath: "/files/a.png", URI: "https://img/a"}))

		uri, ok := c.Get(ctx, mainKey("a"))
		assert.True(t, ok)
		assert.Equal(t, "https://img/a", uri)
		assert.Equal(t, "https://img/a", shared.uris[mainKey("a")])
		repo.AssertExpectations(t)
	})

	t.Run("repository failure leaves memory untouched", func(t *testing.T) {
		repo := new(mockImageCacheRepo)
		repo.On("Upsert", ctx, mock.Anything).Return(errors.New("constraint"))

		c := NewImageURICache(repo)
		require.Error(t, c.Put(ctx, integration.ImageCacheEntry{Key: mainKey("a"), URI: "https://img/a"}))
		_, ok := c.Get(ctx, mainKey("a"))
		assert.False(t, ok)
	})

	t.Run("shared tier failure is not fatal", func(t *testing.T) {
		repo := new(mockImageCacheRepo)
		repo.On("Upsert", ctx, mock.Anything).Return(nil)
		shared := &fakeSharedStore{uris: map[integration.ImageCacheKey]string{}, setErr: errors.New("redis down")}

		c := NewImageURICache(repo, WithSharedStore(shared))
		require.NoError(t, c.Put(ctx, integration.ImageCacheEntry{Key: mainKey("a"), URI: "https://img/a"}))
		_, ok := c.Get(ctx, mainKey("a"))
		assert.True(t, ok)
	})

	t.Run("invalid key", func(t *testing.T) {
		c := NewImageURICache(new(mockImageCacheRepo))
		err := c.Put(ctx, integration.ImageCacheEntry{Key: integration.ImageCacheKey{ContentHash: "x"}, URI: "u"})
		assert.ErrorIs(t, err, integration.ErrImageCacheKeyInvalid)
	})
}

func TestImageURICache_SharedTierFallback(t *testing.T) {
	ctx := context.Background()
	shared := &fakeSharedStore{uris: map[integration.ImageCacheKey]string{mainKey("a"): "https://img/a"}}
	c := NewImageURICache(new(mockImageCacheRepo), WithSharedStore(shared))

	uri, ok := c.Get(ctx, mainKey("a"))
	require.True(t, ok)
	assert.Equal(t, "https://img/a", uri)
	assert.Equal(t, 1, c.Len(), "shared hits are kept in memory")

	shared.getErr = errors.New("redis down")
	_, ok = c.Get(ctx, mainKey("b"))
	assert.False(t, ok)
}

func TestRedisURIStore_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	store := NewRedisURIStore(client, "", time.Hour)
	assert.Equal(t, "marketplace:image_uri:abc:MAIN_IMAGE", store.redisKey(integration.ImageCacheKey{ContentHash: "abc", UseCase: integration.ImageUseCaseMain}))

	_, _, err := store.GetURI(context.Background(), mainKey("a"))
	assert.Error(t, err)
	assert.Error(t, store.SetURI(context.Background(), mainKey("a"), "u"))
}
