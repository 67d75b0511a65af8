package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryDeliveryStore_MarkDelivered(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewInMemoryDeliveryStore()
	store.now = func() time.Time { return now }

	first, err := store.MarkDelivered(ctx, "ORD-1|Pending|1714550000", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.MarkDelivered(ctx, "ORD-1|Pending|1714550000", time.Minute)
	require.NoError(t, err)
	assert.False(t, again)

	other, err := store.MarkDelivered(ctx, "ORD-1|Unpaid|1714549000", time.Minute)
	require.NoError(t, err)
	assert.True(t, other)

	now = now.Add(2 * time.Minute)
	expired, err := store.MarkDelivered(ctx, "ORD-1|Pending|1714550000", time.Minute)
	require.NoError(t, err)
	assert.True(t, expired, "a key is accepted again once its ttl passed")
}

func TestInMemoryDeliveryStore_Forget(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryDeliveryStore()

	first, err := store.MarkDelivered(ctx, "ORD-1|pending|1", time.Minute)
	require.NoError(t, err)
	require.True(t, first)

	require.NoError(t, store.Forget(ctx, "ORD-1|pending|1"))
	require.NoError(t, store.Forget(ctx, "never-marked"))

	again, err := store.MarkDelivered(ctx, "ORD-1|pending|1", time.Minute)
	require.NoError(t, err)
	assert.True(t, again)
}

func TestInMemoryDeliveryStore_SweepsExpiredKeys(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewInMemoryDeliveryStore()
	store.now = func() time.Time { return now }
	store.sweepAt = 4

	for i := 0; i < 4; i++ {
		_, err := store.MarkDelivered(ctx, fmt.Sprintf("k%d", i), time.Second)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, store.Size())

	now = now.Add(time.Minute)
	_, err := store.MarkDelivered(ctx, "fresh", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Size())
}

func TestRedisDeliveryStore_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	store := NewRedisDeliveryStore(client, "")
	_, err := store.MarkDelivered(context.Background(), "ORD-1", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to mark webhook delivery")

	err = store.Forget(context.Background(), "ORD-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to release webhook delivery")
}
