package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyStoreCheckAndSetExisting(t *testing.T) {
	client, _ := newTestRedisClient(t)
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, store.prefix+"key", "cached", time.Minute).Err())

	exists, resp, err := store.CheckAndSet(ctx, "key", nil, time.Minute)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "cached", string(resp))
}

func TestIdempotencyStoreCheckAndSetLocksNewKey(t *testing.T) {
	client, _ := newTestRedisClient(t)
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	exists, resp, err := store.CheckAndSet(ctx, "pending", nil, time.Minute)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Nil(t, resp)

	val, err := client.Get(ctx, store.prefix+"pending").Result()
	require.NoError(t, err)
	assert.Equal(t, ProcessingMarker, val)

	exists, resp, err = store.CheckAndSet(ctx, "pending", nil, time.Minute)
	require.NoError(t, err)
	assert.True(t, exists, "a second request sees the in-flight marker")
	assert.Equal(t, ProcessingMarker, string(resp))
}

func TestIdempotencyStoreUpdateAndExpire(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, "complete", []byte("done"), time.Minute))

	val, err := client.Get(ctx, store.prefix+"complete").Result()
	require.NoError(t, err)
	assert.Equal(t, "done", val)

	mr.FastForward(2 * time.Minute)
	exists, _, err := store.CheckAndSet(ctx, "complete", nil, time.Minute)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIdempotencyStoreRelease(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	_, _, err := store.CheckAndSet(ctx, "failed", nil, time.Minute)
	require.NoError(t, err)
	require.True(t, mr.Exists(store.prefix+"failed"))

	require.NoError(t, store.Release(ctx, "failed"))
	assert.False(t, mr.Exists(store.prefix+"failed"))

	exists, _, err := store.CheckAndSet(ctx, "failed", nil, time.Minute)
	require.NoError(t, err)
	assert.False(t, exists, "a released key can be claimed again")
}
