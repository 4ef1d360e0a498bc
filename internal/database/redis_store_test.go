package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStore_GetMissingKey(t *testing.T) {
	store, _ := newTestRedisStore(t)

	_, err := store.Get(context.Background(), "wedding:guests")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisStore_SetGetDelete(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", []byte(`{"x":1}`), 0))
	require.NoError(t, store.Set(ctx, "b", []byte(`[]`), 0))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(got))

	require.NoError(t, store.Delete(ctx, "a", "b", "missing"))
	_, err = store.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisStore_TTLExpires(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "wedding:ratelimit:1.2.3.4", []byte(`{}`), time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("wedding:ratelimit:1.2.3.4"))

	mr.FastForward(time.Hour + time.Second)
	_, err := store.Get(ctx, "wedding:ratelimit:1.2.3.4")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisStore_Ping(t *testing.T) {
	store, mr := newTestRedisStore(t)
	assert.NoError(t, store.Ping(context.Background()))

	mr.Close()
	assert.Error(t, store.Ping(context.Background()))
}

func TestNewRedisStore_InvalidURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestNewRedisStoreFromClient(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer store.Close()

	require.NoError(t, store.Set(context.Background(), "k", []byte("v"), 0))
	v, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(v))
}
