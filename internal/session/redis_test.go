package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStoreTest(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(rdb, "bp"), mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestRedisStore_SaveLoad(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	sess := New(State{PendingUserID: 7}, time.Now())
	require.NoError(t, store.Save(ctx, sess))

	assert.True(t, mr.Exists("bp:sess:"+sess.ID))
	ttl := mr.TTL("bp:sess:" + sess.ID)
	assert.Greater(t, ttl, 23*time.Hour)
	assert.LessOrEqual(t, ttl, Lifetime)

	got, err := store.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, State{PendingUserID: 7}, got.State)

	sess.State = State{UserID: 7, IsAuthenticated: true}
	require.NoError(t, store.Save(ctx, sess))

	got, err = store.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, got.State.Authenticated())
	assert.Zero(t, got.State.PendingUserID)
}

func TestRedisStore_LoadMissing(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()

	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_ExpiresWithTTL(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	sess := New(State{UserID: 1, IsAuthenticated: true}, time.Now())
	require.NoError(t, store.Save(ctx, sess))

	mr.FastForward(Lifetime + time.Second)

	_, err := store.Load(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_SaveExpiredDeletes(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	sess := New(State{UserID: 1, IsAuthenticated: true}, time.Now())
	require.NoError(t, store.Save(ctx, sess))

	sess.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.Save(ctx, sess))
	assert.False(t, mr.Exists("bp:sess:"+sess.ID))
}

func TestRedisStore_DeleteIdempotent(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	sess := New(State{PendingUserID: 3}, time.Now())
	require.NoError(t, store.Save(ctx, sess))
	require.NoError(t, store.Delete(ctx, sess.ID))
	require.NoError(t, store.Delete(ctx, sess.ID))

	_, err := store.Load(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Unavailable(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	mr.Close()

	_, err := store.Load(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
