package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return NewRedisStore(client)
}

func TestRedisStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	now := time.Now().Truncate(time.Second)
	s := Session{
		SessionID:   "sid-1",
		UserID:      "user-1",
		CreatedAt:   now,
		LastRefresh: now,
		ExpiresAt:   now.Add(time.Hour),
	}

	require.NoError(t, store.Create(ctx, s))

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.UserID, got.UserID)
	assert.True(t, got.LastRefresh.Equal(s.LastRefresh))
	assert.True(t, got.ExpiresAt.Equal(s.ExpiresAt))
}

func TestRedisStoreGetMissing(t *testing.T) {
	store := newStore(t)

	got, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStoreCreateValidation(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	assert.Error(t, store.Create(ctx, Session{UserID: "u"}))
	assert.Error(t, store.Create(ctx, Session{
		SessionID: "sid",
		UserID:    "u",
		ExpiresAt: time.Now().Add(-time.Minute),
	}))
}

func TestRedisStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	s := Session{SessionID: "sid-2", UserID: "u", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Create(ctx, s))
	require.NoError(t, store.Delete(ctx, "sid-2"))

	got, err := store.Get(ctx, "sid-2")
	require.NoError(t, err)
	assert.Nil(t, got)
}
