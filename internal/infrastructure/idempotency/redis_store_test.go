package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, time.Hour), mr
}

func TestRedisStore_ClaimSaveReplay(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	resp, err := store.Claim(ctx, "company-1", "k1")
	require.NoError(t, err)
	assert.Nil(t, resp)

	_, err = store.Claim(ctx, "company-1", "k1")
	assert.ErrorIs(t, err, ErrInProgress)

	saved := Response{Status: 201, Body: []byte(`{"orders":[]}`)}
	require.NoError(t, store.Save(ctx, "company-1", "k1", saved))

	resp, err = store.Claim(ctx, "company-1", "k1")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 201, resp.Status)
	assert.JSONEq(t, `{"orders":[]}`, string(resp.Body))
}

func TestRedisStore_ScopedByCompany(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	_, err := store.Claim(ctx, "company-1", "k")
	require.NoError(t, err)
	resp, err := store.Claim(ctx, "company-2", "k")
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestRedisStore_ReleaseAllowsRetry(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	_, err := store.Claim(ctx, "c", "k")
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "c", "k"))

	resp, err := store.Claim(ctx, "c", "k")
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestRedisStore_KeyExpires(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)

	require.NoError(t, store.Save(ctx, "c", "k", Response{Status: 201, Body: []byte(`{}`)}))
	mr.FastForward(2 * time.Hour)

	resp, err := store.Claim(ctx, "c", "k")
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestRedisStore_Unreachable(t *testing.T) {
	store, mr := newStore(t)
	mr.Close()

	_, err := store.Claim(context.Background(), "c", "k")
	assert.Error(t, err)
}
