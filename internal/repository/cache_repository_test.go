package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/colisselect-api/pkg/errors"
)

func TestCacheRepositoryRoundTrip(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	repo := NewCacheRepository(client)
	defer repo.Close()
	ctx := context.Background()

	var out map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "tracking:missing", &out), appErrors.ErrCacheMiss)

	written, err := repo.SetIfGeneration(ctx, "tracking:SHIP1", 0, map[string]string{"status": "in_transit"}, time.Minute)
	require.NoError(t, err)
	require.True(t, written)
	require.NoError(t, repo.Get(ctx, "tracking:SHIP1", &out))
	assert.Equal(t, "in_transit", out["status"])

	srv.FastForward(2 * time.Minute)
	assert.ErrorIs(t, repo.Get(ctx, "tracking:SHIP1", &out), appErrors.ErrCacheMiss)

	_, err = repo.SetIfGeneration(ctx, "tracking:SHIP2", 0, "x", time.Minute)
	require.NoError(t, err)
	require.NoError(t, repo.Invalidate(ctx, "tracking:SHIP2", "tracking:absent"))
	assert.False(t, srv.Exists("tracking:SHIP2"))
	require.NoError(t, repo.Ping(ctx))
}

func TestCacheRepositorySkipsWriteAfterInvalidate(t *testing.T) {
	srv := miniredis.RunT(t)
	repo := NewCacheRepository(redis.NewClient(&redis.Options{Addr: srv.Addr()}))
	defer repo.Close()
	ctx := context.Background()
	key := "tracking:SHIP7"

	gen, err := repo.Generation(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, gen)

	// A mutation lands while the lookup is still reading the store.
	require.NoError(t, repo.Invalidate(ctx, key))

	written, err := repo.SetIfGeneration(ctx, key, gen, map[string]string{"status": "processing"}, time.Minute)
	require.NoError(t, err)
	assert.False(t, written)
	assert.False(t, srv.Exists(key))

	gen, err = repo.Generation(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
	assert.True(t, srv.TTL(key+":gen") > 0)

	written, err = repo.SetIfGeneration(ctx, key, gen, map[string]string{"status": "delivered"}, time.Minute)
	require.NoError(t, err)
	assert.True(t, written)

	var out map[string]string
	require.NoError(t, repo.Get(ctx, key, &out))
	assert.Equal(t, "delivered", out["status"])

	require.NoError(t, repo.Invalidate(ctx, key))
	assert.False(t, srv.Exists(key))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil)
	var out string
	assert.ErrorIs(t, repo.Get(context.Background(), "k", &out), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Invalidate(context.Background(), "k"))
	written, err := repo.SetIfGeneration(context.Background(), "k", 0, "v", time.Second)
	assert.NoError(t, err)
	assert.False(t, written)
	assert.NoError(t, repo.Close())
}
