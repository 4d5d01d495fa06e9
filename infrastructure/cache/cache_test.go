package cache_test

import (
	"context"
	"testing"
	"time"

	"youtube-card/domain/model"
	"youtube-card/infrastructure/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestMetadataCache(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	c := cache.NewMetadataCache(client)
	key := model.ResourceVideo.CacheKey("XEO3duW1A80")

	t.Run("absent key", func(t *testing.T) {
		value, ok, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, value)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, key, []byte(`{"id":"XEO3duW1A80"}`), time.Hour))

		value, ok, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.JSONEq(t, `{"id":"XEO3duW1A80"}`, string(value))
		assert.Equal(t, time.Hour, mr.TTL(key))
	})

	t.Run("last set wins", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, key, []byte(`"second"`), 2*time.Hour))
		value, _, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `"second"`, string(value))
		assert.Equal(t, 2*time.Hour, mr.TTL(key))
	})

	t.Run("expired entries read as absent", func(t *testing.T) {
		mr.FastForward(3 * time.Hour)
		_, ok, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, key, []byte("x"), time.Hour))
		require.NoError(t, c.Delete(ctx, key))
		_, ok, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("rejects non-positive ttl", func(t *testing.T) {
		assert.Error(t, c.Set(ctx, key, []byte("x"), 0))
	})

	t.Run("backend failure is returned", func(t *testing.T) {
		mr.SetError("LOADING")
		defer mr.SetError("")
		_, _, err := c.Get(ctx, key)
		assert.Error(t, err)
	})
}

func TestRenderJobStore(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	store := cache.NewRenderJobStore(client)

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	job := model.NewRenderJob("r1", "bucket-1", "youtube-video-card", "Talk", created)
	require.NoError(t, store.Save(ctx, job, time.Hour))

	loaded, err := store.Get(ctx, "bucket-1", "r1")
	require.NoError(t, err)
	assert.Equal(t, job.ID, loaded.ID)
	assert.Equal(t, model.RenderQueued, loaded.Status)
	assert.True(t, created.Equal(loaded.CreatedAt))
	assert.Equal(t, time.Hour, mr.TTL("render:bucket-1:r1"))

	_, err = store.Get(ctx, "bucket-1", "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRenderJobStoreFinishesOnce(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	store := cache.NewRenderJobStore(client)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	job := model.NewRenderJob("r1", "bucket-1", "youtube-video-card", "Talk", at)
	require.NoError(t, job.Apply(model.RenderSnapshot{OverallProgress: 0.5}, at))
	require.NoError(t, store.Save(ctx, job, time.Hour))

	first := *job
	require.NoError(t, first.Apply(model.RenderSnapshot{Done: true, OutputURL: "https://cdn/first.webm"}, at))
	second := *job
	require.NoError(t, second.Apply(model.RenderSnapshot{Done: true, OutputURL: "https://cdn/second.webm"}, at))

	written, err := store.Finish(ctx, &first, 2*time.Hour)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, 2*time.Hour, mr.TTL("render:bucket-1:r1"))

	written, err = store.Finish(ctx, &second, 2*time.Hour)
	require.NoError(t, err)
	assert.False(t, written)

	loaded, err := store.Get(ctx, "bucket-1", "r1")
	require.NoError(t, err)
	assert.Equal(t, model.RenderDone, loaded.Status)
	assert.Equal(t, "https://cdn/first.webm", loaded.OutputURL)

	_, err = store.Finish(ctx, model.NewRenderJob("r2", "bucket-1", "youtube-video-card", "Talk", at), time.Hour)
	assert.Error(t, err)
}
