package ratelimit_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"youtube-card/domain/repository"
	"youtube-card/infrastructure/ratelimit"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var quotas = map[repository.QuotaClass]ratelimit.Quota{
	repository.QuotaAbuse: {Limit: 5, Window: 10 * time.Second},
	repository.QuotaFree:  {Limit: 100, Window: 24 * time.Hour, FailOpen: true},
}

func setup(t *testing.T) (*miniredis.Miniredis, *fakeClock, repository.IRateLimiter) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return mr, clock, ratelimit.NewSlidingWindowLimiter(client, quotas, ratelimit.WithClock(clock.Now))
}

func TestSixthRequestWithinWindowIsRejected(t *testing.T) {
	ctx := context.Background()
	_, clock, limiter := setup(t)

	for i := 0; i < 5; i++ {
		res, err := limiter.Limit(ctx, "1.2.3.4", repository.QuotaAbuse)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i+1)
		assert.Equal(t, 4-i, res.Remaining)
		assert.Equal(t, 5, res.Limit)
		clock.Advance(time.Second)
	}

	res, err := limiter.Limit(ctx, "1.2.3.4", repository.QuotaAbuse)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	// the first admission (t=0) leaves the window at t=10s
	clock.Advance(5 * time.Second)
	res, err = limiter.Limit(ctx, "1.2.3.4", repository.QuotaAbuse)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestNoBurstAtWindowBoundary(t *testing.T) {
	ctx := context.Background()
	_, clock, limiter := setup(t)

	for i := 0; i < 3; i++ {
		res, err := limiter.Limit(ctx, "id", repository.QuotaAbuse)
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}
	clock.Advance(6 * time.Second)
	for i := 0; i < 2; i++ {
		res, err := limiter.Limit(ctx, "id", repository.QuotaAbuse)
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}

	// a fixed bucket would reset here; the sliding window only frees the three oldest
	clock.Advance(4 * time.Second)
	admitted := 0
	for i := 0; i < 5; i++ {
		res, err := limiter.Limit(ctx, "id", repository.QuotaAbuse)
		require.NoError(t, err)
		if res.Allowed {
			admitted++
		}
	}
	assert.Equal(t, 3, admitted)
}

func TestIdentitiesAndClassesAreIndependent(t *testing.T) {
	ctx := context.Background()
	_, _, limiter := setup(t)

	for i := 0; i < 5; i++ {
		_, err := limiter.Limit(ctx, "a", repository.QuotaAbuse)
		require.NoError(t, err)
	}
	res, err := limiter.Limit(ctx, "a", repository.QuotaAbuse)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	res, err = limiter.Limit(ctx, "b", repository.QuotaAbuse)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.Limit(ctx, "a", repository.QuotaFree)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 99, res.Remaining)
}

func TestConcurrentAdmissionsNeverExceedLimit(t *testing.T) {
	ctx := context.Background()
	_, _, limiter := setup(t)

	var admitted int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := limiter.Limit(ctx, "burst", repository.QuotaAbuse)
			if err == nil && res.Allowed {
				atomic.AddInt64(&admitted, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(5), admitted)
}

func TestFailurePolicy(t *testing.T) {
	ctx := context.Background()
	mr, _, limiter := setup(t)
	mr.Close()

	_, err := limiter.Limit(ctx, "id", repository.QuotaAbuse)
	assert.Error(t, err, "abuse class fails closed")

	res, err := limiter.Limit(ctx, "id", repository.QuotaFree)
	require.NoError(t, err, "free class fails open")
	assert.True(t, res.Allowed)
}

func TestUnknownClass(t *testing.T) {
	_, _, limiter := setup(t)
	_, err := limiter.Limit(context.Background(), "id", repository.QuotaClass("premium"))
	assert.Error(t, err)
}
