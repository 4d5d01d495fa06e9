package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"youtube-card/domain/repository"
	"youtube-card/infrastructure/logger"
	"youtube-card/infrastructure/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript drops admissions older than the window, then admits and records
// the request only if fewer than limit remain. Runs atomically inside Redis.
//
// KEYS[1] sorted set of admission timestamps (ms)
// ARGV    now (ms), window (ms), limit, unique member
// returns {allowed, remaining, reset (ms)}
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
  redis.call('ZADD', key, now, ARGV[4])
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', key, window)

local reset = now + window
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if oldest[2] then
  reset = tonumber(oldest[2]) + window
end
return {allowed, limit - count, reset}
`)

// Quota is the policy of one class. FailOpen admits requests when Redis is unreachable.
type Quota struct {
	Limit    int
	Window   time.Duration
	FailOpen bool
}

type slidingWindowLimiter struct {
	client redis.Scripter
	quotas map[repository.QuotaClass]Quota
	clock  utils.Clock
}

type Option func(*slidingWindowLimiter)

func WithClock(clock utils.Clock) Option {
	return func(l *slidingWindowLimiter) { l.clock = clock }
}

func NewSlidingWindowLimiter(client redis.Scripter, quotas map[repository.QuotaClass]Quota, opts ...Option) repository.IRateLimiter {
	l := &slidingWindowLimiter{client: client, quotas: quotas}
	for _, opt := range opts {
		opt(l)
	}
	l.clock = l.clock.OrDefault()
	return l
}

func windowKey(class repository.QuotaClass, identity string) string {
	return fmt.Sprintf("ratelimit:%s:%s", class, identity)
}

func (l *slidingWindowLimiter) Limit(ctx context.Context, identity string, class repository.QuotaClass) (repository.RateLimitResult, error) {
	quota, ok := l.quotas[class]
	if !ok {
		return repository.RateLimitResult{}, fmt.Errorf("unknown quota class %q", class)
	}

	now := l.clock()
	nowMs := now.UnixMilli()
	result := repository.RateLimitResult{Limit: quota.Limit, Window: quota.Window}

	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString()
	values, err := slidingWindowScript.Run(ctx, l.client,
		[]string{windowKey(class, identity)},
		nowMs, quota.Window.Milliseconds(), quota.Limit, member,
	).Int64Slice()
	if err != nil {
		entry := logger.GetLogger().WithFields(map[string]interface{}{
			"error":    err,
			"class":    class,
			"identity": identity,
		})
		if quota.FailOpen {
			entry.Warn("Rate limiter unavailable, admitting request")
			result.Allowed = true
			result.Remaining = quota.Limit
			result.Reset = now.Add(quota.Window)
			return result, nil
		}
		entry.Error("Rate limiter unavailable, rejecting request")
		return result, fmt.Errorf("rate limiter %s: %w", class, err)
	}
	if len(values) != 3 {
		return result, fmt.Errorf("rate limiter %s: unexpected reply %v", class, values)
	}

	result.Allowed = values[0] == 1
	result.Remaining = int(values[1])
	result.Reset = time.UnixMilli(values[2])
	return result, nil
}
