package repository

import (
	"context"
	"time"
)

// QuotaClass names a rate-limit policy with its own limit and window.
type QuotaClass string

const (
	QuotaAbuse QuotaClass = "abuse"
	QuotaFree  QuotaClass = "free"
)

type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	Window    time.Duration
	// Reset is when the oldest admission leaves the window.
	Reset time.Time
}

// IRateLimiter admits or rejects one request for identity under class, recording it when admitted.
type IRateLimiter interface {
	Limit(ctx context.Context, identity string, class QuotaClass) (RateLimitResult, error)
}
