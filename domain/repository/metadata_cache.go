package repository

import (
	"context"
	"time"
)

// IMetadataCache is a shared key/value store with per-entry expiry.
// Get on an absent or expired key returns (nil, false, nil).
type IMetadataCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
