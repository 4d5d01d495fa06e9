package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"youtube-card/domain/repository"
	"youtube-card/infrastructure/logger"
	"youtube-card/infrastructure/utils"
)

// EnsureMetadataCacheSchema creates the cache table if not exists
func EnsureMetadataCacheSchema(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS metadata_cache (
        cache_key TEXT PRIMARY KEY,
        data JSONB NOT NULL,
        expires_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create metadata_cache table: %w", err)
	}

	// Purging scans by expiry
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_metadata_cache_expires_at ON metadata_cache(expires_at)`); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating idx_metadata_cache_expires_at")
	}
	return nil
}

// MetadataCacheRepository is the PostgreSQL cache backend. Values are stored as JSONB.
type MetadataCacheRepository struct {
	db  *sql.DB
	now utils.Clock
}

func NewMetadataCacheRepository(db *sql.DB, now utils.Clock) *MetadataCacheRepository {
	return &MetadataCacheRepository{db: db, now: now.OrDefault()}
}

var _ repository.IMetadataCache = (*MetadataCacheRepository)(nil)

// Get returns the stored value. Expired rows read as absent and are left for PurgeExpired.
func (r *MetadataCacheRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT data, expires_at FROM metadata_cache WHERE cache_key=$1`, key)
	var raw []byte
	var expiresAt time.Time
	if err := row.Scan(&raw, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("select metadata_cache %s: %w", key, err)
	}
	if !r.now().Before(expiresAt) {
		return nil, false, nil
	}
	return raw, true, nil
}

// Set upserts the row, replacing value and expiry.
func (r *MetadataCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("upsert metadata_cache %s: ttl must be positive", key)
	}
	now := r.now().UTC()
	q := `INSERT INTO metadata_cache(cache_key, data, expires_at, updated_at)
          VALUES ($1,$2,$3,$4)
          ON CONFLICT (cache_key) DO UPDATE SET data=EXCLUDED.data, expires_at=EXCLUDED.expires_at, updated_at=EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, q, key, value, now.Add(ttl), now); err != nil {
		return fmt.Errorf("upsert metadata_cache %s: %w", key, err)
	}
	return nil
}

func (r *MetadataCacheRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM metadata_cache WHERE cache_key=$1`, key); err != nil {
		return fmt.Errorf("delete metadata_cache %s: %w", key, err)
	}
	return nil
}

// PurgeExpired removes rows past their expiry and returns how many were deleted.
func (r *MetadataCacheRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM metadata_cache WHERE expires_at <= $1`, r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge metadata_cache: %w", err)
	}
	return res.RowsAffected()
}
