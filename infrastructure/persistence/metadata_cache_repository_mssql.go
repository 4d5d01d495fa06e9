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

// EnsureMetadataCacheSchemaMSSQL creates the cache table on MSSQL if not exists
func EnsureMetadataCacheSchemaMSSQL(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("db is nil")
	}
	ddl := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.metadata_cache') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.metadata_cache (
        cache_key NVARCHAR(256) NOT NULL PRIMARY KEY,
        data NVARCHAR(MAX) NOT NULL,
        expires_at DATETIMEOFFSET NOT NULL,
        updated_at DATETIMEOFFSET NOT NULL
    );
END`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create metadata_cache table (mssql): %w", err)
	}
	if _, err := db.ExecContext(ctx, `IF NOT EXISTS (SELECT * FROM sys.indexes WHERE name = 'idx_metadata_cache_expires_at' AND object_id = OBJECT_ID('dbo.metadata_cache'))
CREATE INDEX idx_metadata_cache_expires_at ON dbo.metadata_cache(expires_at)`); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating idx_metadata_cache_expires_at (mssql)")
	}
	return nil
}

// MetadataCacheRepositoryMSSQL implements IMetadataCache on MSSQL
type MetadataCacheRepositoryMSSQL struct {
	db  *sql.DB
	now utils.Clock
}

func NewMetadataCacheRepositoryMSSQL(db *sql.DB, now utils.Clock) *MetadataCacheRepositoryMSSQL {
	return &MetadataCacheRepositoryMSSQL{db: db, now: now.OrDefault()}
}

var _ repository.IMetadataCache = (*MetadataCacheRepositoryMSSQL)(nil)

func (r *MetadataCacheRepositoryMSSQL) Get(ctx context.Context, key string) ([]byte, bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT data, expires_at FROM dbo.metadata_cache WHERE cache_key=@p1`, key)
	var raw string
	var expiresAt time.Time
	if err := row.Scan(&raw, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("select metadata_cache %s (mssql): %w", key, err)
	}
	if !r.now().Before(expiresAt) {
		return nil, false, nil
	}
	return []byte(raw), true, nil
}

func (r *MetadataCacheRepositoryMSSQL) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("merge metadata_cache %s (mssql): ttl must be positive", key)
	}
	now := r.now().UTC()
	q := `MERGE dbo.metadata_cache AS target
USING (SELECT @p1 AS cache_key) AS src
ON (target.cache_key = src.cache_key)
WHEN MATCHED THEN UPDATE SET data=@p2, expires_at=@p3, updated_at=@p4
WHEN NOT MATCHED THEN INSERT (cache_key, data, expires_at, updated_at)
VALUES (@p1, @p2, @p3, @p4);`
	if _, err := r.db.ExecContext(ctx, q, key, string(value), now.Add(ttl), now); err != nil {
		return fmt.Errorf("merge metadata_cache %s (mssql): %w", key, err)
	}
	return nil
}

func (r *MetadataCacheRepositoryMSSQL) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM dbo.metadata_cache WHERE cache_key=@p1`, key); err != nil {
		return fmt.Errorf("delete metadata_cache %s (mssql): %w", key, err)
	}
	return nil
}

func (r *MetadataCacheRepositoryMSSQL) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dbo.metadata_cache WHERE expires_at <= @p1`, r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge metadata_cache (mssql): %w", err)
	}
	return res.RowsAffected()
}
