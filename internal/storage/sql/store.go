// Package sql implements the storage interface over sqlite3 or postgres.
package sql

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/Wotsits/domain-and-protocol-switcher/internal/domain"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/storage"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Store implements the storage.Storage interface using SQL. The
// collection for each profile is stored as one versioned JSON payload in
// a single row, mirroring the single-key synced store the popup writes
// to; writes replace the whole payload, last writer wins.
type Store struct {
	db         *sqlx.DB
	driver     string
	quotaBytes int64
}

// New creates a new SQL store and runs pending migrations. quotaBytes
// bounds the encoded size of a profile's collection; writes beyond it
// fail with domain.ErrQuotaExceeded.
func New(driver, dsn string, quotaBytes int64) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(driver); err != nil {
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db, driver: driver, quotaBytes: quotaBytes}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// wrapStorageError marks driver-level failures as ErrStorageUnavailable
// so callers can tell them apart from validation failures and quota hits.
func wrapStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrStorageUnavailable, op, err)
}

// ============================================
// Collections
// ============================================

func (s *Store) LoadCollection(ctx context.Context, profileID string) (*domain.Collection, error) {
	var payload []byte
	err := s.db.GetContext(ctx, &payload,
		`SELECT payload FROM collections WHERE profile_id = $1`, profileID)
	if errors.Is(err, sql.ErrNoRows) {
		// Never-saved profiles load as the empty collection.
		return &domain.Collection{}, nil
	}
	if err != nil {
		return nil, wrapStorageError("loading collection", err)
	}
	return storage.DecodeCollection(payload)
}

func (s *Store) SaveCollection(ctx context.Context, profileID string, c *domain.Collection) error {
	payload, err := storage.EncodeCollection(c)
	if err != nil {
		return err
	}
	if err := storage.CheckQuota(payload, s.quotaBytes); err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collections (profile_id, schema_version, payload, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (profile_id) DO UPDATE SET
		   schema_version = excluded.schema_version,
		   payload = excluded.payload,
		   updated_at = excluded.updated_at`,
		profileID, storage.SchemaVersion, payload, time.Now().UTC())
	return wrapStorageError("saving collection", err)
}

func (s *Store) ResetCollection(ctx context.Context, profileID string) error {
	// Deleting the row and saving an empty collection are equivalent:
	// both make the next load return the empty state.
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM collections WHERE profile_id = $1`, profileID)
	return wrapStorageError("resetting collection", err)
}

// ============================================
// API Keys
// ============================================

func (s *Store) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, created_at, last_used_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix, key.CreatedAt, key.LastUsedAt)
	return wrapStorageError("creating api key", err)
}

func (s *Store) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	var key domain.APIKey
	err := s.db.GetContext(ctx, &key,
		`SELECT id, name, key_hash, key_prefix, created_at, last_used_at
		 FROM api_keys WHERE key_hash = $1`, keyHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, wrapStorageError("getting api key", err)
	}
	return &key, nil
}

func (s *Store) ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error) {
	var keys []*domain.APIKey
	err := s.db.SelectContext(ctx, &keys,
		`SELECT id, name, key_hash, key_prefix, created_at, last_used_at
		 FROM api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, wrapStorageError("listing api keys", err)
	}
	return keys, nil
}

func (s *Store) DeleteAPIKey(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return wrapStorageError("deleting api key", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = $1 WHERE id = $2`, time.Now(), id)
	return wrapStorageError("updating api key", err)
}

func (s *Store) CountAPIKeys(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM api_keys`)
	if err != nil {
		return 0, wrapStorageError("counting api keys", err)
	}
	return count, nil
}
