package internal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lychee-technology/roster"
	"go.uber.org/zap"
)

type kvPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// PostgresKVStore keeps blobs in a two-column table keyed by storage key.
type PostgresKVStore struct {
	pool    kvPool
	table   string
	nowFunc func() time.Time
}

var _ roster.KeyValueStore = (*PostgresKVStore)(nil)

func NewPostgresKVStore(pool kvPool, table string) *PostgresKVStore {
	return &PostgresKVStore{
		pool:    pool,
		table:   sanitizeIdentifier(table),
		nowFunc: time.Now,
	}
}

func (s *PostgresKVStore) withClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.nowFunc = now
}

// EnsureTable creates the backing table when it does not exist yet.
func (s *PostgresKVStore) EnsureTable(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createKVTableSQL(s.table, "JSONB")); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	zap.S().Debugw("kv table ready", "table", s.table)
	return nil
}

// Ping checks that the database answers and that the kv table is readable.
func (s *PostgresKVStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	if _, err := s.pool.Exec(ctx, "SELECT 1 FROM "+s.table+" LIMIT 1"); err != nil {
		return fmt.Errorf("postgres kv table check failed: %w", err)
	}
	return nil
}

func (s *PostgresKVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, selectKVSQL(s.table, "$1"), key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresKVStore) Put(ctx context.Context, key string, value []byte) error {
	query := upsertKVSQL(s.table, "$1", "$2::jsonb", "$3")
	if _, err := s.pool.Exec(ctx, query, key, string(value), s.nowFunc().UnixMilli()); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func createKVTableSQL(table, valueType string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	"key" TEXT PRIMARY KEY,
	"value" %s NOT NULL,
	updated_at BIGINT NOT NULL
)`, table, valueType)
}

func selectKVSQL(table, keyParam string) string {
	return fmt.Sprintf(`SELECT "value" FROM %s WHERE "key" = %s`, table, keyParam)
}

func upsertKVSQL(table, keyParam, valueParam, updatedParam string) string {
	return fmt.Sprintf(`INSERT INTO %s ("key", "value", updated_at) VALUES (%s, %s, %s)
ON CONFLICT ("key") DO UPDATE SET "value" = EXCLUDED."value", updated_at = EXCLUDED.updated_at`,
		table, keyParam, valueParam, updatedParam)
}
