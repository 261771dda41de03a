package internal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/lib/pq"
	"github.com/lychee-technology/roster"
)

// SQLKVStore is the database/sql rendition of PostgresKVStore. It serves the duckdb and
// postgres (lib/pq) drivers; both accept $n placeholders and ON CONFLICT upserts.
type SQLKVStore struct {
	db      *sql.DB
	driver  string
	table   string
	nowFunc func() time.Time
}

var _ roster.KeyValueStore = (*SQLKVStore)(nil)

// OpenSQLKVStore opens a database for driver. An empty duckdb DSN opens an in-memory
// database.
func OpenSQLKVStore(driver, dsn, table string) (*SQLKVStore, error) {
	switch driver {
	case "duckdb":
		if dsn == "" {
			dsn = ":memory:"
		}
	case "postgres":
		if dsn == "" {
			return nil, fmt.Errorf("postgres dsn is required")
		}
	default:
		return nil, roster.NewUnsupportedModeError(roster.ErrCodeUnsupportedDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "duckdb" {
		// every :memory: connection is a separate database
		db.SetMaxOpenConns(1)
	}
	return NewSQLKVStore(db, driver, table), nil
}

func NewSQLKVStore(db *sql.DB, driver, table string) *SQLKVStore {
	return &SQLKVStore{
		db:      db,
		driver:  driver,
		table:   sanitizeIdentifier(table),
		nowFunc: time.Now,
	}
}

func (s *SQLKVStore) EnsureTable(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createKVTableSQL(s.table, "TEXT")); err != nil {
		return fmt.Errorf("create table %s on %s: %w", s.table, s.driver, err)
	}
	return nil
}

func (s *SQLKVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, selectKVSQL(s.table, "$1"), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (s *SQLKVStore) Put(ctx context.Context, key string, value []byte) error {
	query := upsertKVSQL(s.table, "$1", "$2", "$3")
	if _, err := s.db.ExecContext(ctx, query, key, string(value), s.nowFunc().UnixMilli()); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *SQLKVStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s ping failed: %w", s.driver, err)
	}
	return nil
}

func (s *SQLKVStore) Close() error {
	return s.db.Close()
}
