package internal

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresKVStoreGet(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresKVStore(mock, "")
	query := "^" + regexp.QuoteMeta(selectKVSQL(`"roster_kv"`, "$1")) + "$"

	mock.ExpectQuery(query).
		WithArgs(DefaultRecordsKey).
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`[{"id":"1"}]`)))
	got, ok, err := store.Get(ctx, DefaultRecordsKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, string(got))

	mock.ExpectQuery(query).
		WithArgs(DefaultFieldsKey).
		WillReturnRows(pgxmock.NewRows([]string{"value"}))
	_, ok, err = store.Get(ctx, DefaultFieldsKey)
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectQuery(query).
		WithArgs(DefaultFieldsKey).
		WillReturnError(errBackendDown)
	_, _, err = store.Get(ctx, DefaultFieldsKey)
	assert.ErrorIs(t, err, errBackendDown)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresKVStorePut(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresKVStore(mock, "app.members_kv")
	fixed := time.Date(2024, 10, 2, 9, 0, 0, 0, time.UTC)
	store.withClock(func() time.Time { return fixed })

	query := upsertKVSQL(`"app"."members_kv"`, "$1", "$2::jsonb", "$3")
	mock.ExpectExec("^"+regexp.QuoteMeta(query)+"$").
		WithArgs(DefaultRecordsKey, `[]`, fixed.UnixMilli()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, store.Put(ctx, DefaultRecordsKey, []byte(`[]`)))

	mock.ExpectExec("^"+regexp.QuoteMeta(query)+"$").
		WithArgs(DefaultRecordsKey, `[]`, fixed.UnixMilli()).
		WillReturnError(errBackendDown)
	assert.ErrorIs(t, store.Put(ctx, DefaultRecordsKey, []byte(`[]`)), errBackendDown)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresKVStoreEnsureTable(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresKVStore(mock, "roster_kv")
	mock.ExpectExec(`^CREATE TABLE IF NOT EXISTS "roster_kv" \(`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	require.NoError(t, store.EnsureTable(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresKVStoreBacksKVAdapter(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	adapter := NewKVAdapter(NewPostgresKVStore(mock, ""))
	mock.ExpectQuery(`^SELECT "value" FROM "roster_kv"`).
		WithArgs(DefaultRecordsKey).
		WillReturnRows(pgxmock.NewRows([]string{"value"}))

	records, err := adapter.GetRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, recordIDs(records))

	mock.ExpectExec(`^INSERT INTO "roster_kv"`).
		WithArgs(DefaultRecordsKey, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errBackendDown)
	assert.False(t, adapter.SaveRecords(ctx, records))

	require.NoError(t, mock.ExpectationsWereMet())
}
