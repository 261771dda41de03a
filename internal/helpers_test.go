package internal

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/lychee-technology/roster"
)

var errBackendDown = errors.New("backend unavailable")

// faultyKVStore wraps MemoryKVStore with injectable failures.
type faultyKVStore struct {
	*MemoryKVStore
	getErr error
	putErr error
	puts   int
}

func newFaultyKVStore() *faultyKVStore {
	return &faultyKVStore{MemoryKVStore: NewMemoryKVStore()}
}

func (s *faultyKVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	return s.MemoryKVStore.Get(ctx, key)
}

func (s *faultyKVStore) Put(ctx context.Context, key string, value []byte) error {
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	return s.MemoryKVStore.Put(ctx, key, value)
}

// countingAdapter wraps an adapter, counts writes and injects failures.
type countingAdapter struct {
	roster.StorageAdapter
	mu             sync.Mutex
	recordSaves    int
	fieldSaves     int
	getRecordsErr  error
	getFieldsErr   error
	rejectWrites   bool
}

func newCountingAdapter(records []roster.Record, fields []roster.FieldDefinition) *countingAdapter {
	return &countingAdapter{StorageAdapter: NewInMemoryAdapterWithSeed(records, fields)}
}

func (a *countingAdapter) GetRecords(ctx context.Context) ([]roster.Record, error) {
	if a.getRecordsErr != nil {
		return nil, a.getRecordsErr
	}
	return a.StorageAdapter.GetRecords(ctx)
}

func (a *countingAdapter) GetFields(ctx context.Context) ([]roster.FieldDefinition, error) {
	if a.getFieldsErr != nil {
		return nil, a.getFieldsErr
	}
	return a.StorageAdapter.GetFields(ctx)
}

func (a *countingAdapter) SaveRecords(ctx context.Context, records []roster.Record) bool {
	a.mu.Lock()
	a.recordSaves++
	a.mu.Unlock()
	if a.rejectWrites {
		return false
	}
	return a.StorageAdapter.SaveRecords(ctx, records)
}

func (a *countingAdapter) SaveFields(ctx context.Context, fields []roster.FieldDefinition) bool {
	a.mu.Lock()
	a.fieldSaves++
	a.mu.Unlock()
	if a.rejectWrites {
		return false
	}
	return a.StorageAdapter.SaveFields(ctx, fields)
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func nanValue() float64 { return math.NaN() }

// nameOnlySchema is a single required text field limited to five characters.
func nameOnlySchema() []roster.FieldDefinition {
	return []roster.FieldDefinition{
		{
			ID:          "name",
			Type:        roster.FieldTypeText,
			Label:       "Name",
			Required:    true,
			Constraints: &roster.FieldConstraints{MaxLength: intPtr(5)},
		},
	}
}

func recordIDs(records []roster.Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}
