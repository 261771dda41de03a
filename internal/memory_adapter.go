package internal

import (
	"context"
	"sync"

	"github.com/lychee-technology/roster"
)

// InMemoryAdapter keeps both collections in process memory. Nothing survives a restart.
type InMemoryAdapter struct {
	mu      sync.RWMutex
	records []roster.Record
	fields  []roster.FieldDefinition
}

var _ roster.StorageAdapter = (*InMemoryAdapter)(nil)

// NewInMemoryAdapter creates an adapter seeded with the built-in schema and members.
func NewInMemoryAdapter() *InMemoryAdapter {
	return NewInMemoryAdapterWithSeed(roster.InitialRecords(), roster.DefaultFields())
}

// NewInMemoryAdapterWithSeed creates an adapter seeded with copies of records and fields.
func NewInMemoryAdapterWithSeed(records []roster.Record, fields []roster.FieldDefinition) *InMemoryAdapter {
	return &InMemoryAdapter{
		records: roster.CloneRecords(records),
		fields:  roster.CloneFields(fields),
	}
}

func (a *InMemoryAdapter) GetRecords(_ context.Context) ([]roster.Record, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return roster.CloneRecords(a.records), nil
}

func (a *InMemoryAdapter) SaveRecords(_ context.Context, records []roster.Record) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = roster.CloneRecords(records)
	return true
}

func (a *InMemoryAdapter) GetFields(_ context.Context) ([]roster.FieldDefinition, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return roster.CloneFields(a.fields), nil
}

func (a *InMemoryAdapter) SaveFields(_ context.Context, fields []roster.FieldDefinition) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fields = roster.CloneFields(fields)
	return true
}
