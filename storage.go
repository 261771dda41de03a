package roster

import (
	"context"
)

// StorageAdapter persists the two collections. Reads return copies the caller may
// mutate freely; writes fully replace the stored collection.
type StorageAdapter interface {
	GetRecords(ctx context.Context) ([]Record, error)
	// SaveRecords reports false when the backend rejected the write.
	SaveRecords(ctx context.Context, records []Record) bool

	GetFields(ctx context.Context) ([]FieldDefinition, error)
	SaveFields(ctx context.Context, fields []FieldDefinition) bool
}

// KeyValueStore is a durable namespace of opaque blobs.
type KeyValueStore interface {
	// Get returns ok=false when the key has never been written.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
}

// Directory is the application-facing boundary for member records and their schema.
// Validation failures are reported in SaveResult, never as errors.
type Directory interface {
	GetRecords(ctx context.Context) []Record
	SaveRecord(ctx context.Context, record Record) SaveResult
	SaveRecords(ctx context.Context, records []Record) SaveResult
	DeleteRecord(ctx context.Context, id string) SaveResult

	// NewRecord returns an unsaved record with a fresh id and the schema's default values.
	NewRecord(ctx context.Context) Record
	// ValidateRecord checks a record against the current schema without writing.
	ValidateRecord(ctx context.Context, record Record) ValidationResult

	GetFields(ctx context.Context) []FieldDefinition
	SaveField(ctx context.Context, field FieldDefinition) SaveResult
	DeleteField(ctx context.Context, id string) SaveResult
}
