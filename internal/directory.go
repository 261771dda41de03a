package internal

import (
	"context"
	"sync"

	"github.com/lychee-technology/roster"
)

// DirectoryService composes the record and schema repositories over one adapter.
type DirectoryService struct {
	adapter roster.StorageAdapter
	records *RecordRepository
	schema  *SchemaRepository
	newID   func() string
}

var _ roster.Directory = (*DirectoryService)(nil)

// NewDirectoryService creates a directory whose repositories share one write lock.
func NewDirectoryService(adapter roster.StorageAdapter) *DirectoryService {
	lock := &sync.Mutex{}
	return &DirectoryService{
		adapter: adapter,
		records: NewRecordRepository(adapter, lock),
		schema:  NewSchemaRepository(adapter, lock),
		newID:   roster.NewRecordID,
	}
}

// Adapter returns the storage adapter backing the directory.
func (d *DirectoryService) Adapter() roster.StorageAdapter {
	return d.adapter
}

func (d *DirectoryService) GetRecords(ctx context.Context) []roster.Record {
	return d.records.GetRecords(ctx)
}

func (d *DirectoryService) SaveRecord(ctx context.Context, record roster.Record) roster.SaveResult {
	return d.records.SaveRecord(ctx, record)
}

func (d *DirectoryService) SaveRecords(ctx context.Context, records []roster.Record) roster.SaveResult {
	return d.records.SaveRecords(ctx, records)
}

func (d *DirectoryService) DeleteRecord(ctx context.Context, id string) roster.SaveResult {
	return d.records.DeleteRecord(ctx, id)
}

func (d *DirectoryService) NewRecord(ctx context.Context) roster.Record {
	return roster.ApplyDefaults(roster.NewRecord(d.newID()), d.schema.GetFields(ctx))
}

func (d *DirectoryService) ValidateRecord(ctx context.Context, record roster.Record) roster.ValidationResult {
	return roster.ValidateRecord(record, d.schema.GetFields(ctx))
}

func (d *DirectoryService) GetFields(ctx context.Context) []roster.FieldDefinition {
	return d.schema.GetFields(ctx)
}

func (d *DirectoryService) SaveField(ctx context.Context, field roster.FieldDefinition) roster.SaveResult {
	return d.schema.SaveField(ctx, field)
}

func (d *DirectoryService) DeleteField(ctx context.Context, id string) roster.SaveResult {
	return d.schema.DeleteField(ctx, id)
}

// SaveFields replaces the whole schema.
func (d *DirectoryService) SaveFields(ctx context.Context, fields []roster.FieldDefinition) roster.SaveResult {
	return d.schema.SaveFields(ctx, fields)
}
