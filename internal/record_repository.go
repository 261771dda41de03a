package internal

import (
	"context"
	"sync"

	"github.com/lychee-technology/roster"
	"go.uber.org/zap"
)

// RecordRepository gates record writes behind validation against the stored schema.
type RecordRepository struct {
	adapter roster.StorageAdapter
	mu      sync.Locker
}

// NewRecordRepository creates a repository over adapter. Repositories sharing an adapter
// should share lock; nil allocates a private one.
func NewRecordRepository(adapter roster.StorageAdapter, lock sync.Locker) *RecordRepository {
	if lock == nil {
		lock = &sync.Mutex{}
	}
	return &RecordRepository{adapter: adapter, mu: lock}
}

// GetRecords never fails: an adapter error yields an empty list.
func (r *RecordRepository) GetRecords(ctx context.Context) []roster.Record {
	records, err := r.adapter.GetRecords(ctx)
	if err != nil {
		zap.S().Errorw("failed to load records", "error", err)
		return []roster.Record{}
	}
	return records
}

// SaveRecord validates record against the current schema and upserts it by id.
// An invalid record is never written.
func (r *RecordRepository) SaveRecord(ctx context.Context, record roster.Record) roster.SaveResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	fields, err := r.adapter.GetFields(ctx)
	if err != nil {
		zap.S().Errorw("failed to load schema for validation", "recordId", record.ID, "error", err)
		return roster.SaveResult{Success: false}
	}

	result := roster.ValidateRecord(record, fields)
	if !result.IsValid {
		zap.S().Debugw("record rejected by validation", "recordId", record.ID, "errors", len(result.Errors))
		return roster.SaveResult{Success: false, ValidationResult: &result}
	}

	records, err := r.adapter.GetRecords(ctx)
	if err != nil {
		zap.S().Errorw("failed to load records", "recordId", record.ID, "error", err)
		return roster.SaveResult{Success: false}
	}

	records = upsertRecord(records, record)
	return roster.SaveResult{Success: r.adapter.SaveRecords(ctx, records)}
}

// SaveRecords validates the whole batch and, only when every record is valid, replaces
// the stored collection with it.
func (r *RecordRepository) SaveRecords(ctx context.Context, records []roster.Record) roster.SaveResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	fields, err := r.adapter.GetFields(ctx)
	if err != nil {
		zap.S().Errorw("failed to load schema for batch validation", "error", err)
		return roster.SaveResult{Success: false}
	}

	result := roster.ValidateRecords(records, fields)
	if !result.IsValid {
		zap.S().Debugw("batch rejected by validation", "records", len(records), "errors", len(result.Errors))
		return roster.SaveResult{Success: false, ValidationResult: &result}
	}
	return roster.SaveResult{Success: r.adapter.SaveRecords(ctx, records)}
}

// DeleteRecord removes the record with id. A missing id succeeds without a write.
func (r *RecordRepository) DeleteRecord(ctx context.Context, id string) roster.SaveResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.adapter.GetRecords(ctx)
	if err != nil {
		zap.S().Errorw("failed to load records", "recordId", id, "error", err)
		return roster.SaveResult{Success: false}
	}

	remaining := make([]roster.Record, 0, len(records))
	for _, rec := range records {
		if rec.ID != id {
			remaining = append(remaining, rec)
		}
	}
	if len(remaining) == len(records) {
		zap.S().Debugw("delete of unknown record ignored", "recordId", id)
		return roster.SaveResult{Success: true}
	}
	return roster.SaveResult{Success: r.adapter.SaveRecords(ctx, remaining)}
}

func upsertRecord(records []roster.Record, record roster.Record) []roster.Record {
	for i := range records {
		if records[i].ID == record.ID {
			records[i] = record
			return records
		}
	}
	return append(records, record)
}
