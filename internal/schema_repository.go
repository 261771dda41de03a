package internal

import (
	"context"
	"sync"

	"github.com/lychee-technology/roster"
	"go.uber.org/zap"
)

// SchemaRepository manages field definitions. Definitions are stored as given; their
// correctness is the caller's concern.
type SchemaRepository struct {
	adapter roster.StorageAdapter
	mu      sync.Locker
}

func NewSchemaRepository(adapter roster.StorageAdapter, lock sync.Locker) *SchemaRepository {
	if lock == nil {
		lock = &sync.Mutex{}
	}
	return &SchemaRepository{adapter: adapter, mu: lock}
}

func (s *SchemaRepository) GetFields(ctx context.Context) []roster.FieldDefinition {
	fields, err := s.adapter.GetFields(ctx)
	if err != nil {
		zap.S().Errorw("failed to load fields", "error", err)
		return []roster.FieldDefinition{}
	}
	return fields
}

// SaveField upserts field by id, keeping the position of an existing definition.
func (s *SchemaRepository) SaveField(ctx context.Context, field roster.FieldDefinition) roster.SaveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, err := s.adapter.GetFields(ctx)
	if err != nil {
		zap.S().Errorw("failed to load fields", "fieldId", field.ID, "error", err)
		return roster.SaveResult{Success: false}
	}

	replaced := false
	for i := range fields {
		if fields[i].ID == field.ID {
			fields[i] = field
			replaced = true
			break
		}
	}
	if !replaced {
		fields = append(fields, field)
	}
	return roster.SaveResult{Success: s.adapter.SaveFields(ctx, fields)}
}

// DeleteField removes the definition with id. Record values stored under id are kept.
func (s *SchemaRepository) DeleteField(ctx context.Context, id string) roster.SaveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, err := s.adapter.GetFields(ctx)
	if err != nil {
		zap.S().Errorw("failed to load fields", "fieldId", id, "error", err)
		return roster.SaveResult{Success: false}
	}

	remaining := make([]roster.FieldDefinition, 0, len(fields))
	for _, f := range fields {
		if f.ID != id {
			remaining = append(remaining, f)
		}
	}
	if len(remaining) == len(fields) {
		return roster.SaveResult{Success: true}
	}
	return roster.SaveResult{Success: s.adapter.SaveFields(ctx, remaining)}
}

// SaveFields replaces the whole schema.
func (s *SchemaRepository) SaveFields(ctx context.Context, fields []roster.FieldDefinition) roster.SaveResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return roster.SaveResult{Success: s.adapter.SaveFields(ctx, fields)}
}
