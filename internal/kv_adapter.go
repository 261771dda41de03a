package internal

import (
	"context"
	"encoding/json"

	"github.com/lychee-technology/roster"
	"go.uber.org/zap"
)

const (
	DefaultRecordsKey = "member-table-records"
	DefaultFieldsKey  = "member-table-fields"
)

// FallbackHook is called when a stored blob could not be decoded and the adapter served
// the built-in seed instead. err is a *roster.Error with code BLOB_CORRUPTED.
type FallbackHook func(key string, err error)

// KVAdapter stores each collection as one JSON blob in a KeyValueStore. Every write
// replaces the whole blob.
type KVAdapter struct {
	store       roster.KeyValueStore
	recordsKey  string
	fieldsKey   string
	seedRecords []roster.Record
	seedFields  []roster.FieldDefinition
	onFallback  FallbackHook
}

var _ roster.StorageAdapter = (*KVAdapter)(nil)

// KVAdapterOption configures a KVAdapter.
type KVAdapterOption func(*KVAdapter)

// WithKeys overrides the two storage keys. Empty values keep the defaults.
func WithKeys(recordsKey, fieldsKey string) KVAdapterOption {
	return func(a *KVAdapter) {
		if recordsKey != "" {
			a.recordsKey = recordsKey
		}
		if fieldsKey != "" {
			a.fieldsKey = fieldsKey
		}
	}
}

// WithSeed replaces the collections served for missing or undecodable keys.
func WithSeed(records []roster.Record, fields []roster.FieldDefinition) KVAdapterOption {
	return func(a *KVAdapter) {
		a.seedRecords = roster.CloneRecords(records)
		a.seedFields = roster.CloneFields(fields)
	}
}

// WithFallbackHook registers a callback for decode fallbacks.
func WithFallbackHook(hook FallbackHook) KVAdapterOption {
	return func(a *KVAdapter) {
		a.onFallback = hook
	}
}

// NewKVAdapter creates an adapter over store.
func NewKVAdapter(store roster.KeyValueStore, opts ...KVAdapterOption) *KVAdapter {
	a := &KVAdapter{
		store:       store,
		recordsKey:  DefaultRecordsKey,
		fieldsKey:   DefaultFieldsKey,
		seedRecords: roster.InitialRecords(),
		seedFields:  roster.DefaultFields(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Keys returns the records and fields keys in use.
func (a *KVAdapter) Keys() (recordsKey, fieldsKey string) {
	return a.recordsKey, a.fieldsKey
}

func (a *KVAdapter) GetRecords(ctx context.Context) ([]roster.Record, error) {
	var records []roster.Record
	found, err := a.load(ctx, a.recordsKey, &records)
	if err != nil {
		return nil, err
	}
	if !found {
		return roster.CloneRecords(a.seedRecords), nil
	}
	return roster.CloneRecords(records), nil
}

func (a *KVAdapter) SaveRecords(ctx context.Context, records []roster.Record) bool {
	if records == nil {
		records = []roster.Record{}
	}
	return a.save(ctx, a.recordsKey, records)
}

func (a *KVAdapter) GetFields(ctx context.Context) ([]roster.FieldDefinition, error) {
	var fields []roster.FieldDefinition
	found, err := a.load(ctx, a.fieldsKey, &fields)
	if err != nil {
		return nil, err
	}
	if !found {
		return roster.CloneFields(a.seedFields), nil
	}
	return roster.CloneFields(fields), nil
}

func (a *KVAdapter) SaveFields(ctx context.Context, fields []roster.FieldDefinition) bool {
	if fields == nil {
		fields = []roster.FieldDefinition{}
	}
	return a.save(ctx, a.fieldsKey, fields)
}

// load decodes the blob under key into dst. found is false when the key is missing or
// the blob is corrupted; in both cases the caller serves the seed.
func (a *KVAdapter) load(ctx context.Context, key string, dst any) (found bool, err error) {
	data, ok, err := a.store.Get(ctx, key)
	if err != nil {
		zap.S().Errorw("failed to read from storage", "key", key, "error", err)
		return false, roster.NewPersistenceReadError(key, err)
	}
	if !ok {
		zap.S().Debugw("storage key not found, serving defaults", "key", key)
		return false, nil
	}

	if err := json.Unmarshal(data, dst); err != nil {
		corrupted := roster.NewBlobCorruptedError(key, err).WithDetail("size", len(data))
		zap.S().Warnw("stored data could not be decoded, serving defaults",
			"key", key, "code", roster.ErrCodeBlobCorrupted, "error", err)
		if a.onFallback != nil {
			a.onFallback(key, corrupted)
		}
		return false, nil
	}
	return true, nil
}

func (a *KVAdapter) save(ctx context.Context, key string, src any) bool {
	data, err := json.Marshal(src)
	if err != nil {
		zap.S().Errorw("failed to encode collection", "key", key, "error", roster.NewEncodeError(key, err))
		return false
	}
	if err := a.store.Put(ctx, key, data); err != nil {
		zap.S().Errorw("failed to write to storage", "key", key, "error", roster.NewPersistenceWriteError(key, err))
		return false
	}
	zap.S().Debugw("collection saved", "key", key, "bytes", len(data))
	return true
}
