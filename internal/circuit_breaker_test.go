package internal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestBreaker(clock *fakeClock) *CircuitBreaker {
	cb := NewCircuitBreaker(3, time.Minute, 30*time.Second)
	cb.withClock(clock.Now)
	return cb
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 10, 2, 9, 0, 0, 0, time.UTC)}
	cb := newTestBreaker(clock)

	assert.False(t, cb.RecordFailure())
	assert.False(t, cb.RecordFailure())
	assert.False(t, cb.IsOpen())
	assert.True(t, cb.RecordFailure())
	assert.True(t, cb.IsOpen())

	clock.Advance(31 * time.Second)
	assert.False(t, cb.IsOpen(), "breaker closes after the open duration")
}

func TestCircuitBreakerForgetsOldFailures(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 10, 2, 9, 0, 0, 0, time.UTC)}
	cb := newTestBreaker(clock)

	cb.RecordFailure()
	cb.RecordFailure()
	clock.Advance(2 * time.Minute)
	assert.False(t, cb.RecordFailure())
	assert.False(t, cb.IsOpen())
}

func TestCircuitBreakerSuccessResets(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 10, 2, 9, 0, 0, 0, time.UTC)}
	cb := newTestBreaker(clock)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	assert.False(t, cb.RecordFailure())
	assert.False(t, cb.IsOpen())
}

func TestBreakerKVStoreFailsFast(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 10, 2, 9, 0, 0, 0, time.UTC)}
	backend := &faultyKVStore{MemoryKVStore: NewMemoryKVStore(), getErr: errBackendDown}
	store := NewBreakerKVStore("test", backend, newTestBreaker(clock))

	for range 3 {
		_, _, err := store.Get(ctx, DefaultRecordsKey)
		assert.ErrorIs(t, err, errBackendDown)
	}

	_, _, err := store.Get(ctx, DefaultRecordsKey)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.ErrorIs(t, store.Put(ctx, DefaultRecordsKey, []byte(`[]`)), ErrCircuitOpen)
	assert.Zero(t, backend.puts, "open breaker never reaches the backend")

	backend.getErr = nil
	clock.Advance(time.Minute)
	_, ok, err := store.Get(ctx, DefaultRecordsKey)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, store.Put(ctx, DefaultRecordsKey, []byte(`[]`)))
}

func TestBreakerKVStoreIgnoresCanceledCalls(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 10, 2, 9, 0, 0, 0, time.UTC)}
	store := NewBreakerKVStore("test", &faultyKVStore{MemoryKVStore: NewMemoryKVStore(), getErr: context.Canceled}, newTestBreaker(clock))

	for range 5 {
		_, _, _ = store.Get(context.Background(), DefaultFieldsKey)
	}
	assert.False(t, store.breaker.IsOpen())
}

func TestBreakerKVStoreBacksKVAdapter(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 10, 2, 9, 0, 0, 0, time.UTC)}
	backend := &faultyKVStore{MemoryKVStore: NewMemoryKVStore(), putErr: errBackendDown}
	adapter := NewKVAdapter(NewBreakerKVStore("test", backend, newTestBreaker(clock)))

	for range 4 {
		assert.False(t, adapter.SaveRecords(ctx, nil))
	}
	assert.Equal(t, 3, backend.puts)

	_, err := adapter.GetRecords(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}
