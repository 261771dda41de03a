package internal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lychee-technology/roster"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned without touching the backend while the breaker is open.
var ErrCircuitOpen = errors.New("storage circuit breaker is open")

// CircuitBreaker opens after threshold failures inside window and stays open for
// openDuration.
type CircuitBreaker struct {
	mu           sync.Mutex
	failures     []time.Time
	threshold    int
	window       time.Duration
	openUntil    time.Time
	openDuration time.Duration
	nowFunc      func() time.Time
}

// NewCircuitBreaker creates a configured circuit breaker.
func NewCircuitBreaker(threshold int, window, openDuration time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 1
	}
	return &CircuitBreaker{
		threshold:    threshold,
		window:       window,
		openDuration: openDuration,
		failures:     make([]time.Time, 0, threshold),
		nowFunc:      time.Now,
	}
}

func (cb *CircuitBreaker) withClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	cb.nowFunc = now
}

// RecordFailure records a failure and reports whether it opened the breaker.
func (cb *CircuitBreaker) RecordFailure() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.nowFunc()
	cutoff := now.Add(-cb.window)
	i := 0
	for ; i < len(cb.failures); i++ {
		if cb.failures[i].After(cutoff) {
			break
		}
	}
	cb.failures = append(cb.failures[:0], cb.failures[i:]...)
	cb.failures = append(cb.failures, now)

	if len(cb.failures) >= cb.threshold && !now.Before(cb.openUntil) {
		cb.openUntil = now.Add(cb.openDuration)
		cb.failures = cb.failures[:0]
		return true
	}
	return false
}

// RecordSuccess resets failure history.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = cb.failures[:0]
	cb.openUntil = time.Time{}
}

// IsOpen returns true if the breaker is currently open.
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.nowFunc().Before(cb.openUntil)
}

// BreakerKVStore fails fast with ErrCircuitOpen while a remote backend keeps failing.
// Missing keys are not failures.
type BreakerKVStore struct {
	store   roster.KeyValueStore
	breaker *CircuitBreaker
	name    string
}

var _ roster.KeyValueStore = (*BreakerKVStore)(nil)

func NewBreakerKVStore(name string, store roster.KeyValueStore, breaker *CircuitBreaker) *BreakerKVStore {
	return &BreakerKVStore{store: store, breaker: breaker, name: name}
}

func (s *BreakerKVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.breaker.IsOpen() {
		return nil, false, ErrCircuitOpen
	}
	data, ok, err := s.store.Get(ctx, key)
	s.record(err)
	return data, ok, err
}

func (s *BreakerKVStore) Put(ctx context.Context, key string, value []byte) error {
	if s.breaker.IsOpen() {
		return ErrCircuitOpen
	}
	err := s.store.Put(ctx, key, value)
	s.record(err)
	return err
}

// Ping always reaches the backend so that health checks can observe recovery.
func (s *BreakerKVStore) Ping(ctx context.Context) error {
	err := CheckHealth(ctx, s.store, 0)
	s.record(err)
	return err
}

func (s *BreakerKVStore) record(err error) {
	if err == nil {
		s.breaker.RecordSuccess()
		return
	}
	// a caller giving up is not a backend failure
	if errors.Is(err, context.Canceled) {
		return
	}
	if s.breaker.RecordFailure() {
		zap.S().Warnw("storage circuit breaker opened", "backend", s.name, "error", err)
	}
}
