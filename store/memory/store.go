// Package memory provides an in-memory record store for development and tests.
// It implements store.RecordStore with thread-safe operations and no
// persistence, and can inject store failures to exercise retry paths.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/input-output-hk/dogstore/domain"
	"github.com/input-output-hk/dogstore/store"
)

// backendName is reported as the receipt table name.
const backendName = "memory"

// Store keeps records in a map keyed by ID.
type Store struct {
	// records holds the stored records keyed by ID
	records map[string]domain.Dog
	// failNext is the number of upcoming Put calls that fail with failKind
	failNext int
	// failAlways makes every Put fail with failKind
	failAlways bool
	// failKind is the injected failure classification
	failKind error
	// puts counts Put calls, including failed ones
	puts int
	// closed is set by Close; later writes and health checks fail
	closed bool
	// now is the clock used for receipts
	now func() time.Time
	// mu protects all fields above
	mu sync.RWMutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to stamp receipts.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

var _ store.Backend = (*Store)(nil)

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		records: make(map[string]domain.Dog),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the backend identifier.
func (s *Store) Name() string {
	return backendName
}

// HealthCheck reports ErrUnavailable once the store has been closed.
func (s *Store) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.NewError("health", backendName, "", store.ErrUnavailable, fmt.Errorf("store closed"))
	}
	return nil
}

// FailNext makes the next n Put calls fail with kind (one of the store
// sentinel errors). Subsequent calls succeed again.
func (s *Store) FailNext(n int, kind error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
	s.failAlways = false
	s.failKind = kind
}

// FailAlways makes every Put fail with kind until ClearFaults is called.
func (s *Store) FailAlways(kind error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = 0
	s.failAlways = true
	s.failKind = kind
}

// ClearFaults removes any injected failure.
func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = 0
	s.failAlways = false
	s.failKind = nil
}

// Put stores the record unconditionally.
func (s *Store) Put(ctx context.Context, record domain.Dog) (domain.WriteReceipt, error) {
	select {
	case <-ctx.Done():
		return domain.WriteReceipt{}, store.NewError("put", backendName, record.ID, store.ErrUnavailable,
			fmt.Errorf("put operation cancelled: %w", ctx.Err()))
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.puts++

	if s.closed {
		return domain.WriteReceipt{}, store.NewError("put", backendName, record.ID, store.ErrUnavailable,
			fmt.Errorf("store closed"))
	}

	if s.failAlways || s.failNext > 0 {
		if s.failNext > 0 {
			s.failNext--
		}
		return domain.WriteReceipt{}, store.NewError("put", backendName, record.ID, s.failKind,
			fmt.Errorf("injected failure"))
	}

	if record.ID == "" {
		return domain.WriteReceipt{}, store.NewError("put", backendName, "", store.ErrRejected,
			fmt.Errorf("missing partition key id"))
	}

	s.records[record.ID] = record

	return domain.WriteReceipt{
		Table:     backendName,
		RequestID: uuid.NewString(),
		WrittenAt: s.now(),
	}, nil
}

// Get returns the record stored under id.
func (s *Store) Get(ctx context.Context, id string) (domain.Dog, error) {
	select {
	case <-ctx.Done():
		return domain.Dog{}, store.NewError("get", backendName, id, store.ErrUnavailable,
			fmt.Errorf("get operation cancelled: %w", ctx.Err()))
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return domain.Dog{}, store.NewError("get", backendName, id, store.ErrNotFound, nil)
	}
	return record, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Puts returns the number of Put calls made so far, including failed ones.
func (s *Store) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}

// Close clears all stored records. Puts after Close fail as unavailable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.records)
	s.closed = true
	return nil
}
