// Package store defines the record store contract and its error taxonomy.
//
// Implementations live in subpackages: store/dynamostore persists to an Amazon
// DynamoDB table; store/memory keeps records in process for development and
// tests.
package store

import (
	"context"

	"github.com/input-output-hk/dogstore/domain"
)

// RecordStore persists records keyed by their identifier.
//
// Put performs an unconditional insert. Callers guarantee the record ID is
// fresh, so implementations never branch on create versus overwrite.
// Implementations must be safe for concurrent use.
type RecordStore interface {
	// Put writes the record. On success the record is durably retrievable by
	// its ID. Errors wrap exactly one of ErrThrottled, ErrUnavailable or
	// ErrRejected.
	Put(ctx context.Context, record domain.Dog) (domain.WriteReceipt, error)

	// Get reads a record by ID. A missing record yields ErrNotFound.
	Get(ctx context.Context, id string) (domain.Dog, error)
}

// Backend is a RecordStore the server owns for its whole lifetime.
type Backend interface {
	RecordStore

	// Name identifies the backend in logs.
	Name() string

	// HealthCheck reports whether the backend can currently serve requests.
	HealthCheck(ctx context.Context) error

	// Close releases the backend. Writes after Close fail.
	Close() error
}
