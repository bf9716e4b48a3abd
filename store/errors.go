package store

import (
	"errors"
	"fmt"

	perrors "github.com/input-output-hk/dogstore/errors"
)

// Sentinel errors classifying store failures. Use errors.Is to test for them.
var (
	// ErrThrottled means write capacity was exceeded. Retryable with backoff:
	// capacity scales between its floor and ceiling but lags bursts.
	ErrThrottled = errors.New("store: throttled")

	// ErrUnavailable means a transient infrastructure failure. Retryable.
	ErrUnavailable = errors.New("store: unavailable")

	// ErrRejected means the store refused the item as malformed. Not
	// retryable; it indicates a defect in the pipeline that shaped the item.
	ErrRejected = errors.New("store: item rejected")

	// ErrNotFound means no record exists for the requested ID.
	ErrNotFound = errors.New("store: record not found")
)

// Error is a store operation failure carrying its classification and the
// underlying cause.
type Error struct {
	// Op is the operation that failed ("put", "get").
	Op string

	// Table is the table or backend name, if known.
	Table string

	// ID is the record ID involved, if known.
	ID string

	// Kind is one of the sentinel errors of this package.
	Kind error

	// Err is the underlying cause, typically an AWS SDK error.
	Err error
}

// NewError creates an Error of the given kind.
func NewError(op, table, id string, kind, err error) *Error {
	return &Error{Op: op, Table: table, ID: id, Kind: kind, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("store.%s", e.Op)
	if e.Table != "" {
		msg += " " + e.Table
	}
	if e.ID != "" {
		msg += "/" + e.ID
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", msg, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", msg, e.Kind)
}

// Unwrap exposes both the classification and the cause to errors.Is and
// errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsRetryable reports whether err is a Throttled or Unavailable failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrThrottled) || errors.Is(err, ErrUnavailable)
}

// CodeFor maps a store failure onto the platform error codes.
func CodeFor(err error) perrors.ErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrThrottled):
		return perrors.CodeRateLimit
	case errors.Is(err, ErrUnavailable):
		return perrors.CodeUnavailable
	case errors.Is(err, ErrRejected):
		return perrors.CodeRejected
	case errors.Is(err, ErrNotFound):
		return perrors.CodeNotFound
	default:
		return perrors.CodeUnknown
	}
}
