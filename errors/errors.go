package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
)

// Error is a coded platform error. It carries a human readable message, an
// optional context map for logs, and the wrapped cause.
//
// The message is safe to show to callers; the cause and context are not.
type Error struct {
	// Code classifies the failure.
	Code ErrorCode `json:"code"`

	// Message describes the failure without internal detail.
	Message string `json:"message"`

	// Context holds structured detail for logs (never serialized to callers).
	Context map[string]any `json:"-"`

	// Err is the underlying cause, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code, which lets
// callers match on code with errors.Is(err, errors.New(code, "")).
func (e *Error) Is(target error) bool {
	var t *Error
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// New creates an error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap wraps err with a code and message. A nil err yields nil.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// WrapWithContext wraps err with a code, message and structured context.
// The context map is copied. A nil err yields nil.
func WrapWithContext(err error, code ErrorCode, message string, ctx map[string]any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Context: maps.Clone(ctx), Err: err}
}

// CodeOf returns the code of the outermost *Error in err's chain, or
// CodeUnknown when there is none. A nil err has no code.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsRetryable reports whether err carries a retryable code.
func IsRetryable(err error) bool {
	return CodeOf(err).Retryable()
}

// ContextOf merges the context maps of every *Error in err's chain, outer
// entries taking precedence.
func ContextOf(err error) map[string]any {
	out := map[string]any{}
	for err != nil {
		if e, ok := err.(*Error); ok {
			for k, v := range e.Context {
				if _, exists := out[k]; !exists {
					out[k] = v
				}
			}
		}
		err = stderrors.Unwrap(err)
	}
	return out
}
