// Package errors provides the error handling foundation for dogstore.
// It extends Go's standard error handling with structured error codes, retry
// classification, context preservation, and API serialization.
package errors

// ErrorCode represents a specific error condition in dogstore.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Resource errors.

	// CodeNotFound indicates a requested record does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// Validation errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// CodeSchemaFailed indicates the payload failed schema validation.
	CodeSchemaFailed ErrorCode = "SCHEMA_VALIDATION_FAILED"

	// Pipeline errors.

	// CodeIDGeneration indicates the identifier generator could not produce an identifier.
	CodeIDGeneration ErrorCode = "ID_GENERATION_FAILED"

	// CodeRejected indicates the store refused an item as malformed.
	// It is never retried and points at a defect in the pipeline.
	CodeRejected ErrorCode = "REJECTED"

	// Infrastructure errors.

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeRateLimit indicates provisioned capacity or the request rate has been exceeded.
	CodeRateLimit ErrorCode = "RATE_LIMIT_EXCEEDED"

	// CodeUnavailable indicates the service is temporarily unavailable.
	CodeUnavailable ErrorCode = "SERVICE_UNAVAILABLE"

	// System errors.

	// CodeInternal indicates an internal system error occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// Generic errors.

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Retryable reports whether an operation failing with this code may succeed
// when repeated without changes.
func (c ErrorCode) Retryable() bool {
	switch c {
	case CodeRateLimit, CodeUnavailable, CodeTimeout:
		return true
	default:
		return false
	}
}

// String returns the string representation of the ErrorCode.
func (c ErrorCode) String() string {
	return string(c)
}
