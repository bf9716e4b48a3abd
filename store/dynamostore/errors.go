package dynamostore

import (
	"errors"

	"github.com/aws/smithy-go"

	"github.com/input-output-hk/dogstore/store"
)

// AWS error codes that signal exceeded capacity or request rate.
var throttlingCodes = map[string]struct{}{
	"ProvisionedThroughputExceededException": {},
	"ThrottlingException":                    {},
	"RequestLimitExceeded":                   {},
	"TooManyRequestsException":               {},
}

// AWS error codes that signal a malformed or impossible request. Repeating
// the request unchanged cannot succeed.
var rejectionCodes = map[string]struct{}{
	"ValidationException":                      {},
	"ConditionalCheckFailedException":          {},
	"ResourceNotFoundException":                {},
	"AccessDeniedException":                    {},
	"UnrecognizedClientException":              {},
	"ItemCollectionSizeLimitExceededException": {},
	"SerializationException":                   {},
	"TransactionConflictException":             {},
}

// classify maps an SDK error onto the store taxonomy. Unknown API errors and
// transport failures, including context cancellation, count as
// Unavailable.
func classify(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		if _, ok := throttlingCodes[code]; ok {
			return store.ErrThrottled
		}
		if _, ok := rejectionCodes[code]; ok {
			return store.ErrRejected
		}
		if apiErr.ErrorFault() == smithy.FaultClient {
			return store.ErrRejected
		}
		return store.ErrUnavailable
	}

	return store.ErrUnavailable
}
