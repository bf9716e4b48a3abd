// Package dynamostore provides a record store backed by Amazon DynamoDB.
//
// The client wraps the AWS SDK v2 `dynamodb` service to provide:
//   - Put: an unconditional PutItem of {id, name, breed}, returning a write
//     receipt with the AWS request ID and consumed write capacity
//   - Get: a strongly consistent GetItem by partition key
//   - Classification of every SDK failure into store.ErrThrottled,
//     store.ErrUnavailable or store.ErrRejected
//   - An optional read cache via the `Cache` interface
//
// SDK-level retries are disabled: retry policy belongs to the caller (the
// workflow orchestrator), which retries Throttled and Unavailable failures
// with bounded backoff.
//
// # IAM Permissions
//
//   - dynamodb:PutItem - Required for Put
//   - dynamodb:GetItem - Required for Get
//
// # Thread safety
//
// All exported client methods are safe for concurrent use by multiple
// goroutines. The underlying AWS SDK v2 client is thread-safe and the cache
// implementation must be as well.
package dynamostore
