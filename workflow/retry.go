package workflow

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds the persistence retries of a single execution.
// Only Throttled and Unavailable store failures are retried.
type RetryPolicy struct {
	// MaxAttempts is the total number of put attempts, including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// BaseDelay is the delay before the first retry. Each further retry
	// doubles it, with ±25% jitter.
	BaseDelay time.Duration

	// MaxDelay caps a single delay.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns 3 attempts with delays starting at 50ms and
// capped at 1s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   50 * time.Millisecond,
		MaxDelay:    time.Second,
	}
}

// attempts returns the effective attempt cap.
func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// backOff builds a fresh backoff schedule bound to ctx. Schedules are
// stateful, so each execution gets its own.
//
//nolint:ireturn // backoff composes through its interface
func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseDelay
	exp.MaxInterval = p.MaxDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0.25
	exp.MaxElapsedTime = 0 // bounded by attempts, not wall time

	retries := uint64(p.attempts() - 1) //nolint:gosec // attempts() >= 1
	return backoff.WithContext(backoff.WithMaxRetries(exp, retries), ctx)
}
