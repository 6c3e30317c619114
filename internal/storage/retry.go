package storage

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds Retry. Attempts counts retries after the first call.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
	MaxDelay time.Duration
}

// DefaultRetryPolicy is used for reads when nothing else is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 2, Backoff: 25 * time.Millisecond, MaxDelay: time.Second}
}

// Retry runs fn and repeats it with exponential backoff while it fails with a
// transient error. Only idempotent operations may be passed.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	if policy.Attempts <= 0 {
		return fn(ctx)
	}
	base := policy.Backoff
	if base <= 0 {
		base = 10 * time.Millisecond
	}

	backoff := retry.NewExponential(base)
	if policy.MaxDelay > 0 {
		backoff = retry.WithCappedDuration(policy.MaxDelay, backoff)
	}
	backoff = retry.WithMaxRetries(uint64(policy.Attempts), backoff)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if IsTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
