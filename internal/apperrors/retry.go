package apperrors

import (
	"context"
	"log"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy controls WithRetry
type RetryPolicy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

// DefaultRetryPolicy: 1s, 2s, 4s... capped at 10s, three attempts in total
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BaseDelay:   1000 * time.Millisecond,
		MaxDelay:    10000 * time.Millisecond,
		MaxAttempts: 3,
	}
}

// WithRetry runs op until it succeeds, fails with a non-retryable kind, or
// runs out of attempts. The last error is returned unwrapped.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.BaseDelay
	b.MaxInterval = policy.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0

	attempt := 0
	return backoff.Retry(ctx, func() (T, error) {
		attempt++
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		classified := Classify(err)
		if !classified.Retryable() || attempt >= policy.MaxAttempts {
			return result, backoff.Permanent(err)
		}

		log.Printf("[Retry] attempt %d/%d failed (%s): %v", attempt, policy.MaxAttempts, classified.Kind, err)
		return result, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(policy.MaxAttempts)))
}
