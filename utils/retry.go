// utils/retry.go
package utils

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	DefaultRetryAttempts  = 3
	DefaultRetryBaseDelay = 1000 * time.Millisecond
)

// Retry invokes op up to maxAttempts times, sleeping baseDelay × 2^attempt
// between failures (no jitter). The last error is propagated unchanged.
func Retry[T any](ctx context.Context, op func() (T, error), maxAttempts uint, baseDelay time.Duration) (T, error) {
	if maxAttempts == 0 {
		maxAttempts = DefaultRetryAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultRetryBaseDelay
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = baseDelay
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxInterval = 24 * time.Hour // never cap below the computed delay

	return backoff.Retry(ctx, backoff.Operation[T](op),
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(maxAttempts),
	)
}
