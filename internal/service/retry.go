package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// withRetry runs op under the shared retry policy: exponential backoff
// starting at base, doubling per attempt, capped at maxWait, for at most
// maxAttempts tries. Callers mark terminal failures (hard rejections,
// invalid input) with backoff.Permanent so they are not retried.
func withRetry(ctx context.Context, maxAttempts int, base, maxWait time.Duration, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = base
	bo.Multiplier = 2
	bo.MaxInterval = maxWait
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxAttempts-1)), ctx)
	return backoff.Retry(op, policy)
}
