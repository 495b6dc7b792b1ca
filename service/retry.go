package service

import (
	"context"
	"errors"
	"fmt"
	"go-ledger-api/common"
	"go-ledger-api/metrics"
	"math/rand/v2"
	"time"
)

const (
	defaultMaxRetries   = 5
	defaultRetryBackoff = 10 * time.Millisecond
)

// retryable reports whether a fresh attempt can succeed: a version conflict
// (re-read and try again) or an identifier collision (generate a new one).
func retryable(err error) bool {
	return errors.Is(err, common.ErrConcurrencyConflict) || errors.Is(err, common.ErrDuplicateResource)
}

// withRetry calls fn up to attempts times while it fails with a retryable error.
// attempt starts at 0; callers re-read their state when attempt > 0.
func withRetry(ctx context.Context, attempts int, backoff time.Duration, fn func(attempt int) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			metrics.ConcurrencyRetries.Inc()
			if waitErr := sleepJitter(ctx, backoff); waitErr != nil {
				return waitErr
			}
		}
		err = fn(attempt)
		if err == nil || !retryable(err) {
			return err
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", attempts, err)
}

func sleepJitter(ctx context.Context, backoff time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if backoff <= 0 {
		return nil
	}
	d := backoff/2 + rand.N(backoff)
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
