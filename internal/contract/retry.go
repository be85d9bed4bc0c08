package contract

import (
	"context"
	"time"
)

// RetryPolicy is a bounded retry with exponential backoff, parameterized by
// error classification. It is applied uniformly to checkout and analyzer
// calls instead of scattering ad hoc retry loops.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// Retryable reports whether an error is transient. A nil Retryable
	// treats every error as transient.
	Retryable func(error) bool

	// OnRetry runs between attempts, e.g. to clear a stale lock artifact.
	OnRetry func(attempt int, err error)
}

// DefaultCheckoutPolicy covers the common case of a stale index.lock left
// by a crashed prior run.
func DefaultCheckoutPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}
}

// Do runs op until it succeeds, the error is classified fatal, attempts run
// out, or the context is canceled. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	delay := p.BaseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return err
}
