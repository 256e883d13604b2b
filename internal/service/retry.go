package service

import (
	"context"
	"time"
)

// RetryConfig configures exponential backoff retry behavior.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultCartClearRetry keeps the whole retry loop well under the request
// budget; anything left over is picked up by the reconcile sweep.
func DefaultCartClearRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   25 * time.Millisecond,
		MaxDelay:    200 * time.Millisecond,
		Multiplier:  2,
	}
}

// retryWithBackoff calls fn until it succeeds, attempts run out or ctx is
// done. It returns the last error.
func retryWithBackoff(ctx context.Context, config RetryConfig, fn func(ctx context.Context) error) error {
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := config.BaseDelay

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * config.Multiplier)
		if config.MaxDelay > 0 && backoff > config.MaxDelay {
			backoff = config.MaxDelay
		}
	}
	return lastErr
}
