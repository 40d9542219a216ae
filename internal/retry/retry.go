// Package retry provides a bounded exponential-backoff executor used to wrap
// every external call (database, Telegram API, geocoder). Call sites must not
// implement their own retry loops.
package retry

import (
	"context"
	"time"
)

// Default policy applied by NewDefault.
const (
	DefaultMaxAttempts = 4
	DefaultBaseDelay   = time.Second
)

// Executor retries an operation with exponential backoff.
//
// The delay before attempt k (k >= 2) is baseDelay * 2^(k-2):
//
//	attempt 1: immediate
//	attempt 2: baseDelay
//	attempt 3: baseDelay * 2
//	attempt 4: baseDelay * 4
//
// After exhausting all attempts the most recent error is returned.
type Executor struct {
	maxAttempts int
	baseDelay   time.Duration
}

// New creates an executor with the given attempt bound and base delay.
// maxAttempts values below 1 are clamped to 1.
func New(maxAttempts int, baseDelay time.Duration) *Executor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Executor{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}
}

// NewDefault creates an executor with the default policy (4 attempts, 1s base).
func NewDefault() *Executor {
	return New(DefaultMaxAttempts, DefaultBaseDelay)
}

// MaxAttempts returns the configured attempt bound.
func (e *Executor) MaxAttempts() int {
	return e.maxAttempts
}

// Do runs fn until it succeeds, the attempt bound is reached, or the context
// is canceled. The last error from fn is returned on exhaustion; a context
// error is returned when canceled while waiting between attempts.
func (e *Executor) Do(ctx context.Context, fn func() error) error {
	var lastErr error

	delay := e.baseDelay
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}

		if err := fn(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return lastErr
}
