// Package retry provides a small retry policy shared by the import engine and
// the metadata client.
package retry

import (
	"context"
	"time"
)

// BackoffFunc returns the delay before the given attempt. Attempts are
// 1-based; the function is called after attempt n fails and before attempt
// n+1 starts.
type BackoffFunc func(attempt int) time.Duration

// Linear grows the delay by base per attempt: base, 2*base, 3*base, ...
func Linear(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * base
	}
}

// Exponential doubles the delay per attempt: base, 2*base, 4*base, ...
func Exponential(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return base << (attempt - 1)
	}
}

// Policy describes how often and with what delays an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int
	// Backoff computes the delay between attempts.
	Backoff BackoffFunc
	// Retryable reports whether an error is worth another attempt. A nil
	// Retryable retries every error.
	Retryable func(error) bool
}

// Do runs fn until it succeeds, returns a non-retryable error, or the policy
// is exhausted. The context cancels the backoff sleep.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		if werr := sleep(ctx, p.Backoff(attempt)); werr != nil {
			return werr
		}
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
