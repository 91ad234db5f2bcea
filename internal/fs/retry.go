package fs

import (
	"context"
	"fmt"
	"time"
)

// Policy bounds a retry loop. A Multiplier of 0 or 1 keeps the backoff fixed.
type Policy struct {
	Attempts   int
	Backoff    time.Duration
	Multiplier float64

	// OnRetry, if set, is called before sleeping after a retryable failure.
	OnRetry func(attempt int, err error)
}

// used by copy for EAGAIN/EBUSY style hiccups
var transientPolicy = Policy{Attempts: 5, Backoff: 100 * time.Millisecond, Multiplier: 2}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Retry calls fn until it succeeds, returns an error retryable rejects, or
// the policy runs out of attempts. Non-retryable errors are returned as-is so
// callers can classify them; exhaustion yields *ExhaustedError.
func Retry(ctx context.Context, p Policy, op string, retryable func(error) bool, fn func(attempt int) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	wait := p.Backoff

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(attempt)
		if err == nil {
			return nil
		}

		lastErr = err

		if !retryable(err) {
			return err
		}

		if attempt == attempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}

		if err := sleep(ctx, wait); err != nil {
			return err
		}
		if p.Multiplier > 1 {
			wait = time.Duration(float64(wait) * p.Multiplier)
		}
	}

	return &ExhaustedError{Op: op, Attempts: attempts, Err: lastErr}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
