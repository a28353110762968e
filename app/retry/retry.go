package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Config struct {
	Retries int           // additional attempts after the first one
	Delay   time.Duration // base delay, multiplied by the attempt number
}

// permanent marks an error that must not be retried.
type permanent struct {
	err error
}

func (p *permanent) Error() string { return p.err.Error() }
func (p *permanent) Unwrap() error { return p.err }

// Permanent wraps err so that Do returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanent{err: err}
}

// Do calls fn until it succeeds, returns a permanent error, or the retries are
// exhausted. Backoff is linear: Delay × attempt number.
func Do(ctx context.Context, config Config, fn func(attempt int) error) error {
	var lastErr error
	attempts := config.Retries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}

		var p *permanent
		if errors.As(err, &p) {
			return p.err
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-time.After(time.Duration(attempt) * config.Delay):
		}
	}

	return lastErr
}
