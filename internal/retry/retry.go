// Package retry wraps read-only RPC calls in exponential backoff. It must not
// be used around transaction submission.
package retry

import (
	"context"
	"time"
)

const defaultBackoff = 100 * time.Millisecond

// Policy bounds the retries of one call.
type Policy struct {
	MaxRetries int
	Backoff    time.Duration
}

// Do calls fn until it succeeds, the retries are exhausted or ctx is done.
// The delay doubles after each failed attempt.
func (p Policy) Do(ctx context.Context, fn func(context.Context) error) error {
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := p.Backoff
	if delay <= 0 {
		delay = defaultBackoff
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
