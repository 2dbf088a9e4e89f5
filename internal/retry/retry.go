// Package retry applies a bounded-attempt policy with linearly increasing
// backoff to external calls: delay, 2*delay, 3*delay between attempts.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy holds the retry parameters applied uniformly at OCR, translation
// and store call sites.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// Do runs fn up to p.Attempts times. The sleep between attempt n and n+1 is
// n*p.Delay. Returns the last error when all attempts fail, and stops early
// when ctx is cancelled.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		select {
		case <-time.After(time.Duration(attempt) * p.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// String runs fn and returns its value alongside the policy's error
// semantics, for the common text-in text-out call shape.
func String(ctx context.Context, p Policy, fn func(ctx context.Context) (string, error)) (string, error) {
	var out string
	err := p.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}
