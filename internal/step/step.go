// Package step runs named units of work under a bounded retry policy.
//
// A step's closure is not guaranteed to run exactly once: an attempt can time
// out after its side effect already took hold, and the next attempt re-runs
// the closure. Idempotence therefore belongs inside the closures (existence
// checks before inserts, content compares before writes), not here.
package step

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Kind selects the backoff curve between attempts.
type Kind int

const (
	// Fixed waits the same delay between every attempt.
	Fixed Kind = iota
	// Exponential doubles the delay after each failed attempt.
	Exponential
)

// Policy bounds the retries of one step.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int
	// Delay is the wait before the second attempt.
	Delay time.Duration
	// Backoff selects how Delay grows on subsequent attempts.
	Backoff Kind
	// Timeout bounds a single attempt. Zero means no per-attempt timeout.
	Timeout time.Duration
}

type result[T any] struct {
	value T
	err   error
}

// Do runs fn under the policy and returns its first successful result, or the
// last error wrapped with the step name once attempts are exhausted. The name
// carries no semantics; it exists for log correlation.
//
// When an attempt exceeds the policy timeout it is abandoned (its goroutine
// keeps running until its context is honored) and counted as failed.
// Cancellation of the parent context stops retrying immediately.
func Do[T any](ctx context.Context, name string, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.Delay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		value, err := runAttempt(ctx, p.Timeout, fn)
		if err == nil {
			if attempt > 1 {
				slog.Info("step recovered", "step", name, "attempt", attempt)
			}
			return value, nil
		}
		lastErr = err
		slog.Warn("step attempt failed", "step", name, "attempt", attempt, "max", attempts, "err", err)

		if ctx.Err() != nil {
			return zero, fmt.Errorf("step %s: %w", name, ctx.Err())
		}
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("step %s: %w", name, ctx.Err())
		case <-time.After(delay):
		}
		if p.Backoff == Exponential {
			delay *= 2
		}
	}

	return zero, fmt.Errorf("step %s: %w", name, lastErr)
}

// runAttempt executes fn once, abandoning it if the attempt timeout elapses.
func runAttempt[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	attemptCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	ch := make(chan result[T], 1)
	go func() {
		v, err := fn(attemptCtx)
		ch <- result[T]{value: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.value, r.err
	case <-attemptCtx.Done():
		return zero, attemptCtx.Err()
	}
}
