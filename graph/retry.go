package graph

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// RetryConfig configures bounded retry with exponential backoff.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64

	// Retryable determines whether an error should trigger another attempt.
	// Nil retries every error.
	Retryable func(error) bool
}

// DefaultRetryConfig returns the default retry configuration: three attempts
// with a doubling delay starting at 100ms.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Do runs fn until it succeeds, the error is non-retryable, the attempt budget
// is exhausted, or the context is cancelled. It returns the number of attempts
// made alongside the final error, so callers can record retry counts in their
// state.
func (c *RetryConfig) Do(ctx context.Context, fn func() error) (int, error) {
	delay := c.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= c.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return attempt - 1, fmt.Errorf("retry cancelled: %w", ctx.Err())
		default:
		}

		err := fn()
		if err == nil {
			return attempt, nil
		}
		lastErr = err

		if c.Retryable != nil && !c.Retryable(err) {
			return attempt, err
		}

		if attempt == c.MaxAttempts {
			break
		}

		select {
		case <-time.After(jitter(delay)):
			delay = min(time.Duration(float64(delay)*c.BackoffFactor), c.MaxDelay)
		case <-ctx.Done():
			return attempt, fmt.Errorf("retry cancelled during backoff: %w", ctx.Err())
		}
	}

	return c.MaxAttempts, fmt.Errorf("max retries (%d) exceeded: %w", c.MaxAttempts, lastErr)
}

// WithTimeout wraps a node function so each invocation runs under a deadline.
// A node that overruns returns the zero state and a timeout error; the
// underlying call is left to observe its cancelled context.
func WithTimeout[S any](name string, fn func(ctx context.Context, state S) (S, error), timeout time.Duration) func(ctx context.Context, state S) (S, error) {
	return func(ctx context.Context, state S) (S, error) {
		timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		type result struct {
			state S
			err   error
		}
		resultChan := make(chan result, 1)

		go func() {
			out, err := fn(timeoutCtx, state)
			resultChan <- result{state: out, err: err}
		}()

		select {
		case res := <-resultChan:
			return res.state, res.err
		case <-timeoutCtx.Done():
			var zero S
			return zero, fmt.Errorf("node %s timed out after %v", name, timeout)
		}
	}
}

// AddNodeWithTimeout adds a node whose function is bounded by a deadline.
func (g *StateGraph[S]) AddNodeWithTimeout(name string, description string, fn func(ctx context.Context, state S) (S, error), timeout time.Duration) {
	g.AddNode(name, description, WithTimeout(name, fn, timeout))
}

// jitter spreads a delay by ±25% to avoid synchronized retries.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	//nolint:gosec // Using weak RNG for jitter is acceptable, not security-critical
	return d + time.Duration(float64(d)*0.25*(2*rand.Float64()-1))
}
