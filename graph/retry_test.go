package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.InitialDelay)
	assert.Equal(t, 5*time.Second, cfg.MaxDelay)
	assert.Equal(t, 2.0, cfg.BackoffFactor)
	assert.Nil(t, cfg.Retryable)
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	attempts, err := fastRetryConfig().Do(context.Background(), func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	attempts, err := fastRetryConfig().Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustsBudget(t *testing.T) {
	wantErr := errors.New("always down")
	attempts, err := fastRetryConfig().Do(context.Background(), func() error { return wantErr })
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "max retries")
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	permanent := errors.New("bad request")
	cfg := fastRetryConfig()
	cfg.Retryable = func(err error) bool { return !errors.Is(err, permanent) }

	calls := 0
	attempts, err := cfg.Do(context.Background(), func() error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts, err := fastRetryConfig().Do(ctx, func() error { return errors.New("never called") })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, attempts)
}

func TestWithTimeoutPassesThroughFastNodes(t *testing.T) {
	fn := WithTimeout("fast", func(_ context.Context, s int) (int, error) {
		return s + 1, nil
	}, time.Second)

	out, err := fn(context.Background(), 41)
	require.NoError(t, err)
	assert.Equal(t, 42, out)
}

func TestWithTimeoutCutsOffSlowNodes(t *testing.T) {
	fn := WithTimeout("slow", func(ctx context.Context, s int) (int, error) {
		select {
		case <-time.After(time.Second):
			return s, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}, 10*time.Millisecond)

	out, err := fn(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Zero(t, out)
}

func TestJitterStaysWithinBounds(t *testing.T) {
	base := 100 * time.Millisecond
	for range 50 {
		d := jitter(base)
		assert.GreaterOrEqual(t, d, 75*time.Millisecond)
		assert.LessOrEqual(t, d, 125*time.Millisecond)
	}
	assert.Equal(t, time.Duration(0), jitter(0))
}
