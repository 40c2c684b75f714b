package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsAfterRetries(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return Retryable(errors.New("transient"))
		}
		return nil
	}, WithMaxAttempts(5), WithInitialDelay(time.Millisecond), WithJitter(0))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoStopsOnPermanent(t *testing.T) {
	attempts := 0
	wrapped := errors.New("bad credentials")
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Permanent(wrapped)
	}, WithMaxAttempts(5), WithInitialDelay(time.Millisecond))

	assert.Equal(t, 1, attempts)
	assert.Equal(t, wrapped, err)
}

func TestDoExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Retryable(errors.New("still down"))
	}, WithMaxAttempts(3), WithInitialDelay(time.Millisecond), WithJitter(0))

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.EqualError(t, err, "still down")
}

func TestDoDoesNotRetryPlainErrors(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("not wrapped")
	}, WithMaxAttempts(3), WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestCalculateDelayDoubles(t *testing.T) {
	r := New(WithInitialDelay(100*time.Millisecond), WithMultiplier(2.0), WithJitter(0))
	assert.Equal(t, 100*time.Millisecond, r.calculateDelay(1))
	assert.Equal(t, 200*time.Millisecond, r.calculateDelay(2))
	assert.Equal(t, 400*time.Millisecond, r.calculateDelay(3))
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Do(ctx, func(ctx context.Context) error {
		attempts++
		return Retryable(errors.New("transient"))
	}, WithMaxAttempts(3))

	require.Error(t, err)
	assert.Equal(t, 0, attempts)
}

func TestDoWithData(t *testing.T) {
	attempts := 0
	got, err := DoWithData(context.Background(), func(ctx context.Context) (string, error) {
		attempts++
		if attempts == 1 {
			return "", Retryable(errors.New("transient"))
		}
		return "ok", nil
	}, WithMaxAttempts(2), WithInitialDelay(time.Millisecond), WithJitter(0))

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestLoginRetrierConfig(t *testing.T) {
	r := LoginRetrier()
	assert.Equal(t, 2, r.config.MaxAttempts)
	// Fixed delay between login attempts, no growth.
	assert.Equal(t, r.calculateDelay(1), r.calculateDelay(2))
}
