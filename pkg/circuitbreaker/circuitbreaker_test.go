package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFetch = errors.New("portal unreachable")

func failing(ctx context.Context) error    { return errFetch }
func succeeding(ctx context.Context) error { return nil }

func TestOpensAfterThreshold(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := cb.Execute(ctx, failing)
		assert.Equal(t, errFetch, err)
	}

	assert.True(t, cb.IsOpen())

	err := cb.Execute(ctx, succeeding)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestRecoversThroughHalfOpen(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithSuccessThreshold(2),
		WithTimeout(time.Millisecond),
		WithMaxHalfOpenRequests(5),
	)
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, failing))
	assert.True(t, cb.IsOpen())

	time.Sleep(5 * time.Millisecond)

	require.NoError(t, cb.Execute(ctx, succeeding))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Execute(ctx, succeeding))
	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New("test", WithFailureThreshold(1), WithTimeout(time.Millisecond))
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, failing))
	time.Sleep(5 * time.Millisecond)
	require.Error(t, cb.Execute(ctx, failing))

	assert.True(t, cb.IsOpen())
}

func TestStateChangeCallback(t *testing.T) {
	var transitions []string
	cb := New("portal",
		WithFailureThreshold(1),
		WithOnStateChange(func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		}),
	)

	_ = cb.Execute(context.Background(), failing)
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestReset(t *testing.T) {
	cb := New("test", WithFailureThreshold(1))
	_ = cb.Execute(context.Background(), failing)
	require.True(t, cb.IsOpen())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.NoError(t, cb.Execute(context.Background(), succeeding))
}
