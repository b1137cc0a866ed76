package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTransient = errors.New("transient")
	errPermanent = errors.New("permanent")
)

func fast(opts ...Option) Retry {
	return New(append([]Option{WithDelay(time.Millisecond), WithMaxDelay(2 * time.Millisecond)}, opts...)...)
}

func TestExecute_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	var retried []uint

	err := fast(WithOnRetry(func(n uint, err error) { retried = append(retried, n) })).
		Execute(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errTransient
			}
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []uint{0, 1}, retried)
}

func TestExecute_StopsAtAttempts(t *testing.T) {
	calls := 0
	err := fast(WithAttempts(2)).Execute(context.Background(), func() error {
		calls++
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 2, calls)
}

func TestExecute_RetryIf(t *testing.T) {
	calls := 0
	err := fast(WithRetryIf(func(err error) bool { return errors.Is(err, errTransient) })).
		Execute(context.Background(), func() error {
			calls++
			return errPermanent
		})

	assert.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, calls)
}

func TestExecute_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = fast(WithAttempts(0)).Execute(context.Background(), func() error {
		calls++
		return errTransient
	})
	assert.Equal(t, 1, calls)
}

func TestExecute_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(WithDelay(time.Second)).Execute(ctx, func() error { return errTransient })
	assert.Error(t, err)
}
