package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("connection refused")

func fast(opts ...Option) []Option {
	return append([]Option{WithDelays(time.Millisecond, 2*time.Millisecond), WithJitter(0)}, opts...)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errDown
		}
		return nil
	}, fast(WithMaxAttempts(5))...)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(errDown)
	}, fast(WithMaxAttempts(5))...)

	assert.Equal(t, errDown, err)
	assert.Equal(t, 1, calls)
	assert.True(t, IsPermanent(Permanent(errDown)))
	assert.Nil(t, Permanent(nil))
}

func TestDo_ReturnsLastErrorWhenAttemptsRunOut(t *testing.T) {
	var retried []int
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return errDown
	}, fast(WithMaxAttempts(3), WithOnRetry(func(attempt int, err error, _ time.Duration) {
		retried = append(retried, attempt)
		assert.ErrorIs(t, err, errDown)
	}))...)

	assert.Equal(t, errDown, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_HonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, func(context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)

	// A failure before cancellation is reported instead of the context error.
	ctx, cancel = context.WithCancel(context.Background())
	err = Do(ctx, func(context.Context) error {
		cancel()
		return errDown
	}, WithMaxAttempts(5), WithDelays(time.Hour, time.Hour))
	assert.Equal(t, errDown, err)
}

func TestDoValue(t *testing.T) {
	calls := 0
	got, err := DoValue(context.Background(), func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errDown
		}
		return "pool", nil
	}, fast()...)

	require.NoError(t, err)
	assert.Equal(t, "pool", got)
}

func TestStartup(t *testing.T) {
	p := DefaultPolicy()
	for _, opt := range Startup(7, nil) {
		opt(&p)
	}
	assert.Equal(t, 7, p.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, p.InitialDelay)
	assert.Equal(t, 5*time.Second, p.MaxDelay)
	assert.Equal(t, 0.2, p.Jitter)
}

func TestPolicyDelay_GrowsAndCaps(t *testing.T) {
	p := Policy{InitialDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, Multiplier: 2}

	assert.Equal(t, 100*time.Millisecond, p.delay(1))
	assert.Equal(t, 200*time.Millisecond, p.delay(2))
	assert.Equal(t, 300*time.Millisecond, p.delay(3))
	assert.Equal(t, 300*time.Millisecond, p.delay(10))

	p.Jitter = 0.5
	for i := 0; i < 20; i++ {
		d := p.delay(1)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}
