package service

import (
	"context"
	"testing"
	"time"

	"github.com/berat-eth/huglu-gateway/internal/gateway/store/drivers/memory"
	"github.com/stretchr/testify/require"
)

func newTestThrottle(t *testing.T) (*Throttle, *[]time.Duration) {
	t.Helper()

	cfg := ThrottleConfig{
		Window:     time.Minute,
		DelayAfter: 3,
		DelayStep:  100 * time.Millisecond,
		MaxDelay:   250 * time.Millisecond,
	}
	th := NewThrottle(cfg, memory.NewStore().RateBuckets(), NewEventLog(testLogger()))

	var slept []time.Duration
	th.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return th, &slept
}

func TestThrottleDelayGrowsThenCaps(t *testing.T) {
	t.Parallel()

	th, slept := newTestThrottle(t)
	ctx := context.Background()

	// Under the soft threshold nothing waits.
	for i := range 3 {
		delay, err := th.Delay(ctx, "203.0.113.1")
		require.NoError(t, err)
		require.Zero(t, delay, "request %d should not be delayed", i+1)
	}
	require.Empty(t, *slept)

	// Each request past the threshold waits one more step.
	delay, err := th.Delay(ctx, "203.0.113.1")
	require.NoError(t, err)
	require.Equal(t, 100*time.Millisecond, delay)

	delay, err = th.Delay(ctx, "203.0.113.1")
	require.NoError(t, err)
	require.Equal(t, 200*time.Millisecond, delay)

	// The cap holds from here on.
	delay, err = th.Delay(ctx, "203.0.113.1")
	require.NoError(t, err)
	require.Equal(t, 250*time.Millisecond, delay)

	require.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 250 * time.Millisecond}, *slept)

	// Only the first crossing is logged.
	require.Equal(t, 1, th.Events.Len())
}

func TestThrottleTracksIPsIndependently(t *testing.T) {
	t.Parallel()

	th, _ := newTestThrottle(t)
	ctx := context.Background()

	for range 4 {
		_, err := th.Delay(ctx, "203.0.113.1")
		require.NoError(t, err)
	}

	// A different IP starts from zero.
	delay, err := th.Delay(ctx, "203.0.113.2")
	require.NoError(t, err)
	require.Zero(t, delay)
}

func TestThrottleAbortsOnCanceledContext(t *testing.T) {
	t.Parallel()

	cfg := ThrottleConfig{
		Window:     time.Minute,
		DelayAfter: 0,
		DelayStep:  time.Hour,
		MaxDelay:   time.Hour,
	}
	th := NewThrottle(cfg, memory.NewStore().RateBuckets(), NewEventLog(testLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := th.Delay(ctx, "203.0.113.1")
	require.ErrorIs(t, err, context.Canceled)
}
