package service

import (
	"context"
	"testing"
	"time"

	"github.com/berat-eth/huglu-gateway/internal/gateway/domain"
	"github.com/berat-eth/huglu-gateway/internal/gateway/store/drivers/memory"
	"github.com/stretchr/testify/require"
)

func newTestRateLimiter(t *testing.T) (*RateLimiter, *time.Time) {
	t.Helper()

	st := memory.NewStore()
	l := NewRateLimiter(st.RateBuckets(), NewEventLog(testLogger()))

	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	l.Now = func() time.Time { return current }
	return l, &current
}

func TestRateLimiterAllowsUnderMax(t *testing.T) {
	t.Parallel()

	l, _ := newTestRateLimiter(t)
	tier := domain.Tier{Name: "test", Window: time.Minute, Max: 3}
	ctx := context.Background()

	for i := range 3 {
		decision, err := l.Allow(ctx, tier, "203.0.113.1", "203.0.113.1")
		require.NoError(t, err)
		require.True(t, decision.Allowed, "hit %d should be allowed", i+1)
	}
	require.Equal(t, 0, l.Events.Len())
}

func TestRateLimiterDeniesOverMax(t *testing.T) {
	t.Parallel()

	l, _ := newTestRateLimiter(t)
	tier := domain.Tier{Name: "test", Window: time.Minute, Max: 3}
	ctx := context.Background()

	for range 3 {
		_, err := l.Allow(ctx, tier, "203.0.113.1", "203.0.113.1")
		require.NoError(t, err)
	}

	decision, err := l.Allow(ctx, tier, "203.0.113.1", "203.0.113.1")
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, time.Minute, decision.RetryAfter)

	// The denial lands in the ledger with the tier's event type.
	require.Equal(t, 1, l.Events.Len())
}

func TestRateLimiterWindowReset(t *testing.T) {
	t.Parallel()

	l, current := newTestRateLimiter(t)
	tier := domain.Tier{Name: "test", Window: time.Minute, Max: 1}
	ctx := context.Background()

	decision, err := l.Allow(ctx, tier, "203.0.113.1", "203.0.113.1")
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	decision, err = l.Allow(ctx, tier, "203.0.113.1", "203.0.113.1")
	require.NoError(t, err)
	require.False(t, decision.Allowed)

	// A hit landing exactly on the boundary starts a fresh window.
	*current = current.Add(time.Minute)
	decision, err = l.Allow(ctx, tier, "203.0.113.1", "203.0.113.1")
	require.NoError(t, err)
	require.True(t, decision.Allowed)
}

func TestRateLimiterMaxZeroDeniesFirstHit(t *testing.T) {
	t.Parallel()

	l, _ := newTestRateLimiter(t)
	tier := domain.Tier{Name: "frozen", Window: time.Minute, Max: 0}

	decision, err := l.Allow(context.Background(), tier, "203.0.113.1", "203.0.113.1")
	require.NoError(t, err)
	require.False(t, decision.Allowed)
}

func TestRateLimiterSkipsPrivateIPs(t *testing.T) {
	t.Parallel()

	l, _ := newTestRateLimiter(t)
	tier := domain.Tier{Name: "test", Window: time.Minute, Max: 0, SkipPrivate: true}
	ctx := context.Background()

	for _, ip := range []string{"127.0.0.1", "10.0.0.5", "192.168.1.1", "::1"} {
		decision, err := l.Allow(ctx, tier, ip, ip)
		require.NoError(t, err)
		require.True(t, decision.Allowed, "private ip %s should bypass", ip)
	}

	// Public callers still hit the counter.
	decision, err := l.Allow(ctx, tier, "203.0.113.1", "203.0.113.1")
	require.NoError(t, err)
	require.False(t, decision.Allowed)
}

func TestRateLimiterRefund(t *testing.T) {
	t.Parallel()

	l, _ := newTestRateLimiter(t)
	tier := domain.Tier{Name: "login", Window: time.Minute, Max: 2}
	ctx := context.Background()

	for range 2 {
		decision, err := l.Allow(ctx, tier, "203.0.113.1", "203.0.113.1")
		require.NoError(t, err)
		require.True(t, decision.Allowed)
	}

	require.NoError(t, l.Refund(ctx, tier, "203.0.113.1"))

	decision, err := l.Allow(ctx, tier, "203.0.113.1", "203.0.113.1")
	require.NoError(t, err)
	require.True(t, decision.Allowed)
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	t.Parallel()

	l, _ := newTestRateLimiter(t)
	tier := domain.Tier{Name: "payment", Window: time.Minute, Max: 1}
	ctx := context.Background()

	decision, err := l.Allow(ctx, tier, "203.0.113.1", "203.0.113.1:order-1")
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	// Same IP, different order: separate bucket.
	decision, err = l.Allow(ctx, tier, "203.0.113.1", "203.0.113.1:order-2")
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	decision, err = l.Allow(ctx, tier, "203.0.113.1", "203.0.113.1:order-1")
	require.NoError(t, err)
	require.False(t, decision.Allowed)
}
