package service

import (
	"context"
	"testing"

	"github.com/berat-eth/huglu-gateway/internal/gateway/domain"
	"github.com/berat-eth/huglu-gateway/internal/gateway/store/drivers/memory"
	"github.com/stretchr/testify/require"
)

func TestReputationCheck(t *testing.T) {
	t.Parallel()

	r := NewReputation(memory.NewStore().Reputation())
	ctx := context.Background()

	t.Run("unseen ips are allowed", func(t *testing.T) {
		status, err := r.Check(ctx, "203.0.113.1")
		require.NoError(t, err)
		require.Equal(t, domain.ReputationAllowed, status)
	})

	t.Run("thresholds are exclusive", func(t *testing.T) {
		ip := "203.0.113.2"

		// Score 50 is still allowed, 51 warns.
		_, err := r.Increase(ctx, ip, 50)
		require.NoError(t, err)
		status, err := r.Check(ctx, ip)
		require.NoError(t, err)
		require.Equal(t, domain.ReputationAllowed, status)

		_, err = r.Increase(ctx, ip, 1)
		require.NoError(t, err)
		status, err = r.Check(ctx, ip)
		require.NoError(t, err)
		require.Equal(t, domain.ReputationWarning, status)

		// Score 100 still warns, 101 blocks.
		_, err = r.Increase(ctx, ip, 49)
		require.NoError(t, err)
		status, err = r.Check(ctx, ip)
		require.NoError(t, err)
		require.Equal(t, domain.ReputationWarning, status)

		_, err = r.Increase(ctx, ip, 1)
		require.NoError(t, err)
		status, err = r.Check(ctx, ip)
		require.NoError(t, err)
		require.Equal(t, domain.ReputationBlocked, status)
	})

	t.Run("scores only accumulate", func(t *testing.T) {
		ip := "203.0.113.3"

		// Six detections at the default increment push an IP over the
		// block threshold.
		var score int
		var err error
		for range 6 {
			score, err = r.Increase(ctx, ip, 20)
			require.NoError(t, err)
		}
		require.Equal(t, 120, score)

		status, err := r.Check(ctx, ip)
		require.NoError(t, err)
		require.Equal(t, domain.ReputationBlocked, status)
	})
}
