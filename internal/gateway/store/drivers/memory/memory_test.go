package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/berat-eth/huglu-gateway/internal/gateway/store"
	"github.com/berat-eth/huglu-gateway/internal/gateway/store/drivers/memory"
	"github.com/stretchr/testify/require"
)

func TestBlacklistAddIsFirstWriterWins(t *testing.T) {
	t.Parallel()

	bl := memory.NewStore().Blacklist()
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour)

	inserted, err := bl.Add(ctx, "jti:abc", expiry)
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = bl.Add(ctx, "jti:abc", expiry)
	require.NoError(t, err)
	require.False(t, inserted)

	found, err := bl.Contains(ctx, "jti:abc")
	require.NoError(t, err)
	require.True(t, found)
}

func TestBlacklistAddUnderContention(t *testing.T) {
	t.Parallel()

	bl := memory.NewStore().Blacklist()
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour)

	const attempts = 32
	results := make(chan bool, attempts)

	var wg sync.WaitGroup
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := bl.Add(ctx, "jti:contended", expiry)
			require.NoError(t, err)
			results <- inserted
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for inserted := range results {
		if inserted {
			winners++
		}
	}
	require.Equal(t, 1, winners)
}

func TestBlacklistPurge(t *testing.T) {
	t.Parallel()

	bl := memory.NewStore().Blacklist()
	ctx := context.Background()
	now := time.Now()

	_, err := bl.Add(ctx, "tok:old", now.Add(-time.Minute))
	require.NoError(t, err)
	_, err = bl.Add(ctx, "tok:new", now.Add(time.Minute))
	require.NoError(t, err)

	removed, err := bl.Purge(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	found, err := bl.Contains(ctx, "tok:new")
	require.NoError(t, err)
	require.True(t, found)
}

func TestBucketsFixedWindow(t *testing.T) {
	t.Parallel()

	buckets := memory.NewStore().RateBuckets()
	ctx := context.Background()
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	count, reset, err := buckets.Hit(ctx, "k", time.Minute, start)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, start.Add(time.Minute), reset)

	count, reset, err = buckets.Hit(ctx, "k", time.Minute, start.Add(30*time.Second))
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.Equal(t, start.Add(time.Minute), reset, "reset stays anchored to the window start")

	// Exactly on the boundary a fresh window begins.
	count, reset, err = buckets.Hit(ctx, "k", time.Minute, start.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, start.Add(2*time.Minute), reset)
}

func TestBucketsRefundFloorsAtZero(t *testing.T) {
	t.Parallel()

	buckets := memory.NewStore().RateBuckets()
	ctx := context.Background()
	now := time.Now()

	// Refunding an unknown key is a no-op.
	require.NoError(t, buckets.Refund(ctx, "k"))

	_, _, err := buckets.Hit(ctx, "k", time.Minute, now)
	require.NoError(t, err)

	require.NoError(t, buckets.Refund(ctx, "k"))
	require.NoError(t, buckets.Refund(ctx, "k"))

	count, _, err := buckets.Hit(ctx, "k", time.Minute, now)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestBucketsPurge(t *testing.T) {
	t.Parallel()

	buckets := memory.NewStore().RateBuckets()
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	_, _, err := buckets.Hit(ctx, "old", time.Minute, now.Add(-2*time.Minute))
	require.NoError(t, err)
	_, _, err = buckets.Hit(ctx, "live", time.Hour, now)
	require.NoError(t, err)

	removed, err := buckets.Purge(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, removed)
}

func TestReputationStore(t *testing.T) {
	t.Parallel()

	rep := memory.NewStore().Reputation()
	ctx := context.Background()
	now := time.Now()

	_, err := rep.Get(ctx, "203.0.113.1")
	require.ErrorIs(t, err, store.ErrNotFound)

	score, err := rep.Increase(ctx, "203.0.113.1", 20, now)
	require.NoError(t, err)
	require.Equal(t, 20, score)

	score, err = rep.Increase(ctx, "203.0.113.1", 20, now.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, 40, score)

	rec, err := rep.Get(ctx, "203.0.113.1")
	require.NoError(t, err)
	require.Equal(t, 40, rec.Score)
	require.Equal(t, now.Add(time.Minute), rec.LastSeen)

	_, err = rep.Increase(ctx, "203.0.113.2", 5, now)
	require.NoError(t, err)

	n, err := rep.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}
