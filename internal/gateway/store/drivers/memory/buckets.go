package memory

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	count       int
	windowStart time.Time
	window      time.Duration
}

type bucketShard struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

type buckets struct {
	shards [shardCount]*bucketShard
}

func newBuckets() *buckets {
	b := &buckets{}
	for i := range b.shards {
		b.shards[i] = &bucketShard{buckets: make(map[string]*bucket)}
	}
	return b
}

func (b *buckets) shard(key string) *bucketShard {
	return b.shards[shardIndex(key)]
}

func (b *buckets) Hit(_ context.Context, key string, window time.Duration, now time.Time) (int, time.Time, error) {
	s := b.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	bk, ok := s.buckets[key]
	// A hit landing exactly on the boundary starts a fresh window.
	if !ok || now.Sub(bk.windowStart) >= bk.window {
		bk = &bucket{count: 1, windowStart: now, window: window}
		s.buckets[key] = bk
		return 1, now.Add(window), nil
	}

	bk.count++
	return bk.count, bk.windowStart.Add(bk.window), nil
}

func (b *buckets) Refund(_ context.Context, key string) error {
	s := b.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if bk, ok := s.buckets[key]; ok && bk.count > 0 {
		bk.count--
	}
	return nil
}

func (b *buckets) Purge(_ context.Context, now time.Time) (int, error) {
	removed := 0
	for _, s := range b.shards {
		s.mu.Lock()
		for key, bk := range s.buckets {
			if now.Sub(bk.windowStart) >= bk.window {
				delete(s.buckets, key)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed, nil
}
