package memory

import (
	"context"
	"sync"
	"time"
)

type blacklistShard struct {
	mu      sync.Mutex
	entries map[string]time.Time // key -> expiry
}

type blacklist struct {
	shards [shardCount]*blacklistShard
}

func newBlacklist() *blacklist {
	b := &blacklist{}
	for i := range b.shards {
		b.shards[i] = &blacklistShard{entries: make(map[string]time.Time)}
	}
	return b
}

func (b *blacklist) shard(key string) *blacklistShard {
	return b.shards[shardIndex(key)]
}

// Add is the compare-and-swap the rotation invariant rests on: holding the
// shard lock across the existence check and insert means exactly one of two
// concurrent callers inserts.
func (b *blacklist) Add(_ context.Context, key string, expiresAt time.Time) (bool, error) {
	s := b.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; exists {
		return false, nil
	}
	s.entries[key] = expiresAt
	return true, nil
}

func (b *blacklist) Contains(_ context.Context, key string) (bool, error) {
	s := b.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.entries[key]
	return exists, nil
}

func (b *blacklist) Purge(_ context.Context, now time.Time) (int, error) {
	removed := 0
	for _, s := range b.shards {
		s.mu.Lock()
		for key, expiry := range s.entries {
			if expiry.Before(now) {
				delete(s.entries, key)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed, nil
}
