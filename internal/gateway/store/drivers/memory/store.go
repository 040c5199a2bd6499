// Package memory implements store.Store with sharded in-process maps.
// Shards keep lock contention low under high request concurrency; a single
// global mutex over all security state would serialize the whole gateway.
package memory

import (
	"hash/fnv"

	"github.com/berat-eth/huglu-gateway/internal/gateway/store"
)

const shardCount = 16

func shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % shardCount)
}

type Store struct {
	blacklist  *blacklist
	reputation *reputation
	buckets    *buckets
}

// NewStore returns an empty in-process store.
func NewStore() *Store {
	return &Store{
		blacklist:  newBlacklist(),
		reputation: newReputation(),
		buckets:    newBuckets(),
	}
}

func (s *Store) Blacklist() store.Blacklist     { return s.blacklist }
func (s *Store) Reputation() store.Reputation   { return s.reputation }
func (s *Store) RateBuckets() store.RateBuckets { return s.buckets }
func (s *Store) Close() error                   { return nil }
