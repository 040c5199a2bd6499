package memory

import (
	"context"
	"sync"
	"time"

	"github.com/berat-eth/huglu-gateway/internal/gateway/domain"
	"github.com/berat-eth/huglu-gateway/internal/gateway/store"
)

type reputationShard struct {
	mu      sync.Mutex
	records map[string]*domain.Reputation
}

type reputation struct {
	shards [shardCount]*reputationShard
}

func newReputation() *reputation {
	r := &reputation{}
	for i := range r.shards {
		r.shards[i] = &reputationShard{records: make(map[string]*domain.Reputation)}
	}
	return r
}

func (r *reputation) shard(ip string) *reputationShard {
	return r.shards[shardIndex(ip)]
}

func (r *reputation) Increase(_ context.Context, ip string, points int, now time.Time) (int, error) {
	s := r.shard(ip)
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[ip]
	if !ok {
		rec = &domain.Reputation{IP: ip}
		s.records[ip] = rec
	}
	rec.Score += points
	rec.LastSeen = now
	return rec.Score, nil
}

func (r *reputation) Get(_ context.Context, ip string) (domain.Reputation, error) {
	s := r.shard(ip)
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[ip]
	if !ok {
		return domain.Reputation{}, store.ErrNotFound
	}
	return *rec, nil
}

func (r *reputation) Len(_ context.Context) (int, error) {
	n := 0
	for _, s := range r.shards {
		s.mu.Lock()
		n += len(s.records)
		s.mu.Unlock()
	}
	return n, nil
}
