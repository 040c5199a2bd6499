// Package redis implements store.Store on a shared Redis instance so that
// multiple gateway replicas see one blacklist, one reputation table and one
// set of rate windows. The memory driver remains the default; this driver is
// opt-in via GATEWAY_REDIS_ADDR.
package redis

import (
	goredis "github.com/redis/go-redis/v9"

	"github.com/berat-eth/huglu-gateway/internal/gateway/store"
)

// Key namespaces. Everything the gateway writes lives under "gw:".
const (
	blacklistPrefix  = "gw:bl:"
	bucketPrefix     = "gw:rl:"
	reputationPrefix = "gw:rep:"
	reputationIndex  = "gw:rep-ips"
)

type Store struct {
	client     *goredis.Client
	blacklist  *blacklist
	reputation *reputation
	buckets    *buckets
}

// NewStore connects to the Redis instance at addr.
func NewStore(addr string) *Store {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	return &Store{
		client:     client,
		blacklist:  &blacklist{client: client},
		reputation: &reputation{client: client},
		buckets:    &buckets{client: client},
	}
}

func (s *Store) Blacklist() store.Blacklist     { return s.blacklist }
func (s *Store) Reputation() store.Reputation   { return s.reputation }
func (s *Store) RateBuckets() store.RateBuckets { return s.buckets }
func (s *Store) Close() error                   { return s.client.Close() }
