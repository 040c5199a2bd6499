package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type blacklist struct {
	client *goredis.Client
}

// Add relies on SET NX for the atomic insert: under concurrent rotation of
// the same refresh token, Redis guarantees exactly one caller gets true.
// The entry carries the token's remaining lifetime as its TTL, so Redis
// purges it at natural expiry.
func (b *blacklist) Add(ctx context.Context, key string, expiresAt time.Time) (bool, error) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = time.Millisecond
	}
	return b.client.SetNX(ctx, blacklistPrefix+key, "1", ttl).Result()
}

func (b *blacklist) Contains(ctx context.Context, key string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistPrefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Purge is a no-op: entries expire via their Redis TTL.
func (b *blacklist) Purge(context.Context, time.Time) (int, error) {
	return 0, nil
}
