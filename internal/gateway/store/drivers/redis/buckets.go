package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type buckets struct {
	client *goredis.Client
}

// Hit maps the fixed window onto INCR + PEXPIRE: the first hit creates the
// counter and arms the window TTL, later hits just increment. Redis expiring
// the key is what resets the window.
func (b *buckets) Hit(ctx context.Context, key string, window time.Duration, now time.Time) (int, time.Time, error) {
	k := bucketPrefix + key

	count, err := b.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	if count == 1 {
		if err := b.client.PExpire(ctx, k, window).Err(); err != nil {
			return 0, time.Time{}, err
		}
		return 1, now.Add(window), nil
	}

	ttl, err := b.client.PTTL(ctx, k).Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	if ttl < 0 {
		// Counter survived without a TTL (lost PEXPIRE); re-arm it rather
		// than letting the bucket live forever.
		if err := b.client.PExpire(ctx, k, window).Err(); err != nil {
			return 0, time.Time{}, err
		}
		ttl = window
	}

	return int(count), now.Add(ttl), nil
}

func (b *buckets) Refund(ctx context.Context, key string) error {
	k := bucketPrefix + key

	n, err := b.client.Exists(ctx, k).Result()
	if err != nil || n == 0 {
		return err
	}
	return b.client.Decr(ctx, k).Err()
}

// Purge is a no-op: buckets expire via their Redis TTL.
func (b *buckets) Purge(context.Context, time.Time) (int, error) {
	return 0, nil
}
