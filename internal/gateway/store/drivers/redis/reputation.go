package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/berat-eth/huglu-gateway/internal/gateway/domain"
	"github.com/berat-eth/huglu-gateway/internal/gateway/store"
)

type reputation struct {
	client *goredis.Client
}

func (r *reputation) Increase(ctx context.Context, ip string, points int, now time.Time) (int, error) {
	key := reputationPrefix + ip

	pipe := r.client.TxPipeline()
	incr := pipe.HIncrBy(ctx, key, "score", int64(points))
	pipe.HSet(ctx, key, "last_seen", now.UnixMilli())
	pipe.SAdd(ctx, reputationIndex, ip)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return int(incr.Val()), nil
}

func (r *reputation) Get(ctx context.Context, ip string) (domain.Reputation, error) {
	key := reputationPrefix + ip

	vals, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return domain.Reputation{}, err
	}
	if len(vals) == 0 {
		return domain.Reputation{}, store.ErrNotFound
	}

	rec := domain.Reputation{IP: ip}
	if score, err := r.client.HGet(ctx, key, "score").Int(); err == nil {
		rec.Score = score
	} else if !errors.Is(err, goredis.Nil) {
		return domain.Reputation{}, err
	}
	if ms, err := r.client.HGet(ctx, key, "last_seen").Int64(); err == nil {
		rec.LastSeen = time.UnixMilli(ms)
	}
	return rec, nil
}

func (r *reputation) Len(ctx context.Context) (int, error) {
	n, err := r.client.SCard(ctx, reputationIndex).Result()
	return int(n), err
}
