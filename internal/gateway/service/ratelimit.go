package service

import (
	"context"
	"time"

	"github.com/berat-eth/huglu-gateway/internal/gateway/domain"
	"github.com/berat-eth/huglu-gateway/internal/gateway/store"
	"github.com/berat-eth/huglu-gateway/pkg/httpx"
)

// RateLimiter applies fixed-window counting per (tier, identity) key.
type RateLimiter struct {
	Buckets store.RateBuckets
	Events  *EventLog
	Now     func() time.Time
}

func NewRateLimiter(buckets store.RateBuckets, events *EventLog) *RateLimiter {
	return &RateLimiter{
		Buckets: buckets,
		Events:  events,
		Now:     time.Now,
	}
}

// Allow records a hit for key on tier and decides the request. Private IPs
// pass untouched on tiers that exempt them. A max of 0 denies the first hit
// of every window. Denials are logged to the event ledger with the tier's
// configured event type.
func (l *RateLimiter) Allow(ctx context.Context, tier domain.Tier, ip, key string) (domain.Decision, error) {
	if tier.SkipPrivate && httpx.IsPrivateIP(ip) {
		return domain.Decision{Allowed: true}, nil
	}

	now := l.Now()
	count, reset, err := l.Buckets.Hit(ctx, tier.Name+":"+key, tier.Window, now)
	if err != nil {
		return domain.Decision{}, err
	}

	if count > tier.Max {
		retryAfter := reset.Sub(now)
		l.Events.Log(tier.Event(), ip, map[string]any{
			"tier":       tier.Name,
			"key":        key,
			"count":      count,
			"max":        tier.Max,
			"retryAfter": retryAfter.Seconds(),
		})
		return domain.Decision{Allowed: false, RetryAfter: retryAfter}, nil
	}

	return domain.Decision{Allowed: true}, nil
}

// Refund undoes one hit, for tiers that skip successful requests.
func (l *RateLimiter) Refund(ctx context.Context, tier domain.Tier, key string) error {
	return l.Buckets.Refund(ctx, tier.Name+":"+key)
}
