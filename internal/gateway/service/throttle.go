package service

import (
	"context"
	"time"

	"github.com/berat-eth/huglu-gateway/internal/gateway/domain"
	"github.com/berat-eth/huglu-gateway/internal/gateway/store"
)

// ThrottleConfig tunes the progressive slow-down: once an IP exceeds
// DelayAfter requests inside Window, each further request waits
// DelayStep * (count - DelayAfter), capped at MaxDelay.
type ThrottleConfig struct {
	Window     time.Duration
	DelayAfter int
	DelayStep  time.Duration
	MaxDelay   time.Duration
}

// DefaultThrottleConfig mirrors the platform's production slow-down: after
// 50 requests in 15 minutes, add 500ms per extra request, up to 20s.
func DefaultThrottleConfig() ThrottleConfig {
	return ThrottleConfig{
		Window:     15 * time.Minute,
		DelayAfter: 50,
		DelayStep:  500 * time.Millisecond,
		MaxDelay:   20 * time.Second,
	}
}

// Throttle adds friction instead of rejecting: requests past the soft
// threshold are delayed, never denied. Its window counters are independent
// of the rate limiter's. The wait suspends only the current request's
// goroutine and aborts as soon as the request context is canceled.
type Throttle struct {
	Config  ThrottleConfig
	Buckets store.RateBuckets
	Events  *EventLog
	Now     func() time.Time

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewThrottle(cfg ThrottleConfig, buckets store.RateBuckets, events *EventLog) *Throttle {
	return &Throttle{
		Config:  cfg,
		Buckets: buckets,
		Events:  events,
		Now:     time.Now,
		sleep:   sleepCtx,
	}
}

// Delay records a hit for ip and, when over the soft threshold, blocks for
// the computed delay. It returns the delay applied; the error is non-nil
// only when ctx was canceled mid-wait.
func (t *Throttle) Delay(ctx context.Context, ip string) (time.Duration, error) {
	count, _, err := t.Buckets.Hit(ctx, "throttle:"+ip, t.Config.Window, t.Now())
	if err != nil {
		// The throttle is friction, not a gate: on a counter failure the
		// request proceeds undelayed rather than being denied.
		return 0, nil
	}

	over := count - t.Config.DelayAfter
	if over <= 0 {
		return 0, nil
	}

	delay := min(time.Duration(over)*t.Config.DelayStep, t.Config.MaxDelay)

	if over == 1 {
		t.Events.Log(domain.EventSlowDownTriggered, ip, map[string]any{
			"count":   count,
			"delayMs": delay.Milliseconds(),
		})
	}

	if err := t.sleep(ctx, delay); err != nil {
		return 0, err
	}
	return delay, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
