package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/berat-eth/huglu-gateway/internal/gateway/store"
)

// Sweeper periodically purges expired blacklist entries, elapsed rate
// buckets and the token service's seen index, off the request path. The
// reference behavior never purged anything; this is a documented improvement
// to bound memory, not a behavior change visible to requests. Reputation
// records are intentionally left alone: scores do not decay.
type Sweeper struct {
	Blacklist store.Blacklist
	Buckets   store.RateBuckets
	Tokens    *TokenService
	Logger    *slog.Logger
	Interval  time.Duration
	Now       func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSweeper creates a sweeper. A non-positive interval defaults to 10m.
func NewSweeper(bl store.Blacklist, buckets store.RateBuckets, tokens *TokenService, logger *slog.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	return &Sweeper{
		Blacklist: bl,
		Buckets:   buckets,
		Tokens:    tokens,
		Logger:    logger,
		Interval:  interval,
		Now:       time.Now,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the background worker. Non-blocking; call Stop to shut it
// down.
func (s *Sweeper) Start() {
	go s.run()
	s.Logger.Info("sweeper started", "interval", s.Interval)
}

// Stop shuts the worker down and blocks until any in-progress sweep ends.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("sweeper stopped")
}

func (s *Sweeper) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep performs one purge pass. Failures in one collection don't stop the
// others.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := s.Now()

	blacklisted, err := s.Blacklist.Purge(ctx, now)
	if err != nil {
		s.Logger.Error("blacklist purge failed", "error", err)
	}

	buckets, err := s.Buckets.Purge(ctx, now)
	if err != nil {
		s.Logger.Error("rate bucket purge failed", "error", err)
	}

	seen := 0
	if s.Tokens != nil {
		seen = s.Tokens.PurgeSeen(now)
	}

	s.Logger.Debug("sweep completed",
		"blacklist_purged", blacklisted,
		"buckets_purged", buckets,
		"seen_tokens_purged", seen,
	)
}
