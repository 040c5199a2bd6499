// Package store defines the shared security state the gateway mutates on
// every request: the token blacklist, per-IP reputation scores and
// fixed-window rate buckets. The memory driver is the default; the redis
// driver lets multiple gateway instances share state.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/berat-eth/huglu-gateway/internal/gateway/domain"
)

// ErrNotFound reports an absent record.
var ErrNotFound = errors.New("store: not found")

// Blacklist holds revoked token fingerprints and refresh-token ids until
// their natural expiry.
type Blacklist interface {
	// Add inserts key if absent and reports whether this call inserted it.
	// The insert is atomic: under concurrent double-submission of the same
	// refresh token exactly one caller sees true. Entries become eligible
	// for purging after expiresAt.
	Add(ctx context.Context, key string, expiresAt time.Time) (bool, error)

	// Contains reports whether key is blacklisted.
	Contains(ctx context.Context, key string) (bool, error)

	// Purge removes entries whose expiry is before now and returns how many
	// were removed. Drivers with native TTLs may make this a no-op.
	Purge(ctx context.Context, now time.Time) (int, error)
}

// Reputation accumulates per-IP suspicion scores. Scores are monotonic;
// there is deliberately no decrease or delete operation.
type Reputation interface {
	// Increase adds points to ip's score and returns the new score.
	Increase(ctx context.Context, ip string, points int, now time.Time) (int, error)

	// Get returns the record for ip, or ErrNotFound if never observed.
	Get(ctx context.Context, ip string) (domain.Reputation, error)

	// Len returns the number of tracked IPs.
	Len(ctx context.Context) (int, error)
}

// RateBuckets maintains fixed-window counters keyed by (tier, identity).
type RateBuckets interface {
	// Hit increments the counter for key, starting a fresh window (count=1)
	// when none exists or the current one has elapsed. It returns the count
	// within the window and when the window resets. A hit arriving exactly
	// at the boundary belongs to the new window.
	Hit(ctx context.Context, key string, window time.Duration, now time.Time) (count int, reset time.Time, err error)

	// Refund undoes one hit for key within the current window. Used by
	// tiers that only count failed requests.
	Refund(ctx context.Context, key string) error

	// Purge drops buckets whose window elapsed before now and returns how
	// many were removed.
	Purge(ctx context.Context, now time.Time) (int, error)
}

// Store aggregates the three security state collections.
type Store interface {
	Blacklist() Blacklist
	Reputation() Reputation
	RateBuckets() RateBuckets
	Close() error
}
