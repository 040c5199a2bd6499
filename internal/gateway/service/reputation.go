package service

import (
	"context"
	"errors"
	"time"

	"github.com/berat-eth/huglu-gateway/internal/gateway/domain"
	"github.com/berat-eth/huglu-gateway/internal/gateway/store"
)

// Reputation gates requests on a per-IP suspicion score. Scores only ever
// increase; see domain.Reputation for the no-decay note.
type Reputation struct {
	Store          store.Reputation
	BlockThreshold int
	WarnThreshold  int
	Now            func() time.Time
}

func NewReputation(st store.Reputation) *Reputation {
	return &Reputation{
		Store:          st,
		BlockThreshold: domain.DefaultBlockThreshold,
		WarnThreshold:  domain.DefaultWarnThreshold,
		Now:            time.Now,
	}
}

// Check classifies ip by its current score. Unseen IPs are allowed. A store
// failure fails closed: the caller treats the error as a denial.
func (r *Reputation) Check(ctx context.Context, ip string) (domain.ReputationStatus, error) {
	rec, err := r.Store.Get(ctx, ip)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ReputationAllowed, nil
		}
		return "", err
	}

	switch {
	case rec.Score > r.BlockThreshold:
		return domain.ReputationBlocked, nil
	case rec.Score > r.WarnThreshold:
		return domain.ReputationWarning, nil
	default:
		return domain.ReputationAllowed, nil
	}
}

// Increase adds points to ip's score and returns the new total.
func (r *Reputation) Increase(ctx context.Context, ip string, points int) (int, error) {
	return r.Store.Increase(ctx, ip, points, r.Now())
}
