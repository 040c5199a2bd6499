package domain

import "time"

// Tier is a named rate-limit configuration applied to a class of routes.
// Tiers are declarative: identity derivation (which user/order/admin id is
// appended to the IP) lives in the HTTP layer's key functions.
type Tier struct {
	Name   string
	Window time.Duration
	Max    int

	// SkipPrivate exempts loopback/RFC1918 callers from this tier.
	SkipPrivate bool

	// SkipSuccessful refunds the hit when the downstream response is 2xx.
	// Used by the login tier so only failed attempts count.
	SkipSuccessful bool

	// ExceededEvent is the ledger event logged on rejection. Defaults to
	// RATE_LIMIT_EXCEEDED; the login tier logs BRUTE_FORCE_ATTEMPT.
	ExceededEvent EventType
}

// Event returns the ledger event type for a rejection on this tier.
func (t Tier) Event() EventType {
	if t.ExceededEvent != "" {
		return t.ExceededEvent
	}
	return EventRateLimitExceeded
}

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed bool

	// RetryAfter is the remaining window time when not allowed.
	RetryAfter time.Duration
}

// Tier names used by the default route map.
const (
	TierLogin          = "login"
	TierSQLQuery       = "sql-query"
	TierWalletTransfer = "wallet-transfer"
	TierPayment        = "payment"
	TierGiftCard       = "gift-card"
	TierAdminWallet    = "admin-wallet"
	TierAdmin          = "admin"
	TierCritical       = "critical"
	TierSuspiciousIP   = "suspicious-ip"
	TierGeneral        = "general"
)

// DefaultTiers returns the built-in tier table. Values mirror the platform's
// production limits: financial endpoints get very low per-identity ceilings,
// login counts only failures, and the suspicious-ip tier is a broad backstop
// that can be disabled by configuration.
func DefaultTiers() map[string]Tier {
	return map[string]Tier{
		TierLogin: {
			Name:           TierLogin,
			Window:         15 * time.Minute,
			Max:            5,
			SkipSuccessful: true,
			ExceededEvent:  EventBruteForceAttempt,
		},
		TierSQLQuery:       {Name: TierSQLQuery, Window: time.Minute, Max: 5, SkipPrivate: true},
		TierWalletTransfer: {Name: TierWalletTransfer, Window: time.Minute, Max: 10, SkipPrivate: true},
		TierPayment:        {Name: TierPayment, Window: time.Minute, Max: 5, SkipPrivate: true},
		TierGiftCard:       {Name: TierGiftCard, Window: time.Minute, Max: 10, SkipPrivate: true},
		TierAdminWallet:    {Name: TierAdminWallet, Window: time.Minute, Max: 5, SkipPrivate: true},
		TierAdmin:          {Name: TierAdmin, Window: 15 * time.Minute, Max: 100},
		TierCritical:       {Name: TierCritical, Window: time.Minute, Max: 10},
		TierSuspiciousIP:   {Name: TierSuspiciousIP, Window: 15 * time.Minute, Max: 50, SkipPrivate: true},
		TierGeneral:        {Name: TierGeneral, Window: 15 * time.Minute, Max: 100},
	}
}
