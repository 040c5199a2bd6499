// Package domain defines the gateway's core types: security events, IP
// reputation, rate-limit tiers and token pairs. It has no dependencies on
// transport or storage.
package domain

import (
	"time"

	"github.com/berat-eth/huglu-gateway/pkg/idx"
)

// EventType names a class of security decision recorded in the event ledger.
type EventType string

const (
	EventRateLimitExceeded     EventType = "RATE_LIMIT_EXCEEDED"
	EventSlowDownTriggered     EventType = "SLOW_DOWN_TRIGGERED"
	EventAttackPatternDetected EventType = "ATTACK_PATTERN_DETECTED"
	EventRequestTooLarge       EventType = "REQUEST_TOO_LARGE"
	EventSuspiciousActivity    EventType = "SUSPICIOUS_ACTIVITY"
	EventUnauthorizedAccess    EventType = "UNAUTHORIZED_ACCESS"
	EventBruteForceAttempt     EventType = "BRUTE_FORCE_ATTEMPT"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

var eventSeverity = map[EventType]Severity{
	EventRateLimitExceeded:     SeverityMedium,
	EventSlowDownTriggered:     SeverityLow,
	EventAttackPatternDetected: SeverityHigh,
	EventRequestTooLarge:       SeverityMedium,
	EventSuspiciousActivity:    SeverityHigh,
	EventUnauthorizedAccess:    SeverityHigh,
	EventBruteForceAttempt:     SeverityHigh,
}

// SeverityOf maps an event type to its severity. Unknown types are low.
func SeverityOf(t EventType) Severity {
	if s, ok := eventSeverity[t]; ok {
		return s
	}
	return SeverityLow
}

// SecurityEvent is one append-only entry in the security ledger.
type SecurityEvent struct {
	ID        idx.ID         `json:"id"`
	Type      EventType      `json:"eventType"`
	IP        string         `json:"ip"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
	Severity  Severity       `json:"severity"`
}
