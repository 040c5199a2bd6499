package domain

import "time"

// ReputationStatus is the gate decision derived from an IP's score.
type ReputationStatus string

const (
	ReputationAllowed ReputationStatus = "allowed"
	ReputationWarning ReputationStatus = "warning"
	ReputationBlocked ReputationStatus = "blocked"
)

// Default score thresholds: score > 100 blocks, score > 50 warns.
const (
	DefaultBlockThreshold = 100
	DefaultWarnThreshold  = 50
)

// Reputation is a per-IP suspicion record. Scores only ever increase; there
// is no decay routine. Whether permanent penalization is intended is an open
// question inherited from the reference behavior, so the background sweeper
// leaves these records alone.
type Reputation struct {
	IP       string
	Score    int
	LastSeen time.Time
}
