package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/berat-eth/huglu-gateway/internal/gateway/domain"
	"github.com/berat-eth/huglu-gateway/pkg/idx"
)

const (
	// The ledger is capacity bounded: at maxEvents entries the oldest are
	// dropped so that trimTo remain. FIFO eviction keeps ordering intact
	// for the rolling 24h score.
	maxEvents = 10000
	trimTo    = 5000

	scoreWindow = 24 * time.Hour
)

// EventLog is the append-only, capacity-bounded record of every security
// decision the gateway makes. Events are held in memory; durable storage is
// an external concern.
type EventLog struct {
	Logger *slog.Logger
	Now    func() time.Time

	mu     sync.Mutex
	events []domain.SecurityEvent

	// sampler bounds how many events are mirrored to the console. The
	// ledger records everything; only the slog line is shed under a flood.
	sampler *rate.Limiter
}

func NewEventLog(logger *slog.Logger) *EventLog {
	return &EventLog{
		Logger:  logger,
		Now:     time.Now,
		sampler: rate.NewLimiter(rate.Limit(50), 100),
	}
}

// Log appends a security event to the ledger.
func (l *EventLog) Log(eventType domain.EventType, ip string, details map[string]any) domain.SecurityEvent {
	now := l.Now()
	event := domain.SecurityEvent{
		ID:        idx.NewAt(now.UTC()),
		Type:      eventType,
		IP:        ip,
		Timestamp: now,
		Details:   details,
		Severity:  domain.SeverityOf(eventType),
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	if len(l.events) > maxEvents {
		l.events = append([]domain.SecurityEvent(nil), l.events[len(l.events)-trimTo:]...)
	}
	l.mu.Unlock()

	if l.sampler.Allow() {
		l.Logger.Warn("security_event",
			"event_type", string(eventType),
			"ip", ip,
			"severity", string(event.Severity),
			"details", details,
		)
	}

	return event
}

// Len returns the number of retained events.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// SecurityScore computes the rolling score over the trailing 24h of events:
// start at 100, subtract 10 per high-severity event and 0.5 per event,
// clamped to [0, 100]. 100 means a quiet day.
func (l *EventLog) SecurityScore() float64 {
	cutoff := l.Now().Add(-scoreWindow)

	l.mu.Lock()
	var recent, high int
	for _, e := range l.events {
		if e.Timestamp.After(cutoff) {
			recent++
			if e.Severity == domain.SeverityHigh {
				high++
			}
		}
	}
	l.mu.Unlock()

	score := 100 - float64(high)*10 - float64(recent)*0.5
	return min(max(score, 0), 100)
}

// PatternCount pairs a detected attack pattern with its frequency.
type PatternCount struct {
	Pattern string `json:"pattern"`
	Count   int    `json:"count"`
}

// TopAttackPatterns returns the five most frequent detected pattern names
// across all retained history (not windowed).
func (l *EventLog) TopAttackPatterns() []PatternCount {
	counts := map[string]int{}

	l.mu.Lock()
	for _, e := range l.events {
		if e.Type != domain.EventAttackPatternDetected {
			continue
		}
		if pattern, ok := e.Details["pattern"].(string); ok {
			counts[pattern]++
		}
	}
	l.mu.Unlock()

	out := make([]PatternCount, 0, len(counts))
	for pattern, count := range counts {
		out = append(out, PatternCount{Pattern: pattern, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Pattern < out[j].Pattern
	})

	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

// Report summarizes the ledger for the security report endpoint.
type Report struct {
	TotalEvents        int            `json:"totalEvents"`
	RecentEvents       int            `json:"recentEvents"`
	HighSeverityEvents int            `json:"highSeverityEvents"`
	SuspiciousIPs      int            `json:"suspiciousIPs"`
	TopAttackPatterns  []PatternCount `json:"topAttackPatterns"`
	SecurityScore      float64        `json:"securityScore"`
}

// Report builds the rolling summary. suspiciousIPs is supplied by the caller
// from the reputation store.
func (l *EventLog) Report(suspiciousIPs int) Report {
	cutoff := l.Now().Add(-scoreWindow)

	l.mu.Lock()
	total := len(l.events)
	var recent, high int
	for _, e := range l.events {
		if e.Timestamp.After(cutoff) {
			recent++
			if e.Severity == domain.SeverityHigh {
				high++
			}
		}
	}
	l.mu.Unlock()

	return Report{
		TotalEvents:        total,
		RecentEvents:       recent,
		HighSeverityEvents: high,
		SuspiciousIPs:      suspiciousIPs,
		TopAttackPatterns:  l.TopAttackPatterns(),
		SecurityScore:      l.SecurityScore(),
	}
}
