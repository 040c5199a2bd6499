package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/berat-eth/huglu-gateway/internal/gateway/domain"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEventLogAppends(t *testing.T) {
	t.Parallel()

	l := NewEventLog(testLogger())

	event := l.Log(domain.EventRateLimitExceeded, "203.0.113.1", map[string]any{"tier": "login"})
	require.False(t, event.ID.IsZero())
	require.Equal(t, domain.EventRateLimitExceeded, event.Type)
	require.Equal(t, domain.SeverityMedium, event.Severity)
	require.Equal(t, 1, l.Len())
}

func TestEventLogTrimsAtCapacity(t *testing.T) {
	t.Parallel()

	l := NewEventLog(testLogger())

	for range maxEvents + 1 {
		l.Log(domain.EventSlowDownTriggered, "203.0.113.1", nil)
	}

	// Crossing the cap drops the oldest half.
	require.Equal(t, trimTo, l.Len())
}

func TestSecurityScore(t *testing.T) {
	t.Parallel()

	t.Run("quiet ledger scores 100", func(t *testing.T) {
		l := NewEventLog(testLogger())
		require.Equal(t, 100.0, l.SecurityScore())
	})

	t.Run("high severity events cost 10 plus the per-event half point", func(t *testing.T) {
		l := NewEventLog(testLogger())
		l.Log(domain.EventAttackPatternDetected, "203.0.113.1", nil)
		require.Equal(t, 89.5, l.SecurityScore())

		l.Log(domain.EventSlowDownTriggered, "203.0.113.1", nil)
		require.Equal(t, 89.0, l.SecurityScore())
	})

	t.Run("clamps at zero", func(t *testing.T) {
		l := NewEventLog(testLogger())
		for range 20 {
			l.Log(domain.EventAttackPatternDetected, "203.0.113.1", nil)
		}
		require.Equal(t, 0.0, l.SecurityScore())
	})

	t.Run("ignores events older than the window", func(t *testing.T) {
		l := NewEventLog(testLogger())

		current := time.Now()
		l.Now = func() time.Time { return current }

		l.Log(domain.EventAttackPatternDetected, "203.0.113.1", nil)
		current = current.Add(25 * time.Hour)

		require.Equal(t, 100.0, l.SecurityScore())
	})
}

func TestTopAttackPatterns(t *testing.T) {
	t.Parallel()

	l := NewEventLog(testLogger())

	patterns := map[string]int{
		"SQL_INJECTION":     4,
		"XSS_ATTACK":        3,
		"PATH_TRAVERSAL":    2,
		"COMMAND_INJECTION": 2,
		"LDAP_INJECTION":    1,
		"OTHER_PATTERN":     1,
	}
	for pattern, n := range patterns {
		for range n {
			l.Log(domain.EventAttackPatternDetected, "203.0.113.1", map[string]any{"pattern": pattern})
		}
	}

	// Non-detection events never count.
	l.Log(domain.EventRateLimitExceeded, "203.0.113.1", map[string]any{"pattern": "SQL_INJECTION"})

	top := l.TopAttackPatterns()
	require.Len(t, top, 5)
	require.Equal(t, PatternCount{Pattern: "SQL_INJECTION", Count: 4}, top[0])
	require.Equal(t, PatternCount{Pattern: "XSS_ATTACK", Count: 3}, top[1])

	// Ties break alphabetically.
	require.Equal(t, "COMMAND_INJECTION", top[2].Pattern)
	require.Equal(t, "PATH_TRAVERSAL", top[3].Pattern)
}

func TestReport(t *testing.T) {
	t.Parallel()

	l := NewEventLog(testLogger())

	current := time.Now()
	l.Now = func() time.Time { return current }

	l.Log(domain.EventAttackPatternDetected, "203.0.113.1", map[string]any{"pattern": "XSS_ATTACK"})
	current = current.Add(25 * time.Hour)
	l.Log(domain.EventRateLimitExceeded, "203.0.113.2", nil)

	report := l.Report(7)
	require.Equal(t, 2, report.TotalEvents)
	require.Equal(t, 1, report.RecentEvents)
	require.Equal(t, 0, report.HighSeverityEvents)
	require.Equal(t, 7, report.SuspiciousIPs)
	require.Equal(t, []PatternCount{{Pattern: "XSS_ATTACK", Count: 1}}, report.TopAttackPatterns)
	require.Equal(t, 99.5, report.SecurityScore)
}
