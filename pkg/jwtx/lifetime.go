package jwtx

import (
	"regexp"
	"strconv"
	"time"
)

var lifetimePattern = regexp.MustCompile(`^(\d+)([smhd])$`)

var lifetimeUnits = map[string]time.Duration{
	"s": time.Second,
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
}

// ParseLifetime parses token lifetime strings like "15m" or "7d". The "d"
// unit is why time.ParseDuration is not enough here. Returns fallback for
// anything unparseable.
func ParseLifetime(s string, fallback time.Duration) time.Duration {
	m := lifetimePattern.FindStringSubmatch(s)
	if m == nil {
		return fallback
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return fallback
	}

	return time.Duration(n) * lifetimeUnits[m[2]]
}
