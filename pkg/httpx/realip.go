package httpx

import (
	"net"
	"net/http"
	"regexp"
	"strings"
)

// ClientIP extracts the client IP address from the request. It honors
// X-Forwarded-For (first hop) and X-Real-IP for proxied requests and falls
// back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// privateIPPattern matches loopback and RFC1918 ranges. Rate-limit tiers can
// exempt these so internal callers and health checks are never throttled.
var privateIPPattern = regexp.MustCompile(`^(::1|127\.|10\.|192\.168\.|172\.(1[6-9]|2\d|3[0-1])\.)`)

// IsPrivateIP reports whether ip is loopback or in a private range.
func IsPrivateIP(ip string) bool {
	if ip == "" {
		return false
	}
	return privateIPPattern.MatchString(ip)
}
