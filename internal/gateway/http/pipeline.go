package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/berat-eth/huglu-gateway/internal/gateway/domain"
	"github.com/berat-eth/huglu-gateway/internal/gateway/service"
	"github.com/berat-eth/huglu-gateway/pkg/httpx"
	"github.com/berat-eth/huglu-gateway/pkg/jwtx"
	"github.com/berat-eth/huglu-gateway/pkg/slogx"
)

// Route declares what the pipeline enforces for a class of endpoints.
type Route struct {
	// Tier names the rate-limit tier; empty means the general tier.
	Tier string

	// Key supplies the secondary identity dimension for the tier's bucket
	// key. Nil keys by IP alone.
	Key KeyFunc

	// RequireAuth demands a valid bearer access token.
	RequireAuth bool

	// Roles allows any of the listed roles. Empty allows all.
	Roles []string

	// Permissions requires every listed permission. Empty requires none.
	Permissions []string
}

// Pipeline composes the security services into the per-request check chain:
// reputation, size, threat detection, rate limiting, throttle, token
// verification, role/permission check. The first failing stage rejects the
// request; every rejection is recorded in the event ledger.
type Pipeline struct {
	Tokens     *service.TokenService
	Detector   *service.Detector
	Limiter    *service.RateLimiter
	Throttle   *service.Throttle
	Reputation *service.Reputation
	Events     *service.EventLog
	Logger     *slog.Logger

	Tiers map[string]domain.Tier

	// MaxBodyBytes rejects larger payloads with 413 before they are read.
	MaxBodyBytes int64

	// MobileMultiplier raises the general tier's ceiling for requests
	// identifying as mobile via X-Client-Type. Identities branch into
	// mobile:<ip> / web:<ip> buckets so the tier config stays declarative.
	MobileMultiplier int

	// SuspiciousIPDisabled turns off the broad backstop tier entirely.
	// This is the one configured bypass; everything else fails closed.
	SuspiciousIPDisabled bool
}

// Protect wraps next with the full check chain for route.
func (p *Pipeline) Protect(route Route, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := slogx.FromContext(ctx)
		ip := httpx.ClientIP(r)

		// 1. Reputation gate.
		status, err := p.Reputation.Check(ctx, ip)
		if err != nil {
			log.Error("reputation check failed", "ip", ip, "error", err)
			httpx.WriteError(w, http.StatusForbidden, "Access denied")
			return
		}
		switch status {
		case domain.ReputationBlocked:
			p.Events.Log(domain.EventSuspiciousActivity, ip, map[string]any{
				"path":   r.URL.Path,
				"reason": "high risk ip blocked",
			})
			httpx.WriteError(w, http.StatusForbidden, "Access denied: High risk IP")
			return
		case domain.ReputationWarning:
			p.Events.Log(domain.EventSuspiciousActivity, ip, map[string]any{
				"path":   r.URL.Path,
				"reason": "suspicious ip",
			})
		}

		// 2. Size cap, before buffering anything.
		if r.ContentLength > p.MaxBodyBytes {
			p.Events.Log(domain.EventRequestTooLarge, ip, map[string]any{
				"path":          r.URL.Path,
				"contentLength": r.ContentLength,
				"max":           p.MaxBodyBytes,
			})
			httpx.WriteError(w, http.StatusRequestEntityTooLarge, "Request too large")
			return
		}

		// Buffer the body once; the detector and key functions both need
		// it, and downstream still gets an intact reader.
		body, err := io.ReadAll(io.LimitReader(r.Body, p.MaxBodyBytes+1))
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "Unreadable request body")
			return
		}
		if int64(len(body)) > p.MaxBodyBytes {
			p.Events.Log(domain.EventRequestTooLarge, ip, map[string]any{
				"path": r.URL.Path,
				"max":  p.MaxBodyBytes,
			})
			httpx.WriteError(w, http.StatusRequestEntityTooLarge, "Request too large")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		// 3. Threat detection.
		result := p.Detector.Scan(ctx, service.ScanInput{
			IP:           ip,
			URL:          r.URL.RequestURI(),
			Query:        r.URL.Query(),
			Body:         body,
			UserAgent:    r.Header.Get("User-Agent"),
			ForwardedFor: r.Header.Get("X-Forwarded-For"),
		})
		if result.Detected {
			log.Warn("attack pattern detected", "ip", ip, "pattern", result.Pattern)
			// Deliberately generic: never echo which signature matched.
			httpx.WriteError(w, http.StatusBadRequest, "Suspicious request detected")
			return
		}

		// 4. Broad suspicious-IP backstop, then the route's tier.
		if !p.SuspiciousIPDisabled {
			if !p.allowTier(ctx, w, p.tier(domain.TierSuspiciousIP), ip, ip) {
				return
			}
		}

		tier, key := p.routeTier(r, route, ip, body)
		if !p.allowTier(ctx, w, tier, ip, key) {
			return
		}

		// 5. Progressive throttle: friction, not rejection.
		if _, err := p.Throttle.Delay(ctx, ip); err != nil {
			// Client went away mid-delay; nothing to answer.
			return
		}

		// 6./7. Token verification and role/permission checks.
		if route.RequireAuth {
			claims, raw, ok := p.authenticate(w, r, ip)
			if !ok {
				return
			}
			if !p.authorize(w, r, route, claims, ip) {
				return
			}

			identity := domain.Identity{
				Subject:     claims.Subject,
				TenantID:    claims.TenantID,
				Role:        claims.Role,
				Permissions: claims.Permissions,
			}
			r = r.WithContext(contextWithIdentity(ctx, identity, raw))
		}

		// 8. Forward, refunding the tier hit on success where configured.
		if tier.SkipSuccessful {
			rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			if rec.status < 400 {
				if err := p.Limiter.Refund(r.Context(), tier, key); err != nil {
					log.Error("rate limit refund failed", "tier", tier.Name, "error", err)
				}
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}

// routeTier resolves the route's tier and composite bucket key, applying the
// mobile/web branch on the general tier.
func (p *Pipeline) routeTier(r *http.Request, route Route, ip string, body []byte) (domain.Tier, string) {
	name := route.Tier
	if name == "" {
		name = domain.TierGeneral
	}
	tier := p.tier(name)

	key := ip
	if route.Key != nil {
		key = ip + ":" + route.Key(r, body)
	}

	if name == domain.TierGeneral {
		if strings.EqualFold(r.Header.Get("X-Client-Type"), "mobile") {
			key = "mobile:" + key
			if p.MobileMultiplier > 1 {
				tier.Max *= p.MobileMultiplier
			}
		} else {
			key = "web:" + key
		}
	}

	return tier, key
}

func (p *Pipeline) tier(name string) domain.Tier {
	if t, ok := p.Tiers[name]; ok {
		return t
	}
	// Unknown tier names fail closed onto the general tier rather than
	// skipping rate limiting altogether.
	return p.Tiers[domain.TierGeneral]
}

// allowTier runs one tier check and writes the 429 on rejection. A limiter
// malfunction fails closed: the request is denied, never waved through.
func (p *Pipeline) allowTier(ctx context.Context, w http.ResponseWriter, tier domain.Tier, ip, key string) bool {
	decision, err := p.Limiter.Allow(ctx, tier, ip, key)
	if err != nil {
		p.Logger.Error("rate limiter failure", "tier", tier.Name, "error", err)
		writeRateLimited(w, int64(tier.Window.Seconds()))
		return false
	}

	if !decision.Allowed {
		retryAfter := int64(decision.RetryAfter.Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		writeRateLimited(w, retryAfter)
		return false
	}

	return true
}

// authenticate parses and verifies the bearer token. External responses are
// generic; the concrete failure is logged with an internal reason code.
func (p *Pipeline) authenticate(w http.ResponseWriter, r *http.Request, ip string) (jwtx.Claims, string, bool) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		p.Events.Log(domain.EventUnauthorizedAccess, ip, map[string]any{
			"path":   r.URL.Path,
			"reason": "missing bearer token",
		})
		httpx.WriteError(w, http.StatusUnauthorized, "Authorization header required")
		return jwtx.Claims{}, "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

	claims, err := p.Tokens.VerifyAccess(ctx, raw)
	if err != nil {
		log.Warn("access token rejected", "ip", ip, "reason", reasonCode(err))
		p.Events.Log(domain.EventUnauthorizedAccess, ip, map[string]any{
			"path":   r.URL.Path,
			"reason": reasonCode(err),
		})
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
		return jwtx.Claims{}, "", false
	}

	return claims, raw, true
}

// authorize applies the route's role and permission requirements.
func (p *Pipeline) authorize(w http.ResponseWriter, r *http.Request, route Route, claims jwtx.Claims, ip string) bool {
	if len(route.Roles) > 0 && !slices.Contains(route.Roles, claims.Role) {
		p.Events.Log(domain.EventUnauthorizedAccess, ip, map[string]any{
			"path":   r.URL.Path,
			"reason": "insufficient role",
			"role":   claims.Role,
		})
		httpx.WriteError(w, http.StatusForbidden, "Insufficient permissions")
		return false
	}

	for _, perm := range route.Permissions {
		if !slices.Contains(claims.Permissions, perm) {
			p.Events.Log(domain.EventUnauthorizedAccess, ip, map[string]any{
				"path":     r.URL.Path,
				"reason":   "missing permission",
				"required": perm,
			})
			httpx.WriteError(w, http.StatusForbidden, "Insufficient permissions")
			return false
		}
	}

	return true
}

// reasonCode maps verification errors to internal log codes without leaking
// them to the client.
func reasonCode(err error) string {
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return "token_expired"
	case errors.Is(err, jwtx.ErrWrongType):
		return "wrong_token_type"
	case errors.Is(err, service.ErrRevoked):
		return "token_revoked"
	default:
		return "token_malformed"
	}
}

type recordingWriter struct {
	http.ResponseWriter

	status int
}

func (w *recordingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func writeRateLimited(w http.ResponseWriter, retryAfter int64) {
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	httpx.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
		"success":    false,
		"message":    "Too many requests from this IP",
		"retryAfter": retryAfter,
	})
}
