// Package jwtx implements the gateway's signed-token format: HS256 JWTs with
// a type tag distinguishing short-lived access tokens from single-use refresh
// tokens. Access and refresh tokens are signed with independent secrets.
package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. Short access tokens limit the blast radius of a leaked
// bearer credential; refresh tokens live longer but are single-use.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenType tags a token as access or refresh. Verification rejects tokens
// presented against the wrong flow even when the signature is valid.
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

// Claims are the claims embedded in every gateway token.
type Claims struct {
	jwt.RegisteredClaims

	// TenantID scopes the subject to a storefront tenant.
	TenantID string `json:"tenantId,omitempty"`

	// Role is the subject's coarse role ("customer", "admin", ...).
	Role string `json:"role,omitempty"`

	// Permissions are fine-grained grants checked per route.
	Permissions []string `json:"permissions,omitempty"`

	// TokenType is "access" or "refresh".
	TokenType TokenType `json:"type"`
}

// NewAccessClaims builds claims for a short-lived access token.
func NewAccessClaims(subject, tenantID, role string, permissions []string, ttl time.Duration, issuer, audience string, now time.Time) Claims {
	return newClaims(subject, tenantID, role, permissions, ttl, issuer, audience, now, TypeAccess, "")
}

// NewRefreshClaims builds claims for a refresh token. The jti must be unique
// per token; rotation blacklists it to enforce single use.
func NewRefreshClaims(subject, tenantID, role string, permissions []string, ttl time.Duration, issuer, audience, jti string, now time.Time) Claims {
	return newClaims(subject, tenantID, role, permissions, ttl, issuer, audience, now, TypeRefresh, jti)
}

func newClaims(subject, tenantID, role string, permissions []string, ttl time.Duration, issuer, audience string, now time.Time, typ TokenType, jti string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
		TenantID:    tenantID,
		Role:        role,
		Permissions: permissions,
		TokenType:   typ,
	}
}
