package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/berat-eth/huglu-gateway/internal/gateway/domain"
	"github.com/berat-eth/huglu-gateway/internal/gateway/store"
	"github.com/berat-eth/huglu-gateway/pkg/idx"
	"github.com/berat-eth/huglu-gateway/pkg/jwtx"
)

// ErrRevoked reports a blacklisted token, including a refresh token that has
// already been rotated.
var ErrRevoked = errors.New("gateway: token revoked")

// Blacklist key prefixes. Raw-token revocations and refresh jti revocations
// share one blacklist but never collide.
const (
	rawKeyPrefix = "tok:"
	jtiKeyPrefix = "jti:"
)

// TokenService issues, verifies, rotates and revokes the gateway's signed
// tokens. Refresh tokens are single use: rotation blacklists the presented
// token's jti atomically, so concurrent double-submission has exactly one
// winner.
type TokenService struct {
	Blacklist  store.Blacklist
	Logger     *slog.Logger
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time

	accessSigner    *jwtx.Signer
	refreshSigner   *jwtx.Signer
	accessVerifier  *jwtx.Verifier
	refreshVerifier *jwtx.Verifier

	// seen indexes fingerprints of tokens this process has issued or
	// verified, per subject. RevokeAllForSubject can only reach these; a
	// shared blacklist store is needed for true session-wide invalidation.
	seenMu sync.Mutex
	seen   map[string]map[string]time.Time // subject -> fingerprint -> expiry
}

// NewTokenService wires signers and verifiers for both token types.
// Access and refresh tokens use independent secrets, so one leaked secret
// never compromises both flows.
func NewTokenService(bl store.Blacklist, logger *slog.Logger, accessSecret, refreshSecret []byte, issuer, audience string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		Blacklist:       bl,
		Logger:          logger,
		Issuer:          issuer,
		Audience:        audience,
		AccessTTL:       accessTTL,
		RefreshTTL:      refreshTTL,
		Now:             time.Now,
		accessSigner:    jwtx.NewSigner(accessSecret),
		refreshSigner:   jwtx.NewSigner(refreshSecret),
		accessVerifier:  jwtx.NewVerifier(accessSecret, issuer, audience, jwtx.TypeAccess),
		refreshVerifier: jwtx.NewVerifier(refreshSecret, issuer, audience, jwtx.TypeRefresh),
	}
}

// IssuePair issues an access/refresh pair for id. The refresh token carries
// a fresh unique id (jti) used later to enforce single use.
func (s *TokenService) IssuePair(ctx context.Context, id domain.Identity) (domain.TokenPair, error) {
	now := s.Now()

	access, err := s.accessSigner.Sign(jwtx.NewAccessClaims(
		id.Subject, id.TenantID, id.Role, id.Permissions,
		s.AccessTTL, s.Issuer, s.Audience, now,
	))
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh, err := s.refreshSigner.Sign(jwtx.NewRefreshClaims(
		id.Subject, id.TenantID, id.Role, id.Permissions,
		s.RefreshTTL, s.Issuer, s.Audience, idx.New().String(), now,
	))
	if err != nil {
		return domain.TokenPair{}, err
	}

	s.recordSeen(id.Subject, access, now.Add(s.AccessTTL))
	s.recordSeen(id.Subject, refresh, now.Add(s.RefreshTTL))

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.AccessTTL.Seconds()),
	}, nil
}

// VerifyAccess validates an access token: signature, issuer, audience,
// expiry, blacklist, type tag. The error distinguishes the failing check for
// internal logging only.
func (s *TokenService) VerifyAccess(ctx context.Context, raw string) (jwtx.Claims, error) {
	return s.verify(ctx, s.accessVerifier, raw)
}

// VerifyRefresh is VerifyAccess for refresh tokens. It additionally rejects
// tokens whose jti has been consumed by a previous rotation.
func (s *TokenService) VerifyRefresh(ctx context.Context, raw string) (jwtx.Claims, error) {
	claims, err := s.verify(ctx, s.refreshVerifier, raw)
	if err != nil {
		return jwtx.Claims{}, err
	}

	if claims.ID != "" {
		revoked, err := s.Blacklist.Contains(ctx, jtiKeyPrefix+claims.ID)
		if err != nil {
			return jwtx.Claims{}, err
		}
		if revoked {
			return jwtx.Claims{}, ErrRevoked
		}
	}

	return claims, nil
}

func (s *TokenService) verify(ctx context.Context, v *jwtx.Verifier, raw string) (jwtx.Claims, error) {
	claims, err := v.Verify(raw)
	if err != nil {
		return jwtx.Claims{}, err
	}

	revoked, err := s.Blacklist.Contains(ctx, rawKeyPrefix+fingerprint(raw))
	if err != nil {
		return jwtx.Claims{}, err
	}
	if revoked {
		return jwtx.Claims{}, ErrRevoked
	}

	s.recordSeen(claims.Subject, raw, expiryOf(claims, s.Now().Add(s.RefreshTTL)))
	return claims, nil
}

// Rotate exchanges a refresh token for a new pair, consuming it. The
// blacklist insert of the jti is the atomic step: the caller that wins the
// insert issues the new pair, any concurrent loser gets ErrRevoked.
func (s *TokenService) Rotate(ctx context.Context, refreshRaw string) (domain.TokenPair, error) {
	claims, err := s.VerifyRefresh(ctx, refreshRaw)
	if err != nil {
		return domain.TokenPair{}, err
	}

	key := jtiKeyPrefix + claims.ID
	if claims.ID == "" {
		// Tokens minted before jtis existed can only be consumed by raw value.
		key = rawKeyPrefix + fingerprint(refreshRaw)
	}

	inserted, err := s.Blacklist.Add(ctx, key, expiryOf(claims, s.Now().Add(s.RefreshTTL)))
	if err != nil {
		return domain.TokenPair{}, err
	}
	if !inserted {
		s.Logger.Warn("refresh token replayed", "subject", claims.Subject)
		return domain.TokenPair{}, ErrRevoked
	}

	return s.IssuePair(ctx, domain.Identity{
		Subject:     claims.Subject,
		TenantID:    claims.TenantID,
		Role:        claims.Role,
		Permissions: claims.Permissions,
	})
}

// Revoke blacklists raw until its natural expiry, regardless of type. For a
// refresh token the jti is blacklisted as well, so neither the raw string
// nor a rotation attempt survives.
func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	expiry := s.Now().Add(s.RefreshTTL)
	var jti string
	if claims, err := jwtx.DecodeUnverified(raw); err == nil {
		expiry = expiryOf(claims, expiry)
		if claims.TokenType == jwtx.TypeRefresh {
			jti = claims.ID
		}
	}

	if _, err := s.Blacklist.Add(ctx, rawKeyPrefix+fingerprint(raw), expiry); err != nil {
		return err
	}
	if jti != "" {
		if _, err := s.Blacklist.Add(ctx, jtiKeyPrefix+jti, expiry); err != nil {
			return err
		}
	}
	return nil
}

// RevokeAllForSubject blacklists every token of subject this process has
// seen. In a single-process deployment tokens issued elsewhere (or before a
// restart) are out of reach; that limitation is inherent to the in-memory
// seen index and is surfaced rather than hidden.
func (s *TokenService) RevokeAllForSubject(ctx context.Context, subject string) (int, error) {
	s.seenMu.Lock()
	fingerprints := make(map[string]time.Time, len(s.seen[subject]))
	for fp, expiry := range s.seen[subject] {
		fingerprints[fp] = expiry
	}
	s.seenMu.Unlock()

	revoked := 0
	for fp, expiry := range fingerprints {
		if _, err := s.Blacklist.Add(ctx, rawKeyPrefix+fp, expiry); err != nil {
			return revoked, err
		}
		revoked++
	}

	s.Logger.Info("revoked all seen tokens for subject", "subject", subject, "count", revoked)
	return revoked, nil
}

// PurgeSeen drops expired entries from the seen-token index. Called by the
// background sweeper.
func (s *TokenService) PurgeSeen(now time.Time) int {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()

	removed := 0
	for subject, tokens := range s.seen {
		for fp, expiry := range tokens {
			if expiry.Before(now) {
				delete(tokens, fp)
				removed++
			}
		}
		if len(tokens) == 0 {
			delete(s.seen, subject)
		}
	}
	return removed
}

func (s *TokenService) recordSeen(subject, raw string, expiry time.Time) {
	if subject == "" {
		return
	}

	s.seenMu.Lock()
	defer s.seenMu.Unlock()

	if s.seen == nil {
		s.seen = make(map[string]map[string]time.Time)
	}
	if s.seen[subject] == nil {
		s.seen[subject] = make(map[string]time.Time)
	}
	s.seen[subject][fingerprint(raw)] = expiry
}

// fingerprint returns a deterministic base64url SHA-256 of a raw token, so
// the blacklist never stores bearer credentials verbatim.
func fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func expiryOf(claims jwtx.Claims, fallback time.Time) time.Time {
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return fallback
}
