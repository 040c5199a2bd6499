package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed covers every verification failure that is not an expiry:
	// bad structure, bad signature, wrong issuer or audience. Callers log the
	// wrapped detail but must never surface which check failed.
	ErrMalformed = errors.New("jwtx: malformed token")

	// ErrExpired reports a token past its exp (or before its nbf).
	ErrExpired = errors.New("jwtx: token expired")

	// ErrWrongType reports a token presented against the wrong flow, e.g. a
	// refresh token on the access path.
	ErrWrongType = errors.New("jwtx: wrong token type")
)

// Signer signs claims with a shared HS256 secret.
type Signer struct {
	secret []byte
}

func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// Sign returns the compact serialization of claims.
func (s *Signer) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verifier validates compact tokens against a secret plus issuer/audience
// expectations and an expected token type.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	typ      TokenType
	leeway   time.Duration
}

func NewVerifier(secret []byte, issuer, audience string, typ TokenType) *Verifier {
	return &Verifier{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		typ:      typ,
		leeway:   30 * time.Second,
	}
}

// Verify parses and validates raw. On failure the returned error wraps
// ErrExpired, ErrWrongType or ErrMalformed; the concrete cause stays inside
// the wrap for logging.
func (v *Verifier) Verify(raw string) (Claims, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, errors.Join(ErrExpired, err)
		}
		return Claims{}, errors.Join(ErrMalformed, err)
	}

	if claims.TokenType != v.typ {
		return Claims{}, ErrWrongType
	}

	return claims, nil
}

// DecodeUnverified extracts claims without any validation. Only safe for
// non-security uses such as reading the expiry of a token being revoked.
func DecodeUnverified(raw string) (Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return Claims{}, errors.Join(ErrMalformed, err)
	}
	return claims, nil
}

// IsExpired reports whether raw carries an exp in the past, without
// verifying the signature. Unreadable tokens count as expired.
func IsExpired(raw string, now time.Time) bool {
	claims, err := DecodeUnverified(raw)
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return !now.Before(claims.ExpiresAt.Time)
}
