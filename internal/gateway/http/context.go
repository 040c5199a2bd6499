// Package http exposes the gateway's external contract: a middleware
// pipeline every inbound request passes through, plus the auth and
// reporting endpoints the gateway serves itself.
package http

import (
	"context"

	"github.com/berat-eth/huglu-gateway/internal/gateway/domain"
)

type ctxKey string

const (
	ctxKeyIdentity ctxKey = "identity"
	ctxKeyToken    ctxKey = "token"
)

func contextWithIdentity(ctx context.Context, id domain.Identity, rawToken string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyIdentity, id)
	return context.WithValue(ctx, ctxKeyToken, rawToken)
}

// IdentityFromContext returns the authenticated identity the pipeline
// forwarded, if any.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(domain.Identity)
	return id, ok
}

// tokenFromContext returns the raw bearer token the pipeline verified.
func tokenFromContext(ctx context.Context) (string, bool) {
	raw, ok := ctx.Value(ctxKeyToken).(string)
	return raw, ok
}
