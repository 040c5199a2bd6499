package http

import (
	"log/slog"
	"net/http"

	"github.com/berat-eth/huglu-gateway/internal/gateway/domain"
	"github.com/berat-eth/huglu-gateway/internal/gateway/service"
	"github.com/berat-eth/huglu-gateway/internal/gateway/store"
	"github.com/berat-eth/huglu-gateway/pkg/httpx"
	"github.com/berat-eth/huglu-gateway/pkg/slogx"
)

// Router serves the gateway's own endpoints (token refresh, logout, the
// security report) and lets the host application register business routes
// behind the pipeline.
type Router struct {
	Mux         *http.ServeMux
	Pipeline    *Pipeline
	middlewares []httpx.Middleware

	tokens     *service.TokenService
	events     *service.EventLog
	reputation store.Reputation
	logger     *slog.Logger
}

func NewRouter(pipeline *Pipeline, reputation store.Reputation, logger *slog.Logger) *Router {
	r := &Router{
		Mux:        http.NewServeMux(),
		Pipeline:   pipeline,
		tokens:     pipeline.Tokens,
		events:     pipeline.Events,
		reputation: reputation,
		logger:     logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(logger),
	}

	r.registerAuth()
	r.registerSecurity()

	return r
}

// ServeHTTP applies the global middleware chain around the mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// Handle registers a business route behind the pipeline with the given
// route policy. This is the host application's entry point.
func (r *Router) Handle(pattern string, route Route, h http.Handler) {
	r.Mux.Handle(pattern, r.Pipeline.Protect(route, h))
}

func (r *Router) registerAuth() {
	// Refresh rides the login tier: failed rotations count like failed
	// logins for brute-force purposes, successes are refunded.
	r.Handle("POST /v1/auth/refresh", Route{Tier: domain.TierLogin}, http.HandlerFunc(r.handleRefresh))

	r.Handle("POST /v1/auth/logout", Route{RequireAuth: true}, http.HandlerFunc(r.handleLogout))
}

func (r *Router) registerSecurity() {
	r.Handle("GET /v1/security/report",
		Route{Tier: domain.TierAdmin, RequireAuth: true, Roles: []string{"admin"}},
		http.HandlerFunc(r.handleReport))
}
