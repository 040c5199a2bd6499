package http

import (
	"encoding/json"
	"net/http"

	"github.com/berat-eth/huglu-gateway/pkg/httpx"
	"github.com/berat-eth/huglu-gateway/pkg/slogx"
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// handleRefresh rotates a refresh token: the presented token is consumed
// and a fresh pair issued. Replays, expired and malformed tokens all get
// the same external answer.
func (r *Router) handleRefresh(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	log := slogx.FromContext(ctx)

	var body refreshRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Refresh token required")
		return
	}

	pair, err := r.tokens.Rotate(ctx, body.RefreshToken)
	if err != nil {
		log.Warn("refresh rotation rejected", "reason", reasonCode(err))
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    pair,
	})
}

// handleLogout revokes the bearer token the pipeline just verified.
func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	raw, ok := tokenFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := r.tokens.Revoke(ctx, raw); err != nil {
		slogx.FromContext(ctx).Error("logout revocation failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Logout failed")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out successfully",
	})
}
