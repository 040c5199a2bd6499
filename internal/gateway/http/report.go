package http

import (
	"net/http"

	"github.com/berat-eth/huglu-gateway/pkg/httpx"
	"github.com/berat-eth/huglu-gateway/pkg/slogx"
)

// handleReport returns the rolling security summary: event counts over the
// trailing 24h, tracked suspicious IPs, top attack patterns and the score.
func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	suspicious, err := r.reputation.Len(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("reputation count failed", "error", err)
		suspicious = -1
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    r.events.Report(suspicious),
	})
}
