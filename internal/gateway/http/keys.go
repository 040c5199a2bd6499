package http

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// KeyFunc derives the secondary rate-limit identity dimension from a
// request. The pipeline prepends the client IP, so a KeyFunc only supplies
// the user/order/admin part. body is the already-buffered request body.
type KeyFunc func(r *http.Request, body []byte) string

// KeyFromHeader reads the secondary dimension from a header, e.g.
// X-Admin-Id for admin tiers.
func KeyFromHeader(name string) KeyFunc {
	return func(r *http.Request, _ []byte) string {
		if v := r.Header.Get(name); v != "" {
			return v
		}
		return "unknown"
	}
}

// KeyFromBodyField reads a top-level string or number field from a JSON
// body, e.g. orderId for the payment tier or fromUserId for transfers.
// Non-JSON bodies and absent fields key as "unknown" so requests are still
// counted rather than bypassing the tier.
func KeyFromBodyField(field string) KeyFunc {
	return func(_ *http.Request, body []byte) string {
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			return "unknown"
		}

		switch v := payload[field].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
		return "unknown"
	}
}
