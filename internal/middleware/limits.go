package middleware

import (
	"net/http"
)

// MaxBodySize limits the size of request bodies.
// If no size is provided, DefaultMaxBodySize is used.
// Requests declaring a larger Content-Length are rejected with 413; bodies
// without a declared length fail on read once they exceed the limit.
func MaxBodySize(maxBytes ...int64) func(http.Handler) http.Handler {
	limit := int64(DefaultMaxBodySize)
	if len(maxBytes) > 0 && maxBytes[0] > 0 {
		limit = maxBytes[0]
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.ContentLength > limit {
				respondTooLarge(w, r)
				return
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Common size limits
const (
	KB = 1024
	MB = 1024 * KB

	// DefaultMaxBodySize fits any storefront JSON payload.
	DefaultMaxBodySize = 64 * KB

	// SmallMaxBodySize is for endpoints with tiny bodies (coupon codes, quantities).
	SmallMaxBodySize = 4 * KB

	// WebhookMaxBodySize fits payment provider events.
	WebhookMaxBodySize = 512 * KB
)
