package middleware

import (
	"net/http"

	"orgdesk/internal/auth"
)

// Limiter decides whether a client may make another request.
// *ratelimit.IPLimiter satisfies it.
type Limiter interface {
	Allow(key string) bool
}

// RateLimit rejects clients that exceed the limiter's budget with 429.
// A nil limiter disables throttling.
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(ClientIP(r)) {
				w.Header().Set("Retry-After", "60")
				auth.WriteJSONError(w, http.StatusTooManyRequests, "Too many requests", "Too many requests. Please slow down.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
