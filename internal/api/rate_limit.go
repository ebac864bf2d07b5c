package api

import (
	"net/http"

	"golang.org/x/time/rate"

	"grandpa/infrastructure"
)

// RateLimitMiddleware admits rps requests per second across all clients,
// with bursts of the same size. A non-positive rps disables the limit.
func RateLimitMiddleware(rps int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiter := rate.NewLimiter(rate.Limit(rps), rps)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				infrastructure.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
					"detail": "Too many requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
