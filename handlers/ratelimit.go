package handlers

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimiter bounds the whole API surface to the configured requests per
// minute. rate.Limiter is safe for concurrent use on its own.
type RateLimiter struct {
	limiter *rate.Limiter
}

func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), requestsPerMinute),
	}
}

func (rateLimiter *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rateLimiter.limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"detail":"rate limit exceeded"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
