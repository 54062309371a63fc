package http

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"loan-dashboard/metrics"
)

// RateLimitMiddleware rejects clients that ran out of tokens with 429. route
// labels the rejection metric.
func RateLimitMiddleware(limiter *RateLimiter, route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retryAfter := limiter.Allow(clientIP(r))
			if !ok {
				metrics.RateLimited.WithLabelValues(route).Inc()
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				writeMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
