package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/dukerupert/gogo/internal/ratelimit"
)

// RateLimit applies the per-route API limiter keyed by client IP and path.
// Limiter errors fail open so an unreachable backend never takes the API
// down with it.
func RateLimit(limiter ratelimit.Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := RealIP(r)
			d, err := limiter.Check(r.Context(), ip, r.URL.Path)
			if err != nil {
				logger.Error("rate limiter unavailable", "ip", ip, "path", r.URL.Path, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			reset := strconv.Itoa(int(math.Ceil(d.ResetIn.Seconds())))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			w.Header().Set("X-RateLimit-Reset", reset)

			if !d.Allowed {
				logger.Warn("rate limited", "ip", ip, "path", r.URL.Path, "banned", d.Banned)
				msg := "Too many requests. Please try again later."
				if d.Banned {
					msg = "Access temporarily blocked due to repeated abuse."
				}
				w.Header().Set("Retry-After", reset)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": msg})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
