package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"agromarket/internal/domain"
	"agromarket/internal/pkg/cache"
	"agromarket/internal/pkg/logger"
)

// RateLimiter aplica janela fixa por IP: limit requisições a cada window.
// Se o cache falhar a requisição segue (fail-open).
func RateLimiter(client cache.Client, limit int, window time.Duration, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "rate-limit:" + clientIP(r)

			count, err := client.Incr(r.Context(), key, window)
			if err != nil {
				log.Warn("Rate limit indisponível; liberando requisição.", map[string]interface{}{"key": key, "error": err.Error()})
				next.ServeHTTP(w, r)
				return
			}

			remaining := int64(limit) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(limit) {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				writeJSON(w, http.StatusTooManyRequests, domain.ErrorResponse{Error: "Rate limit exceeded"})
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
