package middleware

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"go-storefront/utils"
)

// RateLimit applies a fixed-window per-IP limit backed by Redis INCR/EXPIRE.
// With no Redis client the middleware passes everything through.
func RateLimit(rdb *redis.Client, limit int64, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rdb == nil {
				next.ServeHTTP(w, r)
				return
			}

			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			key := fmt.Sprintf("ratelimit:%s:%d", ip, time.Now().Unix()/int64(window.Seconds()))

			count, err := rdb.Incr(r.Context(), key).Result()
			if err != nil {
				// Rate limiting is best effort; never fail requests on Redis errors.
				log.Printf("Rate limit check failed: %v", err)
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				rdb.Expire(r.Context(), key, window)
			}
			if count > limit {
				utils.WriteErrorCode(w, http.StatusTooManyRequests, "Too many requests", "RATE_LIMITED")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
