package middlewares

import (
	"net"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/havrebakery/bakery-api/config"
	"github.com/havrebakery/bakery-api/utils"
)

// RateLimitMiddleware throttles per client IP using a Redis counter with a
// fixed expiry window. It fails open: no Redis, or a Redis error, lets the
// request through.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if config.RedisClient == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := "rate_limit:" + clientIP(r)
		count, err := config.RedisClient.Incr(r.Context(), key).Result()
		if err != nil {
			logrus.WithError(err).Warn("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			config.RedisClient.Expire(r.Context(), key, config.RateLimitWindow)
		}
		if count > config.RateLimitMax {
			utils.RespondError(w, http.StatusTooManyRequests, "Too many requests from this IP, please try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
