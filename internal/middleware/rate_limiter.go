package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"

	"github.com/Novip1906/tasks-realtime/internal/config"
	"github.com/Novip1906/tasks-realtime/internal/response"
	"github.com/Novip1906/tasks-realtime/pkg/logging"
)

type RateLimiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
}

func NewRateLimiter(rdb *redis.Client, cfg *config.RateLimiter) *RateLimiter {
	return &RateLimiter{
		limiter: redis_rate.NewLimiter(rdb),
		limit: redis_rate.Limit{
			Rate:   cfg.RPS,
			Burst:  cfg.Burst,
			Period: time.Second,
		},
	}
}

// Middleware limits requests per client IP. Redis errors let the request through.
func (rl *RateLimiter) Middleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			key := fmt.Sprintf("rate_limit:%s", ip)

			res, err := rl.limiter.Allow(ctx, key, rl.limit)
			if err != nil {
				log.Error("redis rate limiter error", logging.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit.Rate))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(int(res.ResetAfter.Seconds())))

			if res.Allowed == 0 {
				log.Warn("rate limit exceeded",
					slog.String("ip", ip),
					slog.Duration("retry_after", res.RetryAfter),
				)
				response.Fail(w, r, http.StatusTooManyRequests, "Too Many Requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
