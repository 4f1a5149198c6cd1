// Package middleware holds HTTP middleware shared by the routers.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter increments a windowed counter and returns the new value.
type Counter interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter implements Counter with INCR and EXPIRE in one pipeline.
type RedisCounter struct {
	client redis.Cmdable
}

func NewRedisCounter(client redis.Cmdable) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimitConfig defines a fixed-window limit.
type RateLimitConfig struct {
	Window    time.Duration
	Limit     int
	KeyPrefix string
}

// KeyFunc derives the rate limit identity of a request. An empty key skips
// the limit for that request.
type KeyFunc func(r *http.Request) string

// RateLimiter enforces a fixed-window request limit per key.
type RateLimiter struct {
	counter Counter
	config  RateLimitConfig
	logger  *slog.Logger
	now     func() time.Time
}

func NewRateLimiter(counter Counter, cfg RateLimitConfig, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimiter{
		counter: counter,
		config:  cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// NewAuthRateLimiter limits sign up and login attempts per client address.
func NewAuthRateLimiter(counter Counter, logger *slog.Logger) *RateLimiter {
	return NewRateLimiter(counter, RateLimitConfig{
		Window:    time.Minute,
		Limit:     10,
		KeyPrefix: "rate_limit:auth",
	}, logger)
}

// NewRecipeWriteRateLimiter limits recipe mutations per caller.
func NewRecipeWriteRateLimiter(counter Counter, logger *slog.Logger) *RateLimiter {
	return NewRateLimiter(counter, RateLimitConfig{
		Window:    time.Hour,
		Limit:     60,
		KeyPrefix: "rate_limit:recipe_write",
	}, logger)
}

// Handler returns middleware keyed by keyFn. Counter failures let the
// request through.
func (rl *RateLimiter) Handler(keyFn KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := keyFn(r)
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}

			windowStart := rl.now().Truncate(rl.config.Window)
			reset := windowStart.Add(rl.config.Window)
			key := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, id, windowStart.Unix())

			count, err := rl.counter.Increment(r.Context(), key, rl.config.Window)
			if err != nil {
				rl.logger.WarnContext(r.Context(), "rate limit check failed", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			remaining := rl.config.Limit - int(count)
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

			if count > int64(rl.config.Limit) {
				retryAfter := int(reset.Sub(rl.now()).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP keys requests by remote address. Run chi's RealIP first so
// proxy headers are honoured.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
