package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"

	"pegfall/internal/logger"
)

const redisTimeout = 2 * time.Second

// RedisLimiter is a fixed-window limiter keyed by client IP. A nil limiter
// lets every request through.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter connects to addr. An empty addr returns a nil limiter.
func NewRedisLimiter(ctx context.Context, addr, password string, db int) (*RedisLimiter, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisLimiter{client: client, prefix: "pegfall:rl:"}, nil
}

func (l *RedisLimiter) Close() error {
	if l == nil {
		return nil
	}
	return l.client.Close()
}

// Handler allows maxRequests per window per client, using INCR and EXPIRE.
// Key format: pegfall:rl:<window_seconds>:<ip>
func (l *RedisLimiter) Handler(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}

		key := l.prefix + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.ClientIP()
		ctx, cancel := context.WithTimeout(c.Request.Context(), redisTimeout)
		defer cancel()

		val, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			// fail open
			RLErrors.Inc()
			logger.Debug("rate limiter unavailable", "error", err)
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}
		if val == 1 {
			l.client.Expire(ctx, key, window)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(int64(maxRequests)-val, 10))

		c.Next()
	}
}
