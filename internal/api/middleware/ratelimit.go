package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Chungws/lmarena-clone/pkg/logger"
	"github.com/Chungws/lmarena-clone/pkg/ratelimit"
)

// RateLimitConfig configures the Redis-backed rate limit middleware.
type RateLimitConfig struct {
	Limiter *ratelimit.RedisRateLimiter
	Limit   int
	Window  time.Duration
	KeyFunc func(*gin.Context) string
}

// IPKeyFunc meters by client IP. The service has no accounts, so IP is the
// only identity available.
func IPKeyFunc(c *gin.Context) string {
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// RateLimit enforces a fixed-window limit shared across instances.
// Fail-open: a Redis error lets the request through.
func RateLimit(config RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = IPKeyFunc
	}
	if config.Limit <= 0 {
		config.Limit = 60
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}

	return func(c *gin.Context) {
		key := config.KeyFunc(c)

		allowed, err := config.Limiter.Allow(c.Request.Context(), key, config.Limit, config.Window)
		if err != nil {
			logger.Warn("Rate limit check failed, allowing request", "key", key, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))

		if !allowed {
			retryAfter := int(config.Window.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": fmt.Sprintf("Too many requests. Limit: %d per %v", config.Limit, config.Window),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// PromptRateLimit limits prompt-submitting endpoints per client IP.
func PromptRateLimit(limiter *ratelimit.RedisRateLimiter, limit int, window time.Duration) gin.HandlerFunc {
	return RateLimit(RateLimitConfig{
		Limiter: limiter,
		Limit:   limit,
		Window:  window,
		KeyFunc: IPKeyFunc,
	})
}
