package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/MallamTeja/Fintrack/internal/redis"
	"github.com/MallamTeja/Fintrack/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Limiter is satisfied by *redis.RateLimiter.
type Limiter interface {
	AllowAPI(ctx context.Context, ip string) (*redis.RateLimitResult, error)
	AllowAuth(ctx context.Context, ip string) (*redis.RateLimitResult, error)
	ResetAuth(ctx context.Context, ip string) error
}

// RateLimitMiddleware applies the general per-IP API quota.
func RateLimitMiddleware(limiter Limiter) gin.HandlerFunc {
	return limit(limiter.AllowAPI, "Too many requests from this IP, please try again later")
}

// AuthRateLimitMiddleware applies the stricter per-IP quota for login and
// registration. A successful attempt clears the counter.
func AuthRateLimitMiddleware(limiter Limiter) gin.HandlerFunc {
	check := limit(limiter.AllowAuth, "Too many authentication attempts, please try again later")
	return func(c *gin.Context) {
		check(c)
		if c.IsAborted() {
			return
		}
		if status := c.Writer.Status(); status >= 200 && status < 300 {
			if err := limiter.ResetAuth(c.Request.Context(), c.ClientIP()); err != nil {
				zap.L().Warn("rate limit reset failed", zap.String("client_ip", c.ClientIP()), zap.Error(err))
			}
		}
	}
}

// limit fails open: when Redis is unreachable the request proceeds.
func limit(allow func(context.Context, string) (*redis.RateLimitResult, error), msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			zap.L().Warn("rate limit check failed", zap.String("client_ip", c.ClientIP()), zap.Error(err))
			c.Next()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse(msg, "RATE_LIMITED"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// setRateLimitHeaders sets standard rate limit response headers
func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
}
