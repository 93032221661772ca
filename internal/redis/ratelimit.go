package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Rate limit keys:
// - ratelimit:{ip}:api  - general API quota
// - ratelimit:{ip}:auth - login and register attempts

type RateLimitConfig struct {
	APILimit   int
	APIWindow  time.Duration
	AuthLimit  int
	AuthWindow time.Duration
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		APILimit:   100,
		APIWindow:  15 * time.Minute,
		AuthLimit:  5,
		AuthWindow: time.Minute,
	}
}

// RateLimiter is a fixed-window counter per key.
type RateLimiter struct {
	client *goredis.Client
	config RateLimitConfig
}

type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
	Limit     int
}

func NewRateLimiter(client *goredis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{client: client, config: config}
}

func (r *RateLimiter) AllowAPI(ctx context.Context, ip string) (*RateLimitResult, error) {
	return r.checkLimit(ctx, apiKey(ip), r.config.APILimit, r.config.APIWindow)
}

func (r *RateLimiter) AllowAuth(ctx context.Context, ip string) (*RateLimitResult, error) {
	return r.checkLimit(ctx, authKey(ip), r.config.AuthLimit, r.config.AuthWindow)
}

// ResetAuth clears the auth counter for ip, e.g. after a successful login.
func (r *RateLimiter) ResetAuth(ctx context.Context, ip string) error {
	return r.client.Del(ctx, authKey(ip)).Err()
}

func apiKey(ip string) string  { return fmt.Sprintf("ratelimit:%s:api", ip) }
func authKey(ip string) string { return fmt.Sprintf("ratelimit:%s:auth", ip) }

// KEYS[1] counter key; ARGV[1] limit; ARGV[2] window seconds.
// Returns {allowed, remaining, ttl}.
var fixedWindowScript = goredis.NewScript(`
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = tonumber(redis.call('GET', KEYS[1]) or '0')
	local ttl = redis.call('TTL', KEYS[1])
	if ttl < 0 then
		ttl = window
	end

	if current >= limit then
		return {0, 0, ttl}
	end

	redis.call('INCR', KEYS[1])
	if current == 0 then
		redis.call('EXPIRE', KEYS[1], window)
	end
	return {1, limit - current - 1, ttl}
`)

func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	seconds := int(window.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	result, err := fixedWindowScript.Run(ctx, r.client, []string{key}, limit, seconds).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(result) < 3 {
		return nil, fmt.Errorf("unexpected rate limit result %v", result)
	}

	return &RateLimitResult{
		Allowed:   result[0] == 1,
		Remaining: int(result[1]),
		ResetIn:   time.Duration(result[2]) * time.Second,
		Limit:     limit,
	}, nil
}
