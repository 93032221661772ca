package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MallamTeja/Fintrack/internal/redis"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubLimiter struct {
	result *redis.RateLimitResult
	err    error
	resets int
}

func (s *stubLimiter) AllowAPI(context.Context, string) (*redis.RateLimitResult, error) {
	return s.result, s.err
}

func (s *stubLimiter) AllowAuth(context.Context, string) (*redis.RateLimitResult, error) {
	return s.result, s.err
}

func (s *stubLimiter) ResetAuth(context.Context, string) error {
	s.resets++
	return nil
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_RejectsWhenExhausted(t *testing.T) {
	lim := &stubLimiter{result: &redis.RateLimitResult{Allowed: false, Limit: 5, ResetIn: 42 * time.Second}}
	r := gin.New()
	r.GET("/x", RateLimitMiddleware(lim), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/x", nil)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "42", w.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimit_FailsOpen(t *testing.T) {
	lim := &stubLimiter{err: errors.New("connection refused")}
	r := gin.New()
	r.GET("/x", RateLimitMiddleware(lim), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/x", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}

func TestAuthRateLimit_ResetsOnSuccessOnly(t *testing.T) {
	lim := &stubLimiter{result: &redis.RateLimitResult{Allowed: true, Limit: 5, Remaining: 4}}
	r := gin.New()
	r.POST("/ok", AuthRateLimitMiddleware(lim), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/bad", AuthRateLimitMiddleware(lim), func(c *gin.Context) { c.Status(http.StatusUnauthorized) })

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/bad", nil).Code)
	assert.Equal(t, 0, lim.resets)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/ok", nil).Code)
	assert.Equal(t, 1, lim.resets)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.example/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodOptions, "/x", http.Header{"Origin": {"https://app.example"}})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodGet, "/x", http.Header{"Origin": {"https://evil.example"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID_GeneratedAndEchoed(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/x", nil)
	assert.Len(t, w.Header().Get("X-Request-Id"), 32)

	w = serve(r, http.MethodGet, "/x", http.Header{"X-Request-Id": {"abc"}})
	assert.Equal(t, "abc", w.Header().Get("X-Request-Id"))
}
