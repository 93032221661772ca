package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("WS_HEARTBEAT_INTERVAL", "")
	t.Setenv("WS_SEND_BUFFER", "")

	cfg := LoadConfig()

	assert.Equal(t, 30*time.Second, cfg.WSHeartbeatInterval)
	assert.Equal(t, 256, cfg.WSSendBuffer)
	assert.Equal(t, 100, cfg.RateLimitAPI)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("WS_AUTH_MODE", "header")
	t.Setenv("WS_HEARTBEAT_INTERVAL", "5s")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("S3_ENABLED", "true")
	t.Setenv("S3_PRESIGN_TTL", "2m")

	cfg := LoadConfig()

	assert.Equal(t, "9090", cfg.AppPort)
	assert.Equal(t, "header", cfg.WSAuthMode)
	assert.Equal(t, 5*time.Second, cfg.WSHeartbeatInterval)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.S3Enabled)
	assert.Equal(t, 2*time.Minute, cfg.S3PresignTTL)
}

func TestGetEnvAsDuration_Milliseconds(t *testing.T) {
	t.Setenv("WS_HEARTBEAT_INTERVAL", "30000")
	assert.Equal(t, 30*time.Second, getEnvAsDuration("WS_HEARTBEAT_INTERVAL", time.Second))

	t.Setenv("WS_HEARTBEAT_INTERVAL", "garbage")
	assert.Equal(t, time.Second, getEnvAsDuration("WS_HEARTBEAT_INTERVAL", time.Second))
}
