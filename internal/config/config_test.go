package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadClientDefaults(t *testing.T) {
	t.Setenv("ASTRA_API_URL", "")
	t.Setenv("ASTRA_POLL_INTERVAL", "")
	t.Setenv("ASTRA_TIMELINE_DAYS", "")

	cfg := LoadClient()
	assert.Equal(t, "http://localhost:8001/api", cfg.APIURL)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 7, cfg.TimelineDays)
	assert.Equal(t, 3200*time.Millisecond, cfg.ScanDelay)
}

func TestLoadClientRejectsUnknownWindow(t *testing.T) {
	t.Setenv("ASTRA_TIMELINE_DAYS", "9")
	assert.Equal(t, 7, LoadClient().TimelineDays)

	t.Setenv("ASTRA_TIMELINE_DAYS", "30")
	assert.Equal(t, 30, LoadClient().TimelineDays)
}

func TestRateLimitClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestEnvBool(t *testing.T) {
	t.Setenv("X_FLAG", "off")
	assert.False(t, envBool("X_FLAG", true))
	t.Setenv("X_FLAG", "YES")
	assert.True(t, envBool("X_FLAG", false))
	t.Setenv("X_FLAG", "maybe")
	assert.True(t, envBool("X_FLAG", true))
}

func TestLoadServerDevSecret(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "")
	cfg := Load()
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Equal(t, 24*60, cfg.AccessTTLMin)
}
