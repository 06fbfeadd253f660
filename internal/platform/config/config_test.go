package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"SMARTRATION_ADDR", "ISSUANCE_TIMEZONE", "ADMIN_TOKEN_TTL", "DATABASE_URL",
		"REDIS_URL", "ADMIN_EMAIL", "ADMIN_PASSWORD", "ADMIN_PASSWORD_HASH", "CARD_CACHE_TTL",
		"LOGIN_RATE_LIMIT", "LOGIN_RATE_WINDOW", "RATE_LIMIT_DISABLED",
	} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Addr)
	assert.Equal(t, time.UTC, cfg.Issuance.Location)
	assert.Equal(t, 2*time.Hour, cfg.Admin.TokenTTL)
	assert.Equal(t, "admin@example.com", cfg.Admin.Email)
	assert.Empty(t, cfg.Database.URL)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 10, cfg.RateLimit.LoginLimit)
	assert.Equal(t, time.Minute, cfg.RateLimit.LoginWindow)
	assert.False(t, cfg.RateLimit.Disabled)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SMARTRATION_ADDR", ":9090")
	t.Setenv("ISSUANCE_TIMEZONE", "Asia/Kolkata")
	t.Setenv("ADMIN_TOKEN_TTL", "30m")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "7")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOGIN_RATE_LIMIT", "3")
	t.Setenv("RATE_LIMIT_DISABLED", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "Asia/Kolkata", cfg.Issuance.Location.String())
	assert.Equal(t, 30*time.Minute, cfg.Admin.TokenTTL)
	assert.Equal(t, 7, cfg.Database.MaxOpenConns)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 3, cfg.RateLimit.LoginLimit)
	assert.True(t, cfg.RateLimit.Disabled)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Run("unknown timezone", func(t *testing.T) {
		t.Setenv("ISSUANCE_TIMEZONE", "Mars/Olympus")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("malformed duration", func(t *testing.T) {
		t.Setenv("ISSUANCE_TIMEZONE", "")
		t.Setenv("ADMIN_TOKEN_TTL", "two hours")
		_, err := FromEnv()
		require.Error(t, err)
	})
}
