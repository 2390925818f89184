package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

const fullConfig = `
http:
  port: 9090
database:
  url: postgres://localhost/billing
auth:
  jwt_secret: jwt-secret
payment:
  razorpay:
    key_id: rzp_test_key
    key_secret: rzp_secret
sweeper:
  cron_secret: cron
  interval: 1m
`

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, fullConfig), false)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "rzp_secret", cfg.Payment.Razorpay.WebhookSecret, "webhook secret falls back to key secret")
	assert.Equal(t, "https://api.razorpay.com/v1", cfg.Payment.Razorpay.BaseURL)
	assert.Equal(t, 5*time.Minute, cfg.Sweeper.StaleAfter)
	assert.Equal(t, 10*time.Minute, cfg.Sweeper.AbandonAfter)
	assert.Equal(t, 50, cfg.Sweeper.BatchSize)
	assert.Equal(t, time.Minute, cfg.Sweeper.Interval)
	assert.Equal(t, 25*time.Minute, cfg.Sweeper.RunTimeout, "50 orders, two 15s gateway calls each")
	assert.Equal(t, 26*time.Minute, cfg.Sweeper.LockTTL)
	assert.Equal(t, "sb-access-token", cfg.Auth.CookieName)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.False(t, cfg.Runtime.Dev)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("RAZORPAY_KEY_SECRET", "from-env")
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", "hook-env")
	t.Setenv("CRON_SECRET", "cron-env")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")

	cfg, err := LoadConfig(writeConfig(t, fullConfig), false)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Payment.Razorpay.KeySecret)
	assert.Equal(t, "hook-env", cfg.Payment.Razorpay.WebhookSecret)
	assert.Equal(t, "cron-env", cfg.Sweeper.CronSecret)
	assert.Equal(t, int64(-100123), cfg.Notify.Telegram.ChatID)
}

func TestLoadConfig_Validation(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := LoadConfig(writeConfig(t, "auth:\n  jwt_secret: x\n"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false)
	require.Error(t, err)

	_, err = LoadConfig(writeConfig(t, fullConfig+"  run_timeout: 5m\n  lock_ttl: 2m\n"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock_ttl")
}

func TestLoadConfig_DevModeWithoutFile(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "dev-secret")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), true)
	require.NoError(t, err)
	assert.True(t, cfg.Runtime.Dev)
	assert.Equal(t, "dev-secret", cfg.Auth.JWTSecret)
}
