package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"KAFKA_BROKER", "CHAPA_TIMEOUT", "PAYMENT_CURRENCY", "NOTIFICATIONS_MAX_ATTEMPTS", "HTTP_ADDR", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 15*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "ETB", cfg.Payment.Currency)
	assert.Equal(t, 5, cfg.Notifications.MaxAttempts)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("KAFKA_BROKER", "k1:9092, k2:9092")
	t.Setenv("CHAPA_TIMEOUT", "3s")
	t.Setenv("NOTIFICATIONS_MAX_ATTEMPTS", "2")
	t.Setenv("VERIFY_LOCK_TTL", "bogus")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, 2, cfg.Notifications.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.VerifyLockTTL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}
