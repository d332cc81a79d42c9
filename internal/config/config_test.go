package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_ID", "42")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("SESSION_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.AdminID)
	assert.True(t, cfg.IsAdmin(42))
	assert.False(t, cfg.IsAdmin(43))
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "AZN", cfg.Currency)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, time.Duration(0), cfg.RelayRetention)
	assert.Zero(t, cfg.OrdersListLimit, "all orders are listed by default")
	assert.False(t, cfg.UseWebhook())
}

func TestLoadRequiresDatabaseURLForPostgres(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_ID", "42")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("ADMIN_ID", "42")

	_, err := Load()
	require.Error(t, err)
}

func TestValidateUnknownDriver(t *testing.T) {
	cfg := &Config{BotToken: "x", AdminID: 1, StorageDriver: "sqlite"}
	assert.Error(t, cfg.Validate())
}

func TestWebhookURL(t *testing.T) {
	cfg := &Config{BotToken: "123:abc", WebhookURL: "https://bot.example.com/"}
	assert.True(t, cfg.UseWebhook())
	assert.Equal(t, "/123:abc", cfg.WebhookPath())
	assert.Equal(t, "https://bot.example.com/123:abc", cfg.FullWebhookURL())
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, (&Config{LogLevel: "DEBUG"}).SlogLevel())
	assert.Equal(t, slog.LevelWarn, (&Config{LogLevel: "warning"}).SlogLevel())
	assert.Equal(t, slog.LevelInfo, (&Config{LogLevel: ""}).SlogLevel())
}
