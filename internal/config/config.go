package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	// Core
	BotToken      string `env:"BOT_TOKEN,required,notEmpty"`
	AdminID       int64  `env:"ADMIN_ID,required"`
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`

	// Delivery: long polling unless a webhook URL is configured
	WebhookURL string `env:"WEBHOOK_URL"`
	Port       int    `env:"PORT" envDefault:"8000"`

	// Bot behavior
	DropPendingUpdates bool   `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`
	Currency           string `env:"CURRENCY" envDefault:"AZN"`

	// Orders shown by /orders, 0 lists all of them
	OrdersListLimit int `env:"ORDERS_LIST_LIMIT" envDefault:"0"`

	// Manual top-up instructions shown to users
	PaymentCard   string `env:"PAYMENT_CARD"`
	PaymentHolder string `env:"PAYMENT_HOLDER"`

	// Rate limiting
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"20"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	// Retention, 0 keeps forever
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"0"`
	RelayRetention    time.Duration `env:"RELAY_RETENTION" envDefault:"0"`
	RetentionSchedule string        `env:"RETENTION_SCHEDULE" envDefault:"@every 1h"`

	// Telegram logging
	LogTelegramChatID   int64 `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError       int   `env:"LOG_TOPIC_ERROR"`
	LogTopicOrder       int   `env:"LOG_TOPIC_ORDER"`
	LogTopicBalance     int   `env:"LOG_TOPIC_BALANCE"`
	LogTopicPriceChange int   `env:"LOG_TOPIC_PRICE_CHANGE"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks rules that span several fields.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres storage driver")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.AdminID == 0 {
		return errors.New("ADMIN_ID must be set")
	}
	if c.OrdersListLimit < 0 {
		return errors.New("ORDERS_LIST_LIMIT must not be negative")
	}
	if c.RateLimitRequests < 0 {
		return errors.New("RATE_LIMIT_REQUESTS must not be negative")
	}
	if c.SessionTTL < 0 || c.RelayRetention < 0 {
		return errors.New("retention periods must not be negative")
	}
	return nil
}

func (c *Config) IsAdmin(telegramID int64) bool {
	return telegramID == c.AdminID
}

// UseWebhook reports whether updates are delivered by webhook.
func (c *Config) UseWebhook() bool {
	return c.WebhookURL != ""
}

// WebhookPath is the local path Telegram posts updates to.
func (c *Config) WebhookPath() string {
	return "/" + c.BotToken
}

// FullWebhookURL is the public URL registered with Telegram.
func (c *Config) FullWebhookURL() string {
	return strings.TrimRight(c.WebhookURL, "/") + c.WebhookPath()
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
