package config

import "time"

const (
	// Telegram limits
	MaxTelegramMessageLen = 4096

	// Timeout for a single outbound Telegram call
	SendTimeout = 10 * time.Second

	// Units per catalog price
	PriceUnit = 1000

	// Upper bound for a single order, guards against typos like "9999k like"
	MaxOrderQuantity = 1_000_000

	// Webhook server shutdown grace period
	ShutdownTimeout = 5 * time.Second
)
