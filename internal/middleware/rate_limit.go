package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// RateLimiter is a per-chat sliding window limiter.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[int64][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
}

// NewRateLimiter returns a limiter allowing limit requests per window. A
// limit of 0 disables limiting.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[int64][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

func (rl *RateLimiter) Allow(chatID int64) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	recent := recentSince(rl.requests[chatID], now.Add(-rl.window))

	if len(recent) >= rl.limit {
		rl.requests[chatID] = recent
		return false
	}

	rl.requests[chatID] = append(recent, now)
	return true
}

// Prune drops chats without requests in the current window. It is run by
// the retention scheduler.
func (rl *RateLimiter) Prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.window)
	removed := 0
	for chatID, times := range rl.requests {
		recent := recentSince(times, cutoff)
		if len(recent) == 0 {
			delete(rl.requests, chatID)
			removed++
		} else {
			rl.requests[chatID] = recent
		}
	}
	return removed
}

func recentSince(times []time.Time, cutoff time.Time) []time.Time {
	var recent []time.Time
	for _, t := range times {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	return recent
}

// RateLimit returns middleware that drops messages over the limit. The
// administrator is never limited.
func RateLimit(rl *RateLimiter) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			// Only rate limit messages (not callbacks or other updates)
			if update.Message == nil {
				next(ctx, b, update)
				return
			}

			if u := GetUser(ctx); u != nil && u.IsAdmin {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID
			if !rl.Allow(chatID) {
				slog.Debug("rate limited", "chat_id", chatID, "limit", rl.limit, "window", rl.window)
				b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: chatID,
					Text:   "⏳ Too many requests. Please wait a moment.",
				})
				return
			}

			next(ctx, b, update)
		}
	}
}
