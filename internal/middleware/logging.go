package middleware

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// UpdateKind names an update for logs. detail is the command name for
// commands and the action token for button presses.
func UpdateKind(update *models.Update) (kind, detail string) {
	switch {
	case update.Message != nil:
		msg := update.Message
		switch {
		case len(msg.Photo) > 0:
			return "photo", ""
		case strings.HasPrefix(msg.Text, "/"):
			name := strings.TrimPrefix(strings.Fields(msg.Text)[0], "/")
			name, _, _ = strings.Cut(name, "@")
			return "command", strings.ToLower(name)
		case msg.Text != "":
			return "text", ""
		default:
			return "message", ""
		}
	case update.CallbackQuery != nil:
		return "callback", update.CallbackQuery.Data
	default:
		return "unknown", ""
	}
}

// Logging returns middleware that logs update processing time.
func Logging() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()

			kind, detail := UpdateKind(update)
			var chatID, userID int64
			if u := UserFromUpdate(update); u != nil {
				chatID, userID = u.ChatID, u.ID
			}

			next(ctx, b, update)

			attrs := []any{
				"type", kind,
				"chat_id", chatID,
				"user_id", userID,
				"duration", time.Since(start),
			}
			if detail != "" {
				attrs = append(attrs, "detail", detail)
			}
			slog.Debug("update processed", attrs...)
		}
	}
}
