package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
)

const panicApology = "⚠️ Something went wrong (ref %s). Please start again with /start."

// Recover returns middleware that recovers from panics. The sender gets an
// apology carrying the incident id of the log entry.
func Recover() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				incidentID := uuid.NewString()
				kind, detail := UpdateKind(update)
				slog.Error("panic recovered in handler",
					"incident_id", incidentID,
					"update_id", update.ID,
					"type", kind,
					"detail", detail,
					"panic", r,
					"stack", string(debug.Stack()),
				)

				user := UserFromUpdate(update)
				if b == nil || user == nil {
					return
				}
				if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: user.ChatID,
					Text:   fmt.Sprintf(panicApology, incidentID),
				}); err != nil {
					slog.Warn("failed to send panic apology", "incident_id", incidentID, "error", err)
				}
			}()
			next(ctx, b, update)
		}
	}
}
