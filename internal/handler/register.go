package handler

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/boostbot/internal/middleware"
)

// Register registers the text and callback handlers on the bot instance.
// Routing by command, flow and action happens in the conversation machine,
// so one handler per update kind is enough.
func (h *Handler) Register() {
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, h.handleText)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, h.handleCallback)
}

func (h *Handler) handleText(ctx context.Context, _ *bot.Bot, update *models.Update) {
	user := middleware.GetUser(ctx)
	if user == nil || update.Message == nil {
		return
	}
	ev, ok := EventFromMessage(user, update.Message)
	if !ok {
		return
	}
	h.machine.Handle(ctx, ev)
}

func (h *Handler) handleCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	// Acknowledge first so the client stops the loading indicator
	if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cq.ID,
	}); err != nil {
		slog.Warn("failed to answer callback query", "user_id", cq.From.ID, "error", err)
	}

	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}
	h.machine.Handle(ctx, EventFromCallback(user, cq))
}

// HandleDefault receives updates no registered handler matched. Photos are
// the only such updates the conversation understands.
func (h *Handler) HandleDefault(ctx context.Context, _ *bot.Bot, update *models.Update) {
	user := middleware.GetUser(ctx)
	if user == nil || update.Message == nil {
		return
	}
	ev, ok := EventFromMessage(user, update.Message)
	if !ok {
		slog.Debug("unsupported update", "user_id", user.ID, "update_id", update.ID)
		return
	}
	h.machine.Handle(ctx, ev)
}
