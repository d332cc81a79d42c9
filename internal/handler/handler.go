package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/set-night/boostbot/internal/conversation"
)

// Dispatcher consumes normalized events. *conversation.Machine implements it.
type Dispatcher interface {
	Handle(ctx context.Context, ev conversation.Event)
}

// Handler translates Telegram updates into conversation events.
type Handler struct {
	bot     *bot.Bot
	machine Dispatcher
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot     *bot.Bot
	Machine Dispatcher
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:     deps.Bot,
		machine: deps.Machine,
	}
}
