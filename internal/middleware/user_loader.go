package middleware

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type ctxKey string

const UserKey ctxKey = "user"

// User identifies the sender of an update.
type User struct {
	ID        int64
	ChatID    int64
	Username  string
	FirstName string
	IsAdmin   bool
}

// GetUser extracts user from context.
func GetUser(ctx context.Context) *User {
	u, ok := ctx.Value(UserKey).(*User)
	if !ok {
		return nil
	}
	return u
}

// WithUser stores u in ctx.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, UserKey, u)
}

// UserFromUpdate extracts the sender of a message or callback query.
func UserFromUpdate(update *models.Update) *User {
	var from *models.User
	var chatID int64

	if update.Message != nil {
		from = update.Message.From
		chatID = update.Message.Chat.ID
	} else if update.CallbackQuery != nil {
		from = &update.CallbackQuery.From
		if update.CallbackQuery.Message.Message != nil {
			chatID = update.CallbackQuery.Message.Message.Chat.ID
		}
	}

	if from == nil {
		return nil
	}
	if chatID == 0 {
		chatID = from.ID
	}
	return &User{
		ID:        from.ID,
		ChatID:    chatID,
		Username:  from.Username,
		FirstName: from.FirstName,
	}
}

// UserLoader returns middleware that puts the sender into context. Updates
// without a sender, such as channel posts, and non-private chats are
// dropped.
func UserLoader(cfg interface{ IsAdmin(int64) bool }) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			user := UserFromUpdate(update)
			if user == nil || !isPrivate(update) {
				return
			}
			user.IsAdmin = cfg.IsAdmin(user.ID)

			next(WithUser(ctx, user), b, update)
		}
	}
}

func isPrivate(update *models.Update) bool {
	switch {
	case update.Message != nil:
		return update.Message.Chat.Type == models.ChatTypePrivate
	case update.CallbackQuery != nil && update.CallbackQuery.Message.Message != nil:
		return update.CallbackQuery.Message.Message.Chat.Type == models.ChatTypePrivate
	default:
		return true
	}
}
