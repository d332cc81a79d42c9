package handler

import (
	"strings"

	"github.com/go-telegram/bot/models"
	"github.com/set-night/boostbot/internal/conversation"
	"github.com/set-night/boostbot/internal/middleware"
)

func baseEvent(user *middleware.User) conversation.Event {
	return conversation.Event{
		UserID:    user.ID,
		ChatID:    user.ChatID,
		Username:  user.Username,
		FirstName: user.FirstName,
	}
}

// EventFromMessage converts a text, command or photo message. ok is false
// for message kinds the conversation does not handle.
func EventFromMessage(user *middleware.User, msg *models.Message) (conversation.Event, bool) {
	ev := baseEvent(user)
	ev.MessageID = msg.ID
	if msg.ReplyToMessage != nil {
		ev.ReplyToMessageID = msg.ReplyToMessage.ID
	}

	switch {
	case len(msg.Photo) > 0:
		ev.Kind = conversation.InputPhoto
		// sizes are ordered ascending, the last one is the original
		ev.PhotoFileID = msg.Photo[len(msg.Photo)-1].FileID
		ev.Text = msg.Caption
	case strings.HasPrefix(msg.Text, "/"):
		ev.Kind = conversation.InputCommand
		ev.Text = msg.Text
		ev.Command, ev.Args = ParseCommand(msg.Text)
	case strings.TrimSpace(msg.Text) != "":
		ev.Kind = conversation.InputText
		ev.Text = strings.TrimSpace(msg.Text)
	default:
		return ev, false
	}
	return ev, true
}

func EventFromCallback(user *middleware.User, cq *models.CallbackQuery) conversation.Event {
	ev := baseEvent(user)
	ev.Kind = conversation.InputCallback
	ev.Action = cq.Data
	if cq.Message.Message != nil {
		ev.MessageID = cq.Message.Message.ID
	}
	return ev
}

// ParseCommand splits "/add@shop_bot 123 50" into "add" and its arguments.
func ParseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}
	name := strings.TrimPrefix(fields[0], "/")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name), fields[1:]
}
