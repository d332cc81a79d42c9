package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/boostbot/internal/config"
	"github.com/set-night/boostbot/internal/conversation"
	"github.com/set-night/boostbot/internal/domain"
)

const maxCaptionLen = 1024

// BotAPI is the part of *bot.Bot used for outbound messages.
type BotAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
}

var _ conversation.Notifier = (*Sender)(nil)

// Sender delivers conversation messages as plain text. Texts carry user
// input verbatim, so no parse mode is used.
type Sender struct {
	api BotAPI
}

func NewSender(api BotAPI) *Sender {
	return &Sender{api: api}
}

// Send splits long texts and attaches the controls to the last part. The
// returned id is the id of that part.
func (s *Sender) Send(ctx context.Context, chatID int64, msg conversation.Message) (int, error) {
	parts := SplitMessage(msg.Text, config.MaxTelegramMessageLen)

	var lastID int
	for i, part := range parts {
		params := &bot.SendMessageParams{
			ChatID: chatID,
			Text:   part,
		}
		if i == len(parts)-1 {
			params.ReplyMarkup = Keyboard(msg.Controls)
		}

		sent, err := s.sendMessage(ctx, params)
		if err != nil {
			return 0, classify(chatID, err)
		}
		lastID = sent.ID
	}
	return lastID, nil
}

func (s *Sender) SendPhoto(ctx context.Context, chatID int64, fileID string, msg conversation.Message) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, config.SendTimeout)
	defer cancel()

	sent, err := s.api.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:      chatID,
		Photo:       &models.InputFileString{Data: fileID},
		Caption:     Truncate(msg.Text, maxCaptionLen),
		ReplyMarkup: Keyboard(msg.Controls),
	})
	if err != nil {
		return 0, classify(chatID, fmt.Errorf("send photo: %w", err))
	}
	return sent.ID, nil
}

func (s *Sender) sendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, config.SendTimeout)
	defer cancel()

	sent, err := s.api.SendMessage(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return sent, nil
}

// classify turns a failed send into a *domain.DeliveryError, marking chats
// that blocked the bot with domain.ErrBotBlocked.
func classify(chatID int64, err error) error {
	if isBlocked(err) {
		err = fmt.Errorf("%w: %v", domain.ErrBotBlocked, err)
	}
	return &domain.DeliveryError{ChatID: chatID, Err: err}
}

func isBlocked(err error) bool {
	if errors.Is(err, bot.ErrorForbidden) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "bot was blocked") ||
		strings.Contains(msg, "user is deactivated") ||
		strings.Contains(msg, "chat not found")
}
