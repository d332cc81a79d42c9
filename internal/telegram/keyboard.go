package telegram

import (
	"github.com/go-telegram/bot/models"
	"github.com/set-night/boostbot/internal/conversation"
)

// InlineButton creates a single inline keyboard button.
func InlineButton(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// InlineKeyboard creates an inline keyboard from rows of buttons.
func InlineKeyboard(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: rows,
	}
}

// Keyboard converts conversation controls into an inline keyboard. It
// returns nil when there is nothing to show.
func Keyboard(controls [][]conversation.Control) models.ReplyMarkup {
	var rows [][]models.InlineKeyboardButton
	for _, row := range controls {
		if len(row) == 0 {
			continue
		}
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, c := range row {
			buttons = append(buttons, InlineButton(c.Text, c.Action))
		}
		rows = append(rows, buttons)
	}
	if len(rows) == 0 {
		return nil
	}
	return InlineKeyboard(rows...)
}
