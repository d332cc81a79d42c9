package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/set-night/boostbot/internal/config"
	"github.com/set-night/boostbot/internal/conversation"
	"github.com/set-night/boostbot/internal/domain"
	"github.com/shopspring/decimal"
)

var _ conversation.EventLogger = (*TelegramLogger)(nil)

// TelegramLogger mirrors ledger events to a log chat, one forum topic per
// event type. It is a no-op unless LOG_TELEGRAM_CHAT_ID is set.
type TelegramLogger struct {
	api BotAPI
	cfg *config.Config
}

func NewTelegramLogger(api BotAPI, cfg *config.Config) *TelegramLogger {
	return &TelegramLogger{api: api, cfg: cfg}
}

type LogType string

const (
	LogTypeError        LogType = "error"
	LogTypeOrder        LogType = "order"
	LogTypeBalanceTopUp LogType = "balanceTopUp"
	LogTypePriceChange  LogType = "priceChange"
)

func (l *TelegramLogger) Log(ctx context.Context, logType LogType, message string) {
	if l.cfg.LogTelegramChatID == 0 {
		return
	}

	topicID := l.getTopicID(logType)
	if topicID == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.SendTimeout)
	defer cancel()

	_, err := l.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          l.cfg.LogTelegramChatID,
		Text:            Truncate(message, config.MaxTelegramMessageLen),
		ParseMode:       "Markdown",
		MessageThreadID: topicID,
	})
	if err != nil {
		slog.Error("failed to send telegram log", "type", logType, "error", err)
	}
}

func (l *TelegramLogger) LogError(ctx context.Context, incidentID string, event string, err error) {
	// the error goes outside a code span, escapes are ignored inside one
	msg := fmt.Sprintf("❌ *Error*\n\n*Incident:* `%s`\n*Event:* %s\n*Error:* %s\n*Time:* %s",
		incidentID, EscapeMarkdown(event), EscapeMarkdown(err.Error()), time.Now().Format("2006-01-02 15:04:05"))
	l.Log(ctx, LogTypeError, msg)
}

func (l *TelegramLogger) LogOrder(ctx context.Context, order *domain.Order, username string) {
	msg := fmt.Sprintf("🛒 *New Order #%d*\n\n*User:* `%d`",
		order.ID, order.UserID)
	if username != "" {
		msg += fmt.Sprintf(" (@%s)", EscapeMarkdown(username))
	}
	msg += fmt.Sprintf("\n*Service:* %s\n*Quantity:* %d\n*Cost:* %s %s\n*Link:* %s",
		EscapeMarkdown(order.ServiceID), order.Quantity, order.Cost.StringFixed(2), l.cfg.Currency, EscapeMarkdown(order.Link))
	l.Log(ctx, LogTypeOrder, msg)
}

func (l *TelegramLogger) LogTopUp(ctx context.Context, userID int64, amount, balance decimal.Decimal) {
	msg := fmt.Sprintf("💰 *Balance Top-Up*\n\n*User:* `%d`\n*Amount:* %s %s\n*Balance:* %s %s",
		userID, amount.StringFixed(2), l.cfg.Currency, balance.StringFixed(2), l.cfg.Currency)
	l.Log(ctx, LogTypeBalanceTopUp, msg)
}

func (l *TelegramLogger) LogPriceChange(ctx context.Context, serviceID string, oldPrice, newPrice decimal.Decimal) {
	msg := fmt.Sprintf("🏷 *Price Change*\n\n*Service:* %s\n*Old:* %s %s\n*New:* %s %s",
		EscapeMarkdown(serviceID), oldPrice.String(), l.cfg.Currency, newPrice.String(), l.cfg.Currency)
	l.Log(ctx, LogTypePriceChange, msg)
}

func (l *TelegramLogger) getTopicID(logType LogType) int {
	switch logType {
	case LogTypeError:
		return l.cfg.LogTopicError
	case LogTypeOrder:
		return l.cfg.LogTopicOrder
	case LogTypeBalanceTopUp:
		return l.cfg.LogTopicBalance
	case LogTypePriceChange:
		return l.cfg.LogTopicPriceChange
	default:
		return 0
	}
}
