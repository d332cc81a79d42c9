package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/set-night/boostbot/internal/domain"
	"github.com/shopspring/decimal"
)

// InputKind classifies an inbound event.
type InputKind int

const (
	InputText InputKind = iota
	InputPhoto
	InputCallback
	InputCommand
)

func (k InputKind) String() string {
	switch k {
	case InputText:
		return "text"
	case InputPhoto:
		return "photo"
	case InputCallback:
		return "callback"
	case InputCommand:
		return "command"
	default:
		return fmt.Sprintf("input(%d)", int(k))
	}
}

// Event is one inbound update reduced to what the state machine needs.
type Event struct {
	UserID    int64
	ChatID    int64
	Username  string
	FirstName string
	Kind      InputKind

	Text        string
	PhotoFileID string

	// Action is the callback token of a pressed control.
	Action string

	// MessageID is the message the event arrived with, or the message the
	// pressed control is attached to.
	MessageID        int
	ReplyToMessageID int

	Command string
	Args    []string
}

// Describe renders the event for incident reports.
func (e Event) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "kind=%s user_id=%d chat_id=%d", e.Kind, e.UserID, e.ChatID)
	if e.Username != "" {
		fmt.Fprintf(&b, " username=@%s", e.Username)
	}
	switch e.Kind {
	case InputCommand:
		fmt.Fprintf(&b, " command=/%s args=%q", e.Command, e.Args)
	case InputCallback:
		fmt.Fprintf(&b, " action=%q", e.Action)
	case InputPhoto:
		fmt.Fprintf(&b, " photo=%s", e.PhotoFileID)
	default:
		fmt.Fprintf(&b, " text=%q", e.Text)
	}
	return b.String()
}

// Control is an inline button carrying an action token.
type Control struct {
	Text   string
	Action string
}

// Message is an outbound text with optional rows of controls.
type Message struct {
	Text     string
	Controls [][]Control
}

// Notifier delivers outbound messages. Implementations return the id of the
// sent message so relayed messages can be mapped back to their sender.
type Notifier interface {
	Send(ctx context.Context, chatID int64, msg Message) (int, error)
	SendPhoto(ctx context.Context, chatID int64, fileID string, msg Message) (int, error)
}

// EventLogger mirrors notable ledger events to an audit channel.
type EventLogger interface {
	LogOrder(ctx context.Context, order *domain.Order, username string)
	LogTopUp(ctx context.Context, userID int64, amount, balance decimal.Decimal)
	LogPriceChange(ctx context.Context, serviceID string, oldPrice, newPrice decimal.Decimal)
	LogError(ctx context.Context, incidentID string, event string, err error)
}

type nopEventLogger struct{}

func (nopEventLogger) LogOrder(context.Context, *domain.Order, string) {}
func (nopEventLogger) LogTopUp(context.Context, int64, decimal.Decimal, decimal.Decimal) {}
func (nopEventLogger) LogPriceChange(context.Context, string, decimal.Decimal, decimal.Decimal) {}
func (nopEventLogger) LogError(context.Context, string, string, error) {}
