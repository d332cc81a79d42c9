package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/boostbot/internal/config"
	"github.com/set-night/boostbot/internal/conversation"
	"github.com/set-night/boostbot/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu       sync.Mutex
	messages []*bot.SendMessageParams
	photos   []*bot.SendPhotoParams
	err      error
	nextID   int
}

func (f *fakeAPI) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	f.messages = append(f.messages, params)
	return &models.Message{ID: f.nextID}, nil
}

func (f *fakeAPI) SendPhoto(_ context.Context, params *bot.SendPhotoParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	f.photos = append(f.photos, params)
	return &models.Message{ID: f.nextID}, nil
}

func TestSendAttachesKeyboard(t *testing.T) {
	api := &fakeAPI{}
	s := NewSender(api)

	id, err := s.Send(context.Background(), 42, conversation.Message{
		Text:     "hello",
		Controls: [][]conversation.Control{{{Text: "Back", Action: "main_menu"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	require.Len(t, api.messages, 1)
	params := api.messages[0]
	assert.Equal(t, int64(42), params.ChatID)
	assert.Empty(t, params.ParseMode)

	kb, ok := params.ReplyMarkup.(*models.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "main_menu", kb.InlineKeyboard[0][0].CallbackData)
}

func TestSendWithoutControls(t *testing.T) {
	api := &fakeAPI{}
	s := NewSender(api)

	_, err := s.Send(context.Background(), 42, conversation.Message{Text: "plain"})
	require.NoError(t, err)
	assert.Nil(t, api.messages[0].ReplyMarkup)
}

func TestSendSplitsLongText(t *testing.T) {
	api := &fakeAPI{}
	s := NewSender(api)

	line := strings.Repeat("x", 99) + "\n"
	text := strings.Repeat(line, 100)

	id, err := s.Send(context.Background(), 1, conversation.Message{
		Text:     text,
		Controls: [][]conversation.Control{{{Text: "Back", Action: "main_menu"}}},
	})
	require.NoError(t, err)
	require.Len(t, api.messages, 3)
	assert.Equal(t, 3, id, "id of the part carrying the controls")

	assert.Nil(t, api.messages[0].ReplyMarkup)
	assert.NotNil(t, api.messages[2].ReplyMarkup)

	var joined strings.Builder
	for _, m := range api.messages {
		assert.LessOrEqual(t, len([]rune(m.Text)), config.MaxTelegramMessageLen)
		joined.WriteString(m.Text)
	}
	assert.Equal(t, text, joined.String())
}

func TestSendClassifiesBlocked(t *testing.T) {
	api := &fakeAPI{err: fmt.Errorf("%w, Forbidden: bot was blocked by the user", bot.ErrorForbidden)}
	s := NewSender(api)

	_, err := s.Send(context.Background(), 7, conversation.Message{Text: "hi"})
	var de *domain.DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, int64(7), de.ChatID)
	assert.ErrorIs(t, err, domain.ErrBotBlocked)

	api.err = errors.New("connection reset")
	_, err = s.SendPhoto(context.Background(), 7, "file", conversation.Message{Text: "caption"})
	require.ErrorAs(t, err, &de)
	assert.NotErrorIs(t, err, domain.ErrBotBlocked)
}

func TestSendPhotoTruncatesCaption(t *testing.T) {
	api := &fakeAPI{}
	s := NewSender(api)

	_, err := s.SendPhoto(context.Background(), 1, "file-id", conversation.Message{Text: strings.Repeat("a", 2000)})
	require.NoError(t, err)
	require.Len(t, api.photos, 1)

	photo, ok := api.photos[0].Photo.(*models.InputFileString)
	require.True(t, ok)
	assert.Equal(t, "file-id", photo.Data)
	assert.Equal(t, maxCaptionLen, len([]rune(api.photos[0].Caption)))
}

func TestSplitMessageMultibyte(t *testing.T) {
	text := strings.Repeat("ə", 30) + "\n" + strings.Repeat("ş", 30)
	parts := SplitMessage(text, 40)
	require.Len(t, parts, 2)
	assert.Equal(t, strings.Repeat("ə", 30)+"\n", parts[0])
	assert.Equal(t, strings.Repeat("ş", 30), parts[1])
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `user\_name \*x\* \[y]`, EscapeMarkdown("user_name *x* [y]"))
	assert.Equal(t, "a\\`b", EscapeMarkdown("a`b"))
}

func TestTelegramLoggerTopics(t *testing.T) {
	api := &fakeAPI{}
	cfg := &config.Config{Currency: "AZN", LogTelegramChatID: -100, LogTopicOrder: 5}
	l := NewTelegramLogger(api, cfg)
	ctx := context.Background()

	l.LogOrder(ctx, &domain.Order{ID: 3, UserID: 9, ServiceID: "tiktok_like", Quantity: 1000, Cost: decimal.RequireFromString("1.5")}, "some_user")
	l.LogTopUp(ctx, 9, decimal.NewFromInt(5), decimal.NewFromInt(5))

	require.Len(t, api.messages, 1, "topics without an id are skipped")
	msg := api.messages[0]
	assert.Equal(t, 5, msg.MessageThreadID)
	assert.Equal(t, int64(-100), msg.ChatID)
	assert.Contains(t, msg.Text, "New Order #3")
	assert.Contains(t, msg.Text, `some\_user`)
	assert.Contains(t, msg.Text, "1.50 AZN")

	disabled := NewTelegramLogger(api, &config.Config{LogTopicOrder: 5})
	disabled.LogOrder(ctx, &domain.Order{ID: 4}, "")
	assert.Len(t, api.messages, 1)
}

func TestTelegramLoggerErrorEscapesBackticks(t *testing.T) {
	api := &fakeAPI{}
	l := NewTelegramLogger(api, &config.Config{LogTelegramChatID: -100, LogTopicError: 7})

	l.LogError(context.Background(), "inc-1", "kind=text user_id=5", errors.New("pq: syntax error at `status_x`"))

	require.Len(t, api.messages, 1)
	msg := api.messages[0]
	assert.Equal(t, 7, msg.MessageThreadID)
	assert.Contains(t, msg.Text, "*Error:* pq: syntax error at \\`status\\_x\\`\n")
	assert.Contains(t, msg.Text, "`inc-1`")
	assert.Equal(t, 2, strings.Count(msg.Text, "`")-strings.Count(msg.Text, "\\`"), "only the incident id is a code span")
}
