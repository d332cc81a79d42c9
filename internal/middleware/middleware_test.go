package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adminCfg int64

func (a adminCfg) IsAdmin(id int64) bool { return id == int64(a) }

func privateMessage(from int64) *models.Update {
	return &models.Update{Message: &models.Message{
		From: &models.User{ID: from, Username: "u", FirstName: "First"},
		Chat: models.Chat{ID: from, Type: models.ChatTypePrivate},
		Text: "hi",
	}}
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow(1))
	assert.True(t, rl.Allow(1))
	assert.False(t, rl.Allow(1))
	assert.True(t, rl.Allow(2), "chats are limited independently")

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow(1))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 2, rl.Prune())
	assert.Empty(t, rl.requests)
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		require.True(t, rl.Allow(1))
	}
}

func TestRateLimitExemptsAdmin(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	calls := 0
	h := RateLimit(rl)(func(context.Context, *bot.Bot, *models.Update) { calls++ })

	ctx := WithUser(context.Background(), &User{ID: 1, IsAdmin: true})
	for i := 0; i < 5; i++ {
		h(ctx, nil, privateMessage(1))
	}
	assert.Equal(t, 5, calls)

	// callbacks are never limited
	cb := &models.Update{CallbackQuery: &models.CallbackQuery{From: models.User{ID: 2}}}
	for i := 0; i < 3; i++ {
		h(context.Background(), nil, cb)
	}
	assert.Equal(t, 8, calls)
}

func TestUserLoader(t *testing.T) {
	var got *User
	h := UserLoader(adminCfg(7))(func(ctx context.Context, _ *bot.Bot, _ *models.Update) {
		got = GetUser(ctx)
	})

	h(context.Background(), nil, privateMessage(7))
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, int64(7), got.ChatID)
	assert.Equal(t, "u", got.Username)
	assert.True(t, got.IsAdmin)

	got = nil
	group := privateMessage(8)
	group.Message.Chat = models.Chat{ID: -100, Type: models.ChatTypeSupergroup}
	h(context.Background(), nil, group)
	assert.Nil(t, got, "group chats are ignored")

	h(context.Background(), nil, &models.Update{ChannelPost: &models.Message{Text: "post"}})
	assert.Nil(t, got)
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestRecover(t *testing.T) {
	logs := captureLogs(t)
	h := Recover()(func(context.Context, *bot.Bot, *models.Update) { panic("boom") })

	update := privateMessage(5)
	update.ID = 77
	update.Message.Text = "/done 3"
	assert.NotPanics(t, func() { h(context.Background(), nil, update) })

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "panic recovered in handler", entry["msg"])
	assert.Equal(t, "command", entry["type"])
	assert.Equal(t, "done", entry["detail"])
	assert.Equal(t, float64(77), entry["update_id"])
	_, err := uuid.Parse(entry["incident_id"].(string))
	assert.NoError(t, err)
}

func TestUpdateKind(t *testing.T) {
	tests := []struct {
		name       string
		update     *models.Update
		wantKind   string
		wantDetail string
	}{
		{"text", &models.Update{Message: &models.Message{Text: "3k like"}}, "text", ""},
		{"command with bot name", &models.Update{Message: &models.Message{Text: "/Add@shop_bot 1 5"}}, "command", "add"},
		{"photo", &models.Update{Message: &models.Message{Photo: []models.PhotoSize{{FileID: "p"}}}}, "photo", ""},
		{"sticker", &models.Update{Message: &models.Message{Sticker: &models.Sticker{FileID: "s"}}}, "message", ""},
		{"callback", &models.Update{CallbackQuery: &models.CallbackQuery{Data: "order_done_4"}}, "callback", "order_done_4"},
		{"channel post", &models.Update{ChannelPost: &models.Message{Text: "post"}}, "unknown", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, detail := UpdateKind(tt.update)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}

func TestLoggingRecordsUpdate(t *testing.T) {
	logs := captureLogs(t)
	called := false
	h := Logging()(func(context.Context, *bot.Bot, *models.Update) { called = true })

	h(context.Background(), nil, &models.Update{CallbackQuery: &models.CallbackQuery{
		From: models.User{ID: 9},
		Data: "cat_tiktok",
	}})
	require.True(t, called)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "update processed", entry["msg"])
	assert.Equal(t, "callback", entry["type"])
	assert.Equal(t, "cat_tiktok", entry["detail"])
	assert.Equal(t, float64(9), entry["user_id"])
	assert.Equal(t, float64(9), entry["chat_id"])
}
