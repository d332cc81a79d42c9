package pricing

import (
	"testing"

	"github.com/set-night/boostbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category domain.Platform
		want     Request
	}{
		{"thousands like on tiktok", "3k like", domain.PlatformTikTok, Request{domain.ServiceTikTokLike, 3000}},
		{"plain follower on instagram", "500 follower", domain.PlatformInstagram, Request{domain.ServiceInstagramFollower, 500}},
		{"upper case and plural", "2K VIEWS", domain.PlatformInstagram, Request{domain.ServiceInstagramView, 2000}},
		{"fractional thousands", "1.5k like", domain.PlatformTikTok, Request{domain.ServiceTikTokLike, 1500}},
		{"decimal comma", "2,5k views", domain.PlatformTikTok, Request{domain.ServiceTikTokView, 2500}},
		{"space before k", "3 k like", domain.PlatformTikTok, Request{domain.ServiceTikTokLike, 3000}},
		{"surrounding whitespace", "  10k follower  ", domain.PlatformTikTok, Request{domain.ServiceTikTokFollower, 10000}},
		{"abuneci needs no category", "1k abuneci", domain.PlatformNone, Request{domain.ServiceTelegramSubscriber, 1000}},
		{"baxis needs no category", "500 baxis", domain.PlatformTikTok, Request{domain.ServiceTelegramView, 500}},
		{"azerbaijani spelling", "2k baxış", domain.PlatformNone, Request{domain.ServiceTelegramView, 2000}},
		{"telegram follower is a subscriber", "1k follower", domain.PlatformTelegram, Request{domain.ServiceTelegramSubscriber, 1000}},
		{"telegram view", "1k view", domain.PlatformTelegram, Request{domain.ServiceTelegramView, 1000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text, tt.category)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNoMatch(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category domain.Platform
		wantErr  error
	}{
		{"free text", "hello, how do I pay?", domain.PlatformTikTok, ErrUnrecognized},
		{"empty", "", domain.PlatformTikTok, ErrUnrecognized},
		{"unknown keyword", "3k comments", domain.PlatformTikTok, ErrUnrecognized},
		{"missing number", "k like", domain.PlatformTikTok, ErrUnrecognized},
		{"zero quantity", "0 like", domain.PlatformTikTok, ErrUnsupportedRequest},
		{"fractional units", "1.5 like", domain.PlatformTikTok, ErrUnsupportedRequest},
		{"too large", "5000k like", domain.PlatformTikTok, ErrUnsupportedRequest},
		{"no telegram likes", "1k like", domain.PlatformTelegram, ErrUnsupportedRequest},
		{"trailing words", "3k like please", domain.PlatformTikTok, ErrUnrecognized},
		{"ambiguous without category", "3k like", domain.PlatformNone, ErrCategoryRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text, tt.category)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, Request{}, got)
		})
	}
}

func TestValidateLink(t *testing.T) {
	valid := []struct {
		link     string
		platform domain.Platform
	}{
		{"https://tiktok.com/@x", domain.PlatformTikTok},
		{"https://www.tiktok.com/@x/video/1", domain.PlatformTikTok},
		{"https://vm.tiktok.com/ZM123/", domain.PlatformTikTok},
		{"https://www.instagram.com/p/abc/", domain.PlatformInstagram},
		{"http://instagram.com/someone", domain.PlatformInstagram},
		{"https://t.me/channel/15", domain.PlatformTelegram},
		{"https://telegram.me/channel", domain.PlatformTelegram},
	}
	for _, tt := range valid {
		assert.NoError(t, ValidateLink(tt.link, tt.platform), tt.link)
	}

	invalid := []struct {
		link     string
		platform domain.Platform
	}{
		{"tiktok.com/@x", domain.PlatformTikTok},
		{"ftp://tiktok.com/@x", domain.PlatformTikTok},
		{"https://tiktok.com.evil.io/@x", domain.PlatformTikTok},
		{"https://youtube.com/watch?v=1", domain.PlatformTikTok},
		{"https://t.me/channel", domain.PlatformInstagram},
		{"not a link", domain.PlatformTelegram},
	}
	for _, tt := range invalid {
		assert.ErrorIs(t, ValidateLink(tt.link, tt.platform), domain.ErrInvalidLink, tt.link)
	}
}
