package domain

import "strings"

// Platform is a social network the shop sells engagement for. It doubles as
// the "category" a user selects before typing a request.
type Platform string

const (
	PlatformNone      Platform = ""
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformTelegram  Platform = "telegram"
)

// Platforms lists the supported platforms in menu order.
var Platforms = []Platform{PlatformTikTok, PlatformInstagram, PlatformTelegram}

// ParsePlatform returns the platform named by s, or PlatformNone.
func ParsePlatform(s string) Platform {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformTikTok:
		return PlatformTikTok
	case PlatformInstagram:
		return PlatformInstagram
	case PlatformTelegram:
		return PlatformTelegram
	default:
		return PlatformNone
	}
}

func (p Platform) Title() string {
	switch p {
	case PlatformTikTok:
		return "TikTok"
	case PlatformInstagram:
		return "Instagram"
	case PlatformTelegram:
		return "Telegram"
	default:
		return "-"
	}
}
