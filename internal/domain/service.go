package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Service identifiers of the seeded catalog.
const (
	ServiceTikTokLike         = "tiktok_like"
	ServiceTikTokFollower     = "tiktok_follower"
	ServiceTikTokView         = "tiktok_view"
	ServiceInstagramLike      = "instagram_like"
	ServiceInstagramFollower  = "instagram_follower"
	ServiceInstagramView      = "instagram_view"
	ServiceTelegramSubscriber = "telegram_subscriber"
	ServiceTelegramView       = "telegram_view"
)

// Service is a catalog entry priced per 1000 units.
type Service struct {
	ID               string
	PricePerThousand decimal.Decimal
}

// Platform derives the platform from the service id prefix.
func (s Service) Platform() Platform {
	return ServicePlatform(s.ID)
}

// ServicePlatform derives the platform from a service id such as "tiktok_like".
func ServicePlatform(serviceID string) Platform {
	prefix, _, ok := strings.Cut(serviceID, "_")
	if !ok {
		return PlatformNone
	}
	return ParsePlatform(prefix)
}

// DefaultCatalog is inserted at startup when the services are missing.
func DefaultCatalog() []Service {
	return []Service{
		{ID: ServiceTikTokLike, PricePerThousand: decimal.RequireFromString("1.50")},
		{ID: ServiceTikTokFollower, PricePerThousand: decimal.RequireFromString("3.00")},
		{ID: ServiceTikTokView, PricePerThousand: decimal.RequireFromString("0.50")},
		{ID: ServiceInstagramLike, PricePerThousand: decimal.RequireFromString("1.20")},
		{ID: ServiceInstagramFollower, PricePerThousand: decimal.RequireFromString("2.50")},
		{ID: ServiceInstagramView, PricePerThousand: decimal.RequireFromString("0.40")},
		{ID: ServiceTelegramSubscriber, PricePerThousand: decimal.RequireFromString("4.00")},
		{ID: ServiceTelegramView, PricePerThousand: decimal.RequireFromString("0.30")},
	}
}
