package pricing

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/set-night/boostbot/internal/domain"
)

var allowedHosts = map[domain.Platform][]string{
	domain.PlatformTikTok:    {"tiktok.com", "vm.tiktok.com", "vt.tiktok.com", "m.tiktok.com"},
	domain.PlatformInstagram: {"instagram.com", "instagr.am", "m.instagram.com"},
	domain.PlatformTelegram:  {"t.me", "telegram.me", "telegram.dog"},
}

// LinkPlatform returns the platform whose allow-list contains the link host.
func LinkPlatform(link string) (domain.Platform, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return domain.PlatformNone, fmt.Errorf("%w: %v", domain.ErrInvalidLink, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return domain.PlatformNone, fmt.Errorf("%w: scheme %q", domain.ErrInvalidLink, u.Scheme)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for platform, hosts := range allowedHosts {
		for _, h := range hosts {
			if host == h {
				return platform, nil
			}
		}
	}
	return domain.PlatformNone, fmt.Errorf("%w: host %q", domain.ErrInvalidLink, host)
}

// ValidateLink checks that link points at the given platform.
func ValidateLink(link string, platform domain.Platform) error {
	got, err := LinkPlatform(link)
	if err != nil {
		return err
	}
	if got != platform {
		return fmt.Errorf("%w: %s link for a %s service", domain.ErrInvalidLink, got, platform)
	}
	return nil
}
