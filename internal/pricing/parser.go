// Package pricing turns free-text order requests such as "3k like" into a
// catalog service and a unit quantity, and validates target links.
package pricing

import (
	"errors"
	"regexp"
	"strings"

	"github.com/set-night/boostbot/internal/config"
	"github.com/set-night/boostbot/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	// ErrUnrecognized means the text is not an order request at all.
	ErrUnrecognized = errors.New("unrecognized request format")
	// ErrUnsupportedRequest means the text has the request shape but names
	// a quantity or service combination that cannot be ordered.
	ErrUnsupportedRequest = errors.New("unsupported request")
	// ErrCategoryRequired means the keyword needs a selected platform.
	ErrCategoryRequired = errors.New("platform category required")
)

// Request is a parsed order request.
type Request struct {
	ServiceID string
	Quantity  int64
}

type keyword int

const (
	keywordLike keyword = iota
	keywordFollower
	keywordView
	keywordSubscriber
	keywordTelegramView
)

var keywords = map[string]keyword{
	"like":      keywordLike,
	"likes":     keywordLike,
	"follower":  keywordFollower,
	"followers": keywordFollower,
	"view":      keywordView,
	"views":     keywordView,
	"abuneci":   keywordSubscriber,
	"abunəçi":   keywordSubscriber,
	"baxis":     keywordTelegramView,
	"baxış":     keywordTelegramView,
}

// <number>[k] <keyword>, e.g. "3k like", "500 follower", "1.5K views".
var requestPattern = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s*(k?)\s+(\p{L}+)$`)

var thousand = decimal.NewFromInt(config.PriceUnit)

// Parse resolves text against the user's selected category. Text without the
// request shape yields ErrUnrecognized, a well-formed request that names no
// orderable service or quantity yields ErrUnsupportedRequest.
func Parse(text string, category domain.Platform) (Request, error) {
	m := requestPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(text)))
	if m == nil {
		return Request{}, ErrUnrecognized
	}

	kw, ok := keywords[m[3]]
	if !ok {
		return Request{}, ErrUnrecognized
	}

	quantity, ok := parseQuantity(m[1], m[2] == "k")
	if !ok {
		return Request{}, ErrUnsupportedRequest
	}

	serviceID, err := resolveService(kw, category)
	if err != nil {
		return Request{}, err
	}

	return Request{ServiceID: serviceID, Quantity: quantity}, nil
}

func parseQuantity(number string, thousands bool) (int64, bool) {
	n, err := decimal.NewFromString(strings.Replace(number, ",", ".", 1))
	if err != nil {
		return 0, false
	}
	if thousands {
		n = n.Mul(thousand)
	}
	// fractional units ("1.5 like") are not orderable
	if !n.IsInteger() || !n.IsPositive() {
		return 0, false
	}
	if n.GreaterThan(decimal.NewFromInt(config.MaxOrderQuantity)) {
		return 0, false
	}
	return n.IntPart(), true
}

func resolveService(kw keyword, category domain.Platform) (string, error) {
	switch kw {
	case keywordSubscriber:
		return domain.ServiceTelegramSubscriber, nil
	case keywordTelegramView:
		return domain.ServiceTelegramView, nil
	}

	switch category {
	case domain.PlatformTikTok:
		return pick(kw, domain.ServiceTikTokLike, domain.ServiceTikTokFollower, domain.ServiceTikTokView)
	case domain.PlatformInstagram:
		return pick(kw, domain.ServiceInstagramLike, domain.ServiceInstagramFollower, domain.ServiceInstagramView)
	case domain.PlatformTelegram:
		// telegram sells no likes
		return pick(kw, "", domain.ServiceTelegramSubscriber, domain.ServiceTelegramView)
	default:
		return "", ErrCategoryRequired
	}
}

func pick(kw keyword, like, follower, view string) (string, error) {
	var id string
	switch kw {
	case keywordLike:
		id = like
	case keywordFollower:
		id = follower
	case keywordView:
		id = view
	}
	if id == "" {
		return "", ErrUnsupportedRequest
	}
	return id, nil
}
