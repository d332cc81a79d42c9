package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Flow is the multi-turn conversation a user is currently in.
type Flow string

const (
	FlowIdle                          Flow = "idle"
	FlowAwaitingTopupReceipt          Flow = "awaiting_topup_receipt"
	FlowAwaitingOrderLink             Flow = "awaiting_order_link"
	FlowAwaitingAdminReply            Flow = "awaiting_admin_reply"
	FlowAwaitingPriceServiceSelection Flow = "awaiting_price_service_selection"
	FlowAwaitingPriceAmount           Flow = "awaiting_price_amount"
)

// DraftOrder is a priced order waiting for the target link.
type DraftOrder struct {
	ServiceID string
	Quantity  int64
	Cost      decimal.Decimal
}

// Session is the per-user conversation state. It lives in memory only.
type Session struct {
	UserID int64
	Flow   Flow

	// Category resolves ambiguous keywords ("like", "view") in order requests.
	Category Platform

	Draft             *DraftOrder
	ReplyTargetUserID int64
	PriceServiceID    string

	UpdatedAt time.Time
}

// NewSession returns an idle session for userID.
func NewSession(userID int64) *Session {
	return &Session{UserID: userID, Flow: FlowIdle}
}

// Reset returns the session to idle and drops all working data.
func (s *Session) Reset() {
	s.Flow = FlowIdle
	s.Category = PlatformNone
	s.Draft = nil
	s.ReplyTargetUserID = 0
	s.PriceServiceID = ""
}

// Finish returns to idle after a completed flow. The selected category is
// kept so the user can place another order without choosing it again.
func (s *Session) Finish() {
	category := s.Category
	s.Reset()
	s.Category = category
}

// IsIdle reports whether the session holds nothing worth storing.
func (s *Session) IsIdle() bool {
	return s.Flow == FlowIdle && s.Category == PlatformNone
}
