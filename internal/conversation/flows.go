package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/set-night/boostbot/internal/domain"
	"github.com/set-night/boostbot/internal/pricing"
	"github.com/shopspring/decimal"
)

func (m *Machine) transitionTable() map[transitionKey]step {
	return map[transitionKey]step{
		{domain.FlowIdle, InputText}:  m.idleText,
		{domain.FlowIdle, InputPhoto}: m.idlePhoto,

		{domain.FlowAwaitingTopupReceipt, InputText}:  m.receiptExpected,
		{domain.FlowAwaitingTopupReceipt, InputPhoto}: m.receiveReceipt,

		{domain.FlowAwaitingOrderLink, InputText}:  m.receiveOrderLink,
		{domain.FlowAwaitingOrderLink, InputPhoto}: m.linkExpected,

		{domain.FlowAwaitingAdminReply, InputText}:  m.sendAdminReply,
		{domain.FlowAwaitingAdminReply, InputPhoto}: m.replyTextExpected,

		{domain.FlowAwaitingPriceServiceSelection, InputText}:  m.priceServiceExpected,
		{domain.FlowAwaitingPriceServiceSelection, InputPhoto}: m.priceServiceExpected,

		{domain.FlowAwaitingPriceAmount, InputText}:  m.receivePriceAmount,
		{domain.FlowAwaitingPriceAmount, InputPhoto}: m.receivePriceAmount,
	}
}

// idleText tries an admin's native reply to a relayed message first, then
// an order request. Text that is not shaped like a request is relayed to
// the admin.
func (m *Machine) idleText(ctx context.Context, ev Event, s *domain.Session) error {
	if m.isAdmin(ev.UserID) && ev.ReplyToMessageID != 0 {
		target, err := m.relay.Resolve(ctx, ev.ReplyToMessageID)
		switch {
		case err == nil:
			s.ReplyTargetUserID = target
			return m.sendAdminReply(ctx, ev, s)
		case !errors.Is(err, domain.ErrMappingNotFound):
			return fmt.Errorf("resolve relay: %w", err)
		}
	}

	req, err := pricing.Parse(ev.Text, s.Category)
	switch {
	case err == nil:
		return m.quote(ctx, ev, s, req)
	case errors.Is(err, pricing.ErrCategoryRequired):
		m.reply(ctx, ev, categoryMenu(textCategoryNeeded))
		return nil
	case errors.Is(err, pricing.ErrUnsupportedRequest):
		m.reply(ctx, ev, backOnly(textUnrecognized))
		return nil
	}

	if m.isAdmin(ev.UserID) {
		m.reply(ctx, ev, Message{Text: textAdminHint})
		return nil
	}
	return m.relayToAdmin(ctx, ev)
}

func (m *Machine) quote(ctx context.Context, ev Event, s *domain.Session, req pricing.Request) error {
	cost, err := m.catalog.Quote(req.ServiceID, req.Quantity)
	if err != nil {
		if errors.Is(err, domain.ErrServiceNotFound) {
			m.reply(ctx, ev, Message{Text: textUnrecognized})
			return nil
		}
		return fmt.Errorf("quote: %w", err)
	}

	balance, err := m.balances.GetBalance(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if balance.LessThan(cost) {
		s.Draft = nil
		m.reply(ctx, ev, Message{
			Text:     m.shortfallText(&domain.InsufficientBalanceError{Required: cost, Available: balance}),
			Controls: [][]Control{{{Text: "💳 Top up", Action: ActionTopUp}}, {backControl}},
		})
		return nil
	}

	s.Flow = domain.FlowAwaitingOrderLink
	s.Draft = &domain.DraftOrder{ServiceID: req.ServiceID, Quantity: req.Quantity, Cost: cost}
	m.reply(ctx, ev, backOnly(m.quoteText(s.Draft)))
	return nil
}

func (m *Machine) relayToAdmin(ctx context.Context, ev Event) error {
	msgID, err := m.notify(ctx, m.opts.AdminID, Message{
		Text:     relayText(ev),
		Controls: [][]Control{{{Text: "↩️ Reply", Action: ActionAdminReply}}},
	})
	if err != nil {
		m.reply(ctx, ev, backOnly("⚠️ Your message could not be delivered to the administrator. Please try again later."))
		return nil
	}
	if err := m.relay.Record(ctx, ev.UserID, msgID); err != nil {
		return err
	}
	m.reply(ctx, ev, backOnly(textContactSent))
	return nil
}

func (m *Machine) idlePhoto(ctx context.Context, ev Event, _ *domain.Session) error {
	m.reply(ctx, ev, Message{Text: textPhotoIdle, Controls: mainMenuControls()})
	return nil
}

func (m *Machine) receiptExpected(ctx context.Context, ev Event, _ *domain.Session) error {
	m.reply(ctx, ev, backOnly(textTopUpReceiptPrompt))
	return nil
}

// receiveReceipt forwards the receipt; crediting stays a manual admin step.
func (m *Machine) receiveReceipt(ctx context.Context, ev Event, s *domain.Session) error {
	if _, err := m.notifyPhoto(ctx, m.opts.AdminID, ev.PhotoFileID, Message{Text: receiptCaption(ev)}); err != nil {
		m.reply(ctx, ev, backOnly(textTopUpRetry))
		return nil
	}
	s.Finish()
	m.reply(ctx, ev, Message{Text: textTopUpReceiptSent, Controls: mainMenuControls()})
	return nil
}

func (m *Machine) linkExpected(ctx context.Context, ev Event, _ *domain.Session) error {
	m.reply(ctx, ev, backOnly(textLinkPhoto))
	return nil
}

// receiveOrderLink validates the link and places the drafted order. The
// debit re-checks the balance as it is at that moment.
func (m *Machine) receiveOrderLink(ctx context.Context, ev Event, s *domain.Session) error {
	draft := s.Draft
	if draft == nil {
		s.Finish()
		m.reply(ctx, ev, Message{Text: textMainMenu, Controls: mainMenuControls()})
		return nil
	}

	link := strings.TrimSpace(ev.Text)
	platform := domain.ServicePlatform(draft.ServiceID)
	if err := pricing.ValidateLink(link, platform); err != nil {
		m.reply(ctx, ev, backOnly(fmt.Sprintf(textLinkInvalid, platform.Title())))
		return nil
	}

	order, balance, err := m.orders.Place(ctx, ev.UserID, draft.ServiceID, draft.Quantity, link, draft.Cost)
	if err != nil {
		var ibe *domain.InsufficientBalanceError
		if errors.As(err, &ibe) {
			s.Finish()
			m.reply(ctx, ev, Message{
				Text:     m.shortfallText(ibe),
				Controls: [][]Control{{{Text: "💳 Top up", Action: ActionTopUp}}, {backControl}},
			})
			return nil
		}
		return fmt.Errorf("place order: %w", err)
	}
	s.Finish()

	slog.Info("order placed", "order_id", order.ID, "user_id", ev.UserID, "service_id", order.ServiceID, "cost", order.Cost.String())
	m.events.LogOrder(ctx, order, ev.Username)

	text := m.orderPlacedText(order, balance)
	_, err = m.notify(ctx, m.opts.AdminID, Message{
		Text:     m.adminOrderText(order, ev),
		Controls: [][]Control{{{Text: "✅ Mark done", Action: fmt.Sprintf("%s%d", ActionOrderDonePrefix, order.ID)}}},
	})
	if err != nil {
		text += "\n\n⚠️ The administrator could not be notified automatically. Please contact them with your order number."
	}
	m.reply(ctx, ev, Message{Text: text, Controls: mainMenuControls()})
	return nil
}

func (m *Machine) sendAdminReply(ctx context.Context, ev Event, s *domain.Session) error {
	target := s.ReplyTargetUserID
	s.Finish()
	if target == 0 {
		m.reply(ctx, ev, Message{Text: textMappingMissing})
		return nil
	}

	if _, err := m.notify(ctx, target, Message{
		Text:     "✉️ Message from the administrator:\n\n" + ev.Text,
		Controls: [][]Control{{{Text: "✉️ Answer", Action: ActionContact}}},
	}); err != nil {
		m.reply(ctx, ev, Message{Text: deliveryWarning(target)})
		return nil
	}
	m.reply(ctx, ev, Message{Text: fmt.Sprintf(textReplySent, target)})
	return nil
}

func (m *Machine) replyTextExpected(ctx context.Context, ev Event, _ *domain.Session) error {
	m.reply(ctx, ev, backOnly(textReplyTextOnly))
	return nil
}

func (m *Machine) priceServiceExpected(ctx context.Context, ev Event, _ *domain.Session) error {
	m.reply(ctx, ev, backOnly(textPriceChooseHint))
	return nil
}

// receivePriceAmount applies a new price. Invalid input ends the flow.
func (m *Machine) receivePriceAmount(ctx context.Context, ev Event, s *domain.Session) error {
	serviceID := s.PriceServiceID
	s.Reset()

	price, ok := parsePositiveDecimal(ev.Text, 4)
	if !ok {
		m.reply(ctx, ev, Message{Text: textPriceInvalid})
		return nil
	}

	old, err := m.catalog.GetPrice(serviceID)
	if err != nil {
		if errors.Is(err, domain.ErrServiceNotFound) {
			m.reply(ctx, ev, Message{Text: textPriceStartFirst})
			return nil
		}
		return err
	}
	if err := m.catalog.SetPrice(ctx, serviceID, price); err != nil {
		return fmt.Errorf("set price: %w", err)
	}

	slog.Info("price changed", "service_id", serviceID, "old", old.String(), "new", price.String())
	m.events.LogPriceChange(ctx, serviceID, old, price)
	m.reply(ctx, ev, Message{Text: fmt.Sprintf(textPriceUpdated, serviceID, m.money(price))})
	return nil
}

// parsePositiveDecimal accepts both "2.5" and "2,5".
func parsePositiveDecimal(text string, places int32) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.Replace(strings.TrimSpace(text), ",", ".", 1))
	if err != nil {
		return decimal.Zero, false
	}
	d = d.Round(places)
	if !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}
