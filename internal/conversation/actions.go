package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/set-night/boostbot/internal/domain"
)

// action is a callback handler. A press of an action that does not belong
// to the user's current flow first resets the session.
type action struct {
	token  string
	prefix bool
	flows  []domain.Flow
	admin  bool
	run    func(ctx context.Context, ev Event, s *domain.Session, arg string) error
}

func (a action) match(token string) (string, bool) {
	if a.prefix {
		return strings.CutPrefix(token, a.token)
	}
	return "", token == a.token
}

func (a action) belongsTo(flow domain.Flow) bool {
	return flow == domain.FlowIdle || slices.Contains(a.flows, flow)
}

func (m *Machine) actionTable() []action {
	return []action{
		{token: ActionMainMenu, run: m.mainMenu},
		{token: ActionBalance, run: m.showBalance},
		{token: ActionPrices, run: m.showPrices},
		{token: ActionOrder, run: m.chooseCategory},
		{token: ActionCategoryPrefix, prefix: true, run: m.selectCategory},
		{token: ActionTopUp, flows: []domain.Flow{domain.FlowAwaitingTopupReceipt}, run: m.startTopUp},
		{token: ActionTopUpConfirm, flows: []domain.Flow{domain.FlowAwaitingTopupReceipt}, run: m.confirmTopUp},
		{token: ActionContact, run: m.contact},
		{token: ActionAdminReply, admin: true, run: m.startAdminReply},
		{token: ActionSetPricePrefix, prefix: true, admin: true, flows: []domain.Flow{domain.FlowAwaitingPriceServiceSelection}, run: m.selectPriceService},
		{token: ActionOrderDonePrefix, prefix: true, admin: true, run: m.completeOrderAction},
	}
}

func (m *Machine) handleCallback(ctx context.Context, ev Event, s *domain.Session) error {
	for _, a := range m.actions {
		arg, ok := a.match(ev.Action)
		if !ok {
			continue
		}
		if a.admin {
			if err := m.authorize(ev); err != nil {
				slog.Warn("admin action rejected", "user_id", ev.UserID, "action", ev.Action, "error", err)
				m.reply(ctx, ev, Message{Text: textNotAuthorized})
				return nil
			}
		}
		if !a.belongsTo(s.Flow) {
			s.Reset()
		}
		return a.run(ctx, ev, s, arg)
	}

	m.reply(ctx, ev, Message{Text: textUnknownAction, Controls: mainMenuControls()})
	return nil
}

func (m *Machine) mainMenu(ctx context.Context, ev Event, s *domain.Session, _ string) error {
	s.Reset()
	m.reply(ctx, ev, Message{Text: textMainMenu, Controls: mainMenuControls()})
	return nil
}

func (m *Machine) showBalance(ctx context.Context, ev Event, _ *domain.Session, _ string) error {
	balance, err := m.balances.GetBalance(ctx, ev.UserID)
	if err != nil {
		return err
	}
	m.reply(ctx, ev, Message{
		Text:     "💰 Your balance: " + m.money(balance),
		Controls: [][]Control{{{Text: "💳 Top up", Action: ActionTopUp}}, {backControl}},
	})
	return nil
}

func (m *Machine) showPrices(ctx context.Context, ev Event, _ *domain.Session, _ string) error {
	m.reply(ctx, ev, backOnly(m.priceList(m.catalog.List())))
	return nil
}

func (m *Machine) chooseCategory(ctx context.Context, ev Event, _ *domain.Session, _ string) error {
	m.reply(ctx, ev, categoryMenu(textChooseCategory))
	return nil
}

func (m *Machine) selectCategory(ctx context.Context, ev Event, s *domain.Session, arg string) error {
	p := domain.ParsePlatform(arg)
	if p == domain.PlatformNone {
		m.reply(ctx, ev, categoryMenu(textChooseCategory))
		return nil
	}
	s.Category = p
	m.reply(ctx, ev, backOnly(m.categoryText(p, m.catalog.ListByPlatform(p))))
	return nil
}

func (m *Machine) startTopUp(ctx context.Context, ev Event, s *domain.Session, _ string) error {
	s.Flow = domain.FlowAwaitingTopupReceipt
	m.reply(ctx, ev, Message{
		Text:     m.topUpText(),
		Controls: [][]Control{{{Text: "✅ I have paid", Action: ActionTopUpConfirm}}, {backControl}},
	})
	return nil
}

func (m *Machine) confirmTopUp(ctx context.Context, ev Event, s *domain.Session, _ string) error {
	s.Flow = domain.FlowAwaitingTopupReceipt
	m.reply(ctx, ev, backOnly(textTopUpReceiptPrompt))
	return nil
}

func (m *Machine) contact(ctx context.Context, ev Event, _ *domain.Session, _ string) error {
	m.reply(ctx, ev, backOnly(textContactPrompt))
	return nil
}

// startAdminReply resolves the relayed message the pressed control is
// attached to.
func (m *Machine) startAdminReply(ctx context.Context, ev Event, s *domain.Session, _ string) error {
	target, err := m.relay.Resolve(ctx, ev.MessageID)
	if err != nil {
		if errors.Is(err, domain.ErrMappingNotFound) {
			m.reply(ctx, ev, Message{Text: textMappingMissing})
			return nil
		}
		return err
	}
	s.Flow = domain.FlowAwaitingAdminReply
	s.ReplyTargetUserID = target
	m.reply(ctx, ev, backOnly(fmt.Sprintf(textReplyPrompt, target)))
	return nil
}

func (m *Machine) selectPriceService(ctx context.Context, ev Event, s *domain.Session, serviceID string) error {
	if s.Flow != domain.FlowAwaitingPriceServiceSelection {
		m.reply(ctx, ev, Message{Text: textPriceStartFirst})
		return nil
	}
	price, err := m.catalog.GetPrice(serviceID)
	if err != nil {
		s.Reset()
		m.reply(ctx, ev, Message{Text: textPriceStartFirst})
		return nil
	}
	s.Flow = domain.FlowAwaitingPriceAmount
	s.PriceServiceID = serviceID
	m.reply(ctx, ev, backOnly(fmt.Sprintf(textPriceAmountPrompt, serviceID, m.money(price))))
	return nil
}

func (m *Machine) completeOrderAction(ctx context.Context, ev Event, _ *domain.Session, arg string) error {
	orderID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || orderID <= 0 {
		m.reply(ctx, ev, Message{Text: textUnknownAction})
		return nil
	}
	return m.completeOrder(ctx, ev, orderID)
}
