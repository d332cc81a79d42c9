package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/set-night/boostbot/internal/domain"
)

type command struct {
	admin bool
	run   func(ctx context.Context, ev Event, s *domain.Session) error
}

func (m *Machine) commandTable() map[string]command {
	return map[string]command{
		"start":       {run: m.cmdStart},
		"cancel":      {run: m.cmdCancel},
		"balance":     {run: m.cmdBalance},
		"add":         {admin: true, run: m.cmdAdd},
		"done":        {admin: true, run: m.cmdDone},
		"orders":      {admin: true, run: m.cmdOrders},
		"get_balance": {admin: true, run: m.cmdGetBalance},
		"set_price":   {admin: true, run: m.cmdSetPrice},
	}
}

// handleCommand runs a slash command. Admin commands never touch the
// session of the user they target.
func (m *Machine) handleCommand(ctx context.Context, ev Event, s *domain.Session) error {
	cmd, ok := m.commands[ev.Command]
	if !ok {
		m.reply(ctx, ev, Message{Text: textUnknownCommand})
		return nil
	}
	if cmd.admin {
		if err := m.authorize(ev); err != nil {
			slog.Warn("admin command rejected", "user_id", ev.UserID, "command", ev.Command, "error", err)
			m.reply(ctx, ev, Message{Text: textNotAuthorized})
			return nil
		}
	}
	return cmd.run(ctx, ev, s)
}

func (m *Machine) cmdStart(ctx context.Context, ev Event, s *domain.Session) error {
	s.Reset()
	m.reply(ctx, ev, Message{Text: textWelcome, Controls: mainMenuControls()})
	return nil
}

func (m *Machine) cmdCancel(ctx context.Context, ev Event, s *domain.Session) error {
	return m.mainMenu(ctx, ev, s, "")
}

func (m *Machine) cmdBalance(ctx context.Context, ev Event, s *domain.Session) error {
	return m.showBalance(ctx, ev, s, "")
}

func (m *Machine) cmdAdd(ctx context.Context, ev Event, _ *domain.Session) error {
	if len(ev.Args) != 2 {
		m.reply(ctx, ev, Message{Text: textUsageAdd})
		return nil
	}
	userID, err := strconv.ParseInt(ev.Args[0], 10, 64)
	if err != nil || userID <= 0 {
		m.reply(ctx, ev, Message{Text: textUsageAdd})
		return nil
	}
	amount, ok := parsePositiveDecimal(ev.Args[1], 2)
	if !ok {
		m.reply(ctx, ev, Message{Text: textInvalidAmount + "\n" + textUsageAdd})
		return nil
	}

	balance, err := m.balances.Credit(ctx, userID, amount)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAmount) {
			m.reply(ctx, ev, Message{Text: textInvalidAmount})
			return nil
		}
		return fmt.Errorf("credit: %w", err)
	}

	slog.Info("balance credited", "user_id", userID, "amount", amount.String(), "balance", balance.String())
	m.events.LogTopUp(ctx, userID, amount, balance)

	text := fmt.Sprintf("Credited %s to user %d. New balance: %s", m.money(amount), userID, m.money(balance))
	if _, err := m.notify(ctx, userID, Message{
		Text: fmt.Sprintf("💰 Your balance was topped up by %s.\nBalance: %s", m.money(amount), m.money(balance)),
	}); err != nil {
		text += "\n" + deliveryWarning(userID)
	}
	m.reply(ctx, ev, Message{Text: text})
	return nil
}

func (m *Machine) cmdDone(ctx context.Context, ev Event, _ *domain.Session) error {
	if len(ev.Args) != 1 {
		m.reply(ctx, ev, Message{Text: textUsageDone})
		return nil
	}
	orderID, err := strconv.ParseInt(ev.Args[0], 10, 64)
	if err != nil || orderID <= 0 {
		m.reply(ctx, ev, Message{Text: textUsageDone})
		return nil
	}
	return m.completeOrder(ctx, ev, orderID)
}

// completeOrder notifies the buyer only on the transition itself, so a
// repeated completion sends no duplicate notice.
func (m *Machine) completeOrder(ctx context.Context, ev Event, orderID int64) error {
	order, changed, err := m.orders.Complete(ctx, orderID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			m.reply(ctx, ev, Message{Text: fmt.Sprintf(textOrderNotFound, orderID)})
			return nil
		case errors.Is(err, domain.ErrInvalidStatusTransition):
			m.reply(ctx, ev, Message{Text: fmt.Sprintf("Order #%d cannot be completed.", orderID)})
			return nil
		}
		return fmt.Errorf("complete order: %w", err)
	}
	if !changed {
		m.reply(ctx, ev, Message{Text: fmt.Sprintf(textAlreadyDone, orderID)})
		return nil
	}

	slog.Info("order completed", "order_id", order.ID, "user_id", order.UserID)

	text := fmt.Sprintf("Order #%d marked as completed.", order.ID)
	if _, err := m.notify(ctx, order.UserID, Message{Text: orderDoneText(order)}); err != nil {
		text += "\n" + deliveryWarning(order.UserID)
	}
	m.reply(ctx, ev, Message{Text: text})
	return nil
}

func (m *Machine) cmdOrders(ctx context.Context, ev Event, _ *domain.Session) error {
	orders, err := m.orders.List(ctx, m.opts.OrdersLimit)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		m.reply(ctx, ev, Message{Text: textNoOrders})
		return nil
	}
	m.reply(ctx, ev, Message{Text: m.ordersText(orders)})
	return nil
}

func (m *Machine) cmdGetBalance(ctx context.Context, ev Event, _ *domain.Session) error {
	if len(ev.Args) != 1 {
		m.reply(ctx, ev, Message{Text: textUsageGetBalance})
		return nil
	}
	userID, err := strconv.ParseInt(ev.Args[0], 10, 64)
	if err != nil || userID <= 0 {
		m.reply(ctx, ev, Message{Text: textUsageGetBalance})
		return nil
	}
	balance, err := m.balances.GetBalance(ctx, userID)
	if err != nil {
		return err
	}
	m.reply(ctx, ev, Message{Text: fmt.Sprintf("Balance of user %d: %s", userID, m.money(balance))})
	return nil
}

func (m *Machine) cmdSetPrice(ctx context.Context, ev Event, s *domain.Session) error {
	s.Reset()
	s.Flow = domain.FlowAwaitingPriceServiceSelection

	var rows [][]Control
	for _, svc := range m.catalog.List() {
		rows = append(rows, []Control{{
			Text:   fmt.Sprintf("%s (%s)", svc.ID, formatPrice(svc.PricePerThousand)),
			Action: ActionSetPricePrefix + svc.ID,
		}})
	}
	rows = append(rows, []Control{backControl})
	m.reply(ctx, ev, Message{Text: textPriceChooseService, Controls: rows})
	return nil
}
