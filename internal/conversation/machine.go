// Package conversation implements the per-user dialog: which flow a user is
// in, how their next input is interpreted and which ledger operation it
// triggers.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/boostbot/internal/domain"
	"github.com/set-night/boostbot/internal/service"
)

type Options struct {
	AdminID       int64
	Currency      string
	PaymentCard   string
	PaymentHolder string

	// OrdersLimit caps /orders. Zero lists every order.
	OrdersLimit int
}

type Deps struct {
	Balances *service.BalanceService
	Catalog  *service.CatalogService
	Orders   *service.OrderService
	Relay    *service.RelayService
	Sessions SessionStore
	Notifier Notifier
	Events   EventLogger
}

// step handles one input in one flow. It may mutate the session; the
// machine persists it afterwards.
type step func(ctx context.Context, ev Event, s *domain.Session) error

type transitionKey struct {
	flow domain.Flow
	kind InputKind
}

type Machine struct {
	balances *service.BalanceService
	catalog  *service.CatalogService
	orders   *service.OrderService
	relay    *service.RelayService
	sessions SessionStore
	notifier Notifier
	events   EventLogger
	locks    *Locker
	opts     Options
	now      func() time.Time

	transitions map[transitionKey]step
	actions     []action
	commands    map[string]command
}

func New(deps Deps, opts Options) *Machine {
	if deps.Events == nil {
		deps.Events = nopEventLogger{}
	}
	m := &Machine{
		balances: deps.Balances,
		catalog:  deps.Catalog,
		orders:   deps.Orders,
		relay:    deps.Relay,
		sessions: deps.Sessions,
		notifier: deps.Notifier,
		events:   deps.Events,
		locks:    NewLocker(),
		opts:     opts,
		now:      time.Now,
	}
	m.transitions = m.transitionTable()
	m.actions = m.actionTable()
	m.commands = m.commandTable()
	return m
}

func (m *Machine) isAdmin(userID int64) bool {
	return userID == m.opts.AdminID
}

// authorize fails with domain.ErrNotAuthorized unless ev comes from the admin.
func (m *Machine) authorize(ev Event) error {
	if !m.isAdmin(ev.UserID) {
		return fmt.Errorf("%w: user %d", domain.ErrNotAuthorized, ev.UserID)
	}
	return nil
}

// Handle processes one event. Events of the same user are serialized;
// every error is dealt with here and never reaches the caller.
func (m *Machine) Handle(ctx context.Context, ev Event) {
	unlock := m.locks.Lock(ev.UserID)
	defer unlock()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in conversation", "user_id", ev.UserID, "panic", r, "stack", string(debug.Stack()))
			if err := m.sessions.Delete(ctx, ev.UserID); err != nil {
				slog.Error("failed to drop session", "user_id", ev.UserID, "error", err)
			}
			m.reportIncident(ctx, ev, fmt.Errorf("panic: %v", r))
		}
	}()

	sess, err := m.sessions.Load(ctx, ev.UserID)
	if err != nil {
		m.reportIncident(ctx, ev, fmt.Errorf("load session: %w", err))
		return
	}

	if err := m.dispatch(ctx, ev, sess); err != nil {
		sess.Reset()
		m.reportIncident(ctx, ev, err)
	}

	if err := m.persist(ctx, sess); err != nil {
		slog.Error("failed to save session", "user_id", ev.UserID, "error", err)
	}
}

func (m *Machine) dispatch(ctx context.Context, ev Event, sess *domain.Session) error {
	switch ev.Kind {
	case InputCommand:
		return m.handleCommand(ctx, ev, sess)
	case InputCallback:
		return m.handleCallback(ctx, ev, sess)
	}

	st, ok := m.transitions[transitionKey{flow: sess.Flow, kind: ev.Kind}]
	if !ok {
		slog.Warn("no transition", "user_id", ev.UserID, "flow", sess.Flow, "input", ev.Kind)
		sess.Reset()
		m.reply(ctx, ev, Message{Text: textMainMenu, Controls: mainMenuControls()})
		return nil
	}
	return st(ctx, ev, sess)
}

func (m *Machine) persist(ctx context.Context, sess *domain.Session) error {
	if sess.IsIdle() {
		return m.sessions.Delete(ctx, sess.UserID)
	}
	sess.UpdatedAt = m.now()
	return m.sessions.Save(ctx, sess)
}

// PruneSessions drops sessions untouched for longer than ttl.
func (m *Machine) PruneSessions(ctx context.Context, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}
	return m.sessions.DeleteStale(ctx, m.now().Add(-ttl))
}

// reply answers the acting user. A failed reply can only be logged.
func (m *Machine) reply(ctx context.Context, ev Event, msg Message) int {
	id, err := m.notifier.Send(ctx, ev.ChatID, msg)
	if err != nil {
		slog.Warn("failed to reply", "user_id", ev.UserID, "error", err)
		return 0
	}
	return id
}

// notify sends to a counterparty and classifies failures as delivery errors.
func (m *Machine) notify(ctx context.Context, chatID int64, msg Message) (int, error) {
	id, err := m.notifier.Send(ctx, chatID, msg)
	if err != nil {
		var de *domain.DeliveryError
		if !errors.As(err, &de) {
			err = &domain.DeliveryError{ChatID: chatID, Err: err}
		}
		slog.Warn("notification not delivered", "chat_id", chatID, "error", err)
		return 0, err
	}
	return id, nil
}

func (m *Machine) notifyPhoto(ctx context.Context, chatID int64, fileID string, msg Message) (int, error) {
	id, err := m.notifier.SendPhoto(ctx, chatID, fileID, msg)
	if err != nil {
		var de *domain.DeliveryError
		if !errors.As(err, &de) {
			err = &domain.DeliveryError{ChatID: chatID, Err: err}
		}
		slog.Warn("photo not delivered", "chat_id", chatID, "error", err)
		return 0, err
	}
	return id, nil
}

func (m *Machine) reportIncident(ctx context.Context, ev Event, err error) {
	id := uuid.NewString()
	event := ev.Describe()
	slog.Error("unexpected failure", "incident_id", id, "event", event, "error", err)
	m.events.LogError(ctx, id, event, err)

	report := fmt.Sprintf("🚨 Incident %s\nEvent: %s\nError: %v", id, event, err)
	if _, sendErr := m.notifier.Send(ctx, m.opts.AdminID, Message{Text: report}); sendErr != nil {
		slog.Error("failed to report incident", "incident_id", id, "error", sendErr)
	}
	if !m.isAdmin(ev.UserID) {
		m.reply(ctx, ev, Message{
			Text:     fmt.Sprintf(textApology, id),
			Controls: [][]Control{{backControl}},
		})
	}
}
