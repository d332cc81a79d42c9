// Package memory is an in-process storage driver used for local runs
// (STORAGE_DRIVER=memory) and tests. Data is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/set-night/boostbot/internal/domain"
	"github.com/set-night/boostbot/internal/service"
	"github.com/shopspring/decimal"
)

var _ service.Store = (*Store)(nil)

type Store struct {
	mu           sync.Mutex
	users        map[int64]*domain.User
	services     map[string]decimal.Decimal
	orders       map[int64]*domain.Order
	transactions []domain.Transaction
	relay        map[int]domain.RelayMapping
	lastOrderID  int64
	lastTxID     int64
	now          func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:    make(map[int64]*domain.User),
		services: make(map[string]decimal.Decimal),
		orders:   make(map[int64]*domain.Order),
		relay:    make(map[int]domain.RelayMapping),
		now:      time.Now,
	}
}

func (s *Store) GetBalance(_ context.Context, userID int64) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[userID]; ok {
		return u.Balance, nil
	}
	return decimal.Zero, nil
}

func (s *Store) AdjustBalance(_ context.Context, userID int64, delta decimal.Decimal, description string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.applyDelta(userID, delta, description)
}

// applyDelta must be called with mu held.
func (s *Store) applyDelta(userID int64, delta decimal.Decimal, description string) (decimal.Decimal, error) {
	now := s.now()
	u, ok := s.users[userID]
	if !ok {
		u = &domain.User{ID: userID, Balance: decimal.Zero, CreatedAt: now}
	}

	newBalance := u.Balance.Add(delta)
	if newBalance.IsNegative() {
		return decimal.Zero, &domain.InsufficientBalanceError{Required: delta.Neg(), Available: u.Balance}
	}

	u.Balance = newBalance
	u.UpdatedAt = now
	s.users[userID] = u

	s.lastTxID++
	s.transactions = append(s.transactions, domain.Transaction{
		ID:          s.lastTxID,
		UserID:      userID,
		Amount:      delta,
		TxType:      domain.TxTypeFor(delta),
		Description: description,
		CreatedAt:   now,
	})
	return newBalance, nil
}

// Transactions returns the journal for userID, oldest first.
func (s *Store) Transactions(userID int64) []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Transaction
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out
}

func (s *Store) SeedServices(_ context.Context, services []domain.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, svc := range services {
		if _, ok := s.services[svc.ID]; !ok {
			s.services[svc.ID] = svc.PricePerThousand
		}
	}
	return nil
}

func (s *Store) ListServices(_ context.Context) ([]domain.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	services := make([]domain.Service, 0, len(s.services))
	for id, price := range s.services {
		services = append(services, domain.Service{ID: id, PricePerThousand: price})
	}
	sort.Slice(services, func(i, j int) bool { return services[i].ID < services[j].ID })
	return services, nil
}

func (s *Store) UpdateServicePrice(_ context.Context, serviceID string, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.services[serviceID]; !ok {
		return domain.ErrServiceNotFound
	}
	s.services[serviceID] = price
	return nil
}

func (s *Store) CreateOrderWithDebit(_ context.Context, order domain.Order) (*domain.Order, decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// the debit is journaled under the id the order is about to get
	newBalance, err := s.applyDelta(order.UserID, order.Cost.Neg(), orderDescription(s.lastOrderID+1))
	if err != nil {
		return nil, decimal.Zero, err
	}

	s.lastOrderID++
	order.ID = s.lastOrderID
	order.Status = domain.OrderStatusPending
	order.CreatedAt = s.now()
	order.CompletedAt = nil

	stored := order
	s.orders[order.ID] = &stored
	return &order, newBalance, nil
}

func (s *Store) GetOrder(_ context.Context, orderID int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *Store) TransitionOrderStatus(_ context.Context, orderID int64, from, to domain.OrderStatus) (*domain.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok || o.Status != from {
		return nil, false, nil
	}
	o.Status = to
	if to == domain.OrderStatusCompleted {
		now := s.now()
		o.CompletedAt = &now
	} else {
		o.CompletedAt = nil
	}
	cp := *o
	return &cp, true, nil
}

func (s *Store) ListOrders(_ context.Context, limit int) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		orders = append(orders, *o)
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (s *Store) SaveRelayMapping(_ context.Context, mapping domain.RelayMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mapping.CreatedAt.IsZero() {
		mapping.CreatedAt = s.now()
	}
	s.relay[mapping.AdminMessageID] = mapping
	return nil
}

func (s *Store) GetRelayMapping(_ context.Context, adminMessageID int) (*domain.RelayMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.relay[adminMessageID]
	if !ok {
		return nil, domain.ErrMappingNotFound
	}
	return &m, nil
}

func (s *Store) DeleteRelayMappingsBefore(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, m := range s.relay {
		if m.CreatedAt.Before(before) {
			delete(s.relay, id)
			n++
		}
	}
	return n, nil
}

func orderDescription(orderID int64) string {
	return fmt.Sprintf("order #%d", orderID)
}
