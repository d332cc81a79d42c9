package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/set-night/boostbot/internal/config"
	"github.com/set-night/boostbot/internal/domain"
	"github.com/shopspring/decimal"
)

type OrderService struct {
	store   OrderStore
	catalog *CatalogService
}

func NewOrderService(store OrderStore, catalog *CatalogService) *OrderService {
	return &OrderService{store: store, catalog: catalog}
}

// Place debits cost and creates a pending order in one store transaction.
// The balance is checked against its value at the moment of the debit.
func (s *OrderService) Place(ctx context.Context, userID int64, serviceID string, quantity int64, link string, cost decimal.Decimal) (*domain.Order, decimal.Decimal, error) {
	if quantity <= 0 || quantity > config.MaxOrderQuantity {
		return nil, decimal.Zero, domain.ErrInvalidQuantity
	}
	if !cost.IsPositive() {
		return nil, decimal.Zero, domain.ErrInvalidAmount
	}
	if _, err := s.catalog.GetPrice(serviceID); err != nil {
		return nil, decimal.Zero, err
	}

	order, balance, err := s.store.CreateOrderWithDebit(ctx, domain.Order{
		UserID:    userID,
		ServiceID: serviceID,
		Quantity:  quantity,
		Cost:      cost,
		Link:      link,
		Status:    domain.OrderStatusPending,
	})
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("create order: %w", err)
	}
	return order, balance, nil
}

// SetStatus moves an order forward. changed is false when the order
// already had the requested status.
func (s *OrderService) SetStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (order *domain.Order, changed bool, err error) {
	current, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	if current.Status == status {
		return current, false, nil
	}
	if current.Status != domain.OrderStatusPending || status != domain.OrderStatusCompleted {
		return current, false, domain.ErrInvalidStatusTransition
	}

	updated, ok, err := s.store.TransitionOrderStatus(ctx, orderID, domain.OrderStatusPending, status)
	if err != nil {
		return nil, false, fmt.Errorf("transition order: %w", err)
	}
	if !ok {
		// completed concurrently between the read and the update
		latest, err := s.store.GetOrder(ctx, orderID)
		if err != nil {
			return nil, false, err
		}
		return latest, false, nil
	}
	return updated, true, nil
}

func (s *OrderService) Complete(ctx context.Context, orderID int64) (*domain.Order, bool, error) {
	return s.SetStatus(ctx, orderID, domain.OrderStatusCompleted)
}

func (s *OrderService) Get(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// List returns up to limit orders, newest first.
func (s *OrderService) List(ctx context.Context, limit int) ([]domain.Order, error) {
	orders, err := s.store.ListOrders(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
