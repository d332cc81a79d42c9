package service

import (
	"context"
	"time"

	"github.com/set-night/boostbot/internal/domain"
	"github.com/shopspring/decimal"
)

// BalanceStore persists user balances. AdjustBalance must apply delta
// atomically against the current balance and refuse to go below zero with
// *domain.InsufficientBalanceError.
type BalanceStore interface {
	GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error)
	AdjustBalance(ctx context.Context, userID int64, delta decimal.Decimal, description string) (decimal.Decimal, error)
}

type CatalogStore interface {
	SeedServices(ctx context.Context, services []domain.Service) error
	ListServices(ctx context.Context) ([]domain.Service, error)
	UpdateServicePrice(ctx context.Context, serviceID string, price decimal.Decimal) error
}

// OrderStore persists orders. CreateOrderWithDebit debits order.Cost and
// inserts the order in one atomic step, returning the stored order and the
// new balance.
type OrderStore interface {
	CreateOrderWithDebit(ctx context.Context, order domain.Order) (*domain.Order, decimal.Decimal, error)
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	TransitionOrderStatus(ctx context.Context, orderID int64, from, to domain.OrderStatus) (*domain.Order, bool, error)
	ListOrders(ctx context.Context, limit int) ([]domain.Order, error)
}

type RelayStore interface {
	SaveRelayMapping(ctx context.Context, mapping domain.RelayMapping) error
	GetRelayMapping(ctx context.Context, adminMessageID int) (*domain.RelayMapping, error)
	DeleteRelayMappingsBefore(ctx context.Context, before time.Time) (int64, error)
}

// Store is implemented by every storage driver.
type Store interface {
	BalanceStore
	CatalogStore
	OrderStore
	RelayStore
}
