package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
)

// ParseOrderStatus validates a stored or user-supplied status value.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusCompleted:
		return OrderStatus(s), nil
	default:
		return "", ErrInvalidStatusTransition
	}
}

type Order struct {
	ID          int64
	UserID      int64
	ServiceID   string
	Quantity    int64
	Cost        decimal.Decimal
	Link        string
	Status      OrderStatus
	CreatedAt   time.Time
	CompletedAt *time.Time
}

func (o *Order) IsCompleted() bool {
	return o.Status == OrderStatusCompleted
}
