package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInvalidQuantity         = errors.New("invalid quantity")
	ErrInvalidLink             = errors.New("invalid link")
	ErrServiceNotFound         = errors.New("service not found")
	ErrOrderNotFound           = errors.New("order not found")
	ErrMappingNotFound         = errors.New("relay mapping not found")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrNotAuthorized           = errors.New("not authorized")
	ErrBotBlocked              = errors.New("bot blocked by user")
)

// InsufficientBalanceError reports how much a debit was short.
type InsufficientBalanceError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: required %s, available %s",
		e.Required.StringFixed(2), e.Available.StringFixed(2))
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// Shortfall is the amount missing to cover Required.
func (e *InsufficientBalanceError) Shortfall() decimal.Decimal {
	return e.Required.Sub(e.Available)
}

// DeliveryError is an outbound notification that could not be delivered.
// The ledger mutation that preceded it stays committed.
type DeliveryError struct {
	ChatID int64
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %d: %v", e.ChatID, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
