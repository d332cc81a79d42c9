package service

import (
	"context"
	"fmt"

	"github.com/set-night/boostbot/internal/domain"
	"github.com/shopspring/decimal"
)

const descAdminTopUp = "admin top-up"

type BalanceService struct {
	store BalanceStore
}

func NewBalanceService(store BalanceStore) *BalanceService {
	return &BalanceService{store: store}
}

// GetBalance returns 0 for users that never had a balance mutation.
func (s *BalanceService) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	balance, err := s.store.GetBalance(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// AdjustBalance applies a signed delta. Debits that would overdraw the
// balance fail with *domain.InsufficientBalanceError.
func (s *BalanceService) AdjustBalance(ctx context.Context, userID int64, delta decimal.Decimal, description string) (decimal.Decimal, error) {
	if delta.IsZero() {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	balance, err := s.store.AdjustBalance(ctx, userID, delta, description)
	if err != nil {
		return decimal.Zero, fmt.Errorf("adjust balance: %w", err)
	}
	return balance, nil
}

// Credit adds a positive amount, rounded to cents, on behalf of the admin.
func (s *BalanceService) Credit(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	return s.AdjustBalance(ctx, userID, amount, descAdminTopUp)
}
