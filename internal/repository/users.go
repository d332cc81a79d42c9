package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/set-night/boostbot/internal/domain"
	"github.com/shopspring/decimal"
)

func (s *Store) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.db.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

func (s *Store) AdjustBalance(ctx context.Context, userID int64, delta decimal.Decimal, description string) (decimal.Decimal, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	newBalance, err := applyDelta(ctx, tx, userID, delta, description)
	if err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("commit: %w", err)
	}
	return newBalance, nil
}

// applyDelta locks the user row, creating it on first use, and writes the
// new balance plus its journal entry.
func applyDelta(ctx context.Context, tx pgx.Tx, userID int64, delta decimal.Decimal, description string) (decimal.Decimal, error) {
	if _, err := tx.Exec(ctx, `INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, userID); err != nil {
		return decimal.Zero, fmt.Errorf("ensure user: %w", err)
	}

	var balance decimal.Decimal
	if err := tx.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("lock user: %w", err)
	}

	newBalance := balance.Add(delta)
	if newBalance.IsNegative() {
		return decimal.Zero, &domain.InsufficientBalanceError{Required: delta.Neg(), Available: balance}
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET balance = $2, updated_at = now() WHERE id = $1`, userID, newBalance); err != nil {
		return decimal.Zero, fmt.Errorf("update balance: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO transactions (user_id, amount, tx_type, description) VALUES ($1, $2, $3, $4)`,
		userID, delta, string(domain.TxTypeFor(delta)), description,
	); err != nil {
		return decimal.Zero, fmt.Errorf("create transaction: %w", err)
	}

	return newBalance, nil
}
