package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/set-night/boostbot/internal/domain"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, user_id, service_id, quantity, cost, link, status, created_at, completed_at`

// CreateOrderWithDebit debits the order cost and inserts the order in a
// single transaction, so neither can exist without the other.
func (s *Store) CreateOrderWithDebit(ctx context.Context, order domain.Order) (*domain.Order, decimal.Decimal, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, order.UserID); err != nil {
		return nil, decimal.Zero, fmt.Errorf("ensure user: %w", err)
	}

	var balance decimal.Decimal
	if err := tx.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1 FOR UPDATE`, order.UserID).Scan(&balance); err != nil {
		return nil, decimal.Zero, fmt.Errorf("lock user: %w", err)
	}
	if balance.LessThan(order.Cost) {
		return nil, decimal.Zero, &domain.InsufficientBalanceError{Required: order.Cost, Available: balance}
	}

	newBalance := balance.Sub(order.Cost)
	if _, err := tx.Exec(ctx, `UPDATE users SET balance = $2, updated_at = now() WHERE id = $1`, order.UserID, newBalance); err != nil {
		return nil, decimal.Zero, fmt.Errorf("debit balance: %w", err)
	}

	created, err := scanOrder(tx.QueryRow(ctx,
		`INSERT INTO orders (user_id, service_id, quantity, cost, link, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+orderColumns,
		order.UserID, order.ServiceID, order.Quantity, order.Cost, order.Link, string(domain.OrderStatusPending),
	))
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("create order: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO transactions (user_id, amount, tx_type, description) VALUES ($1, $2, $3, $4)`,
		order.UserID, order.Cost.Neg(), string(domain.TxTypeDebit), fmt.Sprintf("order #%d", created.ID),
	); err != nil {
		return nil, decimal.Zero, fmt.Errorf("create transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, decimal.Zero, fmt.Errorf("commit: %w", err)
	}
	return created, newBalance, nil
}

func (s *Store) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := scanOrder(s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// TransitionOrderStatus moves an order from one status to another. It
// reports false when the order was not in the from status.
func (s *Store) TransitionOrderStatus(ctx context.Context, orderID int64, from, to domain.OrderStatus) (*domain.Order, bool, error) {
	var completedAt *time.Time
	if to == domain.OrderStatusCompleted {
		now := time.Now()
		completedAt = &now
	}

	order, err := scanOrder(s.db.QueryRow(ctx,
		`UPDATE orders SET status = $3, completed_at = $4
		 WHERE id = $1 AND status = $2
		 RETURNING `+orderColumns,
		orderID, string(from), string(to), completedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("update order status: %w", err)
	}
	return order, true, nil
}

// ListOrders returns orders newest first. A limit of 0 lists everything.
func (s *Store) ListOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC LIMIT $1`, lim)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.ServiceID, &o.Quantity, &o.Cost, &o.Link, &status, &o.CreatedAt, &o.CompletedAt); err != nil {
		return nil, err
	}
	parsed, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, fmt.Errorf("order %d: status %q: %w", o.ID, status, err)
	}
	o.Status = parsed
	return &o, nil
}
