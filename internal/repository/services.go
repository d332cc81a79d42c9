package repository

import (
	"context"
	"fmt"

	"github.com/set-night/boostbot/internal/domain"
	"github.com/shopspring/decimal"
)

// SeedServices inserts missing catalog entries and leaves existing prices alone.
func (s *Store) SeedServices(ctx context.Context, services []domain.Service) error {
	for _, svc := range services {
		if _, err := s.db.Exec(ctx,
			`INSERT INTO services (id, price_per_thousand) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
			svc.ID, svc.PricePerThousand,
		); err != nil {
			return fmt.Errorf("seed service %s: %w", svc.ID, err)
		}
	}
	return nil
}

func (s *Store) ListServices(ctx context.Context) ([]domain.Service, error) {
	rows, err := s.db.Query(ctx, `SELECT id, price_per_thousand FROM services ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []domain.Service
	for rows.Next() {
		var svc domain.Service
		if err := rows.Scan(&svc.ID, &svc.PricePerThousand); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}
	return services, nil
}

func (s *Store) UpdateServicePrice(ctx context.Context, serviceID string, price decimal.Decimal) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE services SET price_per_thousand = $2, updated_at = now() WHERE id = $1`,
		serviceID, price,
	)
	if err != nil {
		return fmt.Errorf("update service price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrServiceNotFound
	}
	return nil
}
