package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/set-night/boostbot/internal/domain"
)

func (s *Store) SaveRelayMapping(ctx context.Context, mapping domain.RelayMapping) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO admin_messages (admin_message_id, user_id) VALUES ($1, $2)
		 ON CONFLICT (admin_message_id) DO UPDATE SET user_id = EXCLUDED.user_id`,
		int64(mapping.AdminMessageID), mapping.UserID,
	)
	if err != nil {
		return fmt.Errorf("save relay mapping: %w", err)
	}
	return nil
}

func (s *Store) GetRelayMapping(ctx context.Context, adminMessageID int) (*domain.RelayMapping, error) {
	m := domain.RelayMapping{AdminMessageID: adminMessageID}
	err := s.db.QueryRow(ctx,
		`SELECT user_id, created_at FROM admin_messages WHERE admin_message_id = $1`,
		int64(adminMessageID),
	).Scan(&m.UserID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMappingNotFound
		}
		return nil, fmt.Errorf("get relay mapping: %w", err)
	}
	return &m, nil
}

func (s *Store) DeleteRelayMappingsBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM admin_messages WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete relay mappings: %w", err)
	}
	return tag.RowsAffected(), nil
}
