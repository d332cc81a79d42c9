package service

import (
	"context"
	"fmt"
	"time"

	"github.com/set-night/boostbot/internal/domain"
)

// RelayService remembers which user a message relayed to the admin came from.
type RelayService struct {
	store RelayStore
	now   func() time.Time
}

func NewRelayService(store RelayStore) *RelayService {
	return &RelayService{store: store, now: time.Now}
}

func (s *RelayService) Record(ctx context.Context, userID int64, adminMessageID int) error {
	err := s.store.SaveRelayMapping(ctx, domain.RelayMapping{
		AdminMessageID: adminMessageID,
		UserID:         userID,
		CreatedAt:      s.now(),
	})
	if err != nil {
		return fmt.Errorf("save relay mapping: %w", err)
	}
	return nil
}

// Resolve returns domain.ErrMappingNotFound for unknown messages.
func (s *RelayService) Resolve(ctx context.Context, adminMessageID int) (int64, error) {
	m, err := s.store.GetRelayMapping(ctx, adminMessageID)
	if err != nil {
		return 0, err
	}
	return m.UserID, nil
}

// Prune drops mappings older than olderThan. A zero period keeps everything.
func (s *RelayService) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, nil
	}
	n, err := s.store.DeleteRelayMappingsBefore(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("delete relay mappings: %w", err)
	}
	return n, nil
}
