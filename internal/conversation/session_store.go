package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/set-night/boostbot/internal/domain"
)

// SessionStore keeps per-user conversation state. Load returns a fresh idle
// session for users without one; callers own the returned value.
type SessionStore interface {
	Load(ctx context.Context, userID int64) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, userID int64) error
	// DeleteStale drops sessions last updated before the given time.
	DeleteStale(ctx context.Context, before time.Time) (int, error)
}

type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]domain.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[int64]domain.Session)}
}

func (m *MemorySessionStore) Load(_ context.Context, userID int64) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[userID]
	if !ok {
		return domain.NewSession(userID), nil
	}
	return cloneSession(s), nil
}

func (m *MemorySessionStore) Save(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.UserID] = *cloneSession(*s)
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
	return nil
}

func (m *MemorySessionStore) DeleteStale(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(before) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func cloneSession(s domain.Session) *domain.Session {
	if s.Draft != nil {
		d := *s.Draft
		s.Draft = &d
	}
	return &s
}
