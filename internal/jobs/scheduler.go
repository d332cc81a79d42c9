// Package jobs runs periodic retention tasks on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type SessionPruner interface {
	PruneSessions(ctx context.Context, ttl time.Duration) (int, error)
}

type RelayPruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

type RateLimitPruner interface {
	Prune() int
}

type Retention struct {
	SessionTTL     time.Duration
	RelayRetention time.Duration
}

// Scheduler prunes abandoned sessions, old relay mappings and idle rate
// limiter entries. A zero retention period disables the matching task.
type Scheduler struct {
	cron      *cron.Cron
	sessions  SessionPruner
	relay     RelayPruner
	limiter   RateLimitPruner
	retention Retention
}

func NewScheduler(sessions SessionPruner, relay RelayPruner, limiter RateLimitPruner, retention Retention) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		sessions:  sessions,
		relay:     relay,
		limiter:   limiter,
		retention: retention,
	}
}

// Start registers the retention task under spec and starts the cron runner.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule retention %q: %w", spec, err)
	}
	s.cron.Start()
	slog.Info("retention scheduler started",
		"schedule", spec,
		"session_ttl", s.retention.SessionTTL,
		"relay_retention", s.retention.RelayRetention,
	)
	return nil
}

// RunOnce runs every retention task once.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if s.sessions != nil && s.retention.SessionTTL > 0 {
		n, err := s.sessions.PruneSessions(ctx, s.retention.SessionTTL)
		if err != nil {
			slog.Error("prune sessions", "error", err)
		} else if n > 0 {
			slog.Info("pruned stale sessions", "count", n)
		}
	}

	if s.relay != nil && s.retention.RelayRetention > 0 {
		n, err := s.relay.Prune(ctx, s.retention.RelayRetention)
		if err != nil {
			slog.Error("prune relay mappings", "error", err)
		} else if n > 0 {
			slog.Info("pruned relay mappings", "count", n)
		}
	}

	if s.limiter != nil {
		if n := s.limiter.Prune(); n > 0 {
			slog.Debug("pruned rate limiter entries", "count", n)
		}
	}
}

// Stop waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("retention scheduler stopped")
}
