package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	calls int
	ttl   time.Duration
}

func (f *fakeSessions) PruneSessions(_ context.Context, ttl time.Duration) (int, error) {
	f.calls++
	f.ttl = ttl
	return 1, nil
}

type fakeRelay struct {
	calls int
	err   error
}

func (f *fakeRelay) Prune(context.Context, time.Duration) (int64, error) {
	f.calls++
	return 0, f.err
}

type fakeLimiter struct{ calls int }

func (f *fakeLimiter) Prune() int {
	f.calls++
	return 0
}

func TestRunOnceHonorsRetention(t *testing.T) {
	sessions, relay, limiter := &fakeSessions{}, &fakeRelay{}, &fakeLimiter{}
	s := NewScheduler(sessions, relay, limiter, Retention{SessionTTL: time.Hour})

	s.RunOnce(context.Background())

	assert.Equal(t, 1, sessions.calls)
	assert.Equal(t, time.Hour, sessions.ttl)
	assert.Zero(t, relay.calls, "zero retention keeps relay mappings forever")
	assert.Equal(t, 1, limiter.calls)
}

func TestRunOnceSurvivesErrors(t *testing.T) {
	relay := &fakeRelay{err: errors.New("db down")}
	s := NewScheduler(nil, relay, nil, Retention{RelayRetention: 24 * time.Hour})

	assert.NotPanics(t, func() { s.RunOnce(context.Background()) })
	assert.Equal(t, 1, relay.calls)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(nil, nil, nil, Retention{})
	require.Error(t, s.Start(context.Background(), "not a schedule"))

	require.NoError(t, s.Start(context.Background(), "@every 1h"))
	s.Stop()
}
