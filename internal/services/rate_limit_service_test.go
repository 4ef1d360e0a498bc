package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(repo *MockRateLimitRepository, start time.Time) (*RateLimitService, *time.Time) {
	now := start
	svc := NewRateLimitService(repo, RateLimitConfig{MaxAttempts: 3, Window: time.Hour}, testLogger())
	svc.SetClock(func() time.Time { return now })
	return svc, &now
}

func TestRateLimitService_Window(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, now := newTestLimiter(NewMockRateLimitRepository(), start)

	for i := 0; i < 3; i++ {
		allowed, _ := svc.Check(ctx, "1.2.3.4")
		require.True(t, allowed, "attempt %d should be allowed", i+1)
		require.NoError(t, svc.Update(ctx, "1.2.3.4"))
		*now = now.Add(5 * time.Minute)
	}

	allowed, retryAfter := svc.Check(ctx, "1.2.3.4")
	assert.False(t, allowed, "4th attempt within the window must be refused")
	assert.Equal(t, 45*time.Minute, retryAfter)

	// other IPs are unaffected
	allowed, _ = svc.Check(ctx, "5.6.7.8")
	assert.True(t, allowed)

	*now = start.Add(time.Hour + time.Second)
	allowed, _ = svc.Check(ctx, "1.2.3.4")
	assert.True(t, allowed, "window elapsed")
}

func TestRateLimitService_CheckDoesNotCount(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestLimiter(NewMockRateLimitRepository(), time.Now())

	for i := 0; i < 10; i++ {
		allowed, _ := svc.Check(ctx, "1.1.1.1")
		assert.True(t, allowed)
	}
}

func TestRateLimitService_UpdateResetsAfterWindow(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRateLimitRepository()
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, now := newTestLimiter(repo, start)

	require.NoError(t, svc.Update(ctx, "ip"))
	require.NoError(t, svc.Update(ctx, "ip"))
	rec, err := repo.Get(ctx, "ip")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Count)
	assert.Equal(t, time.Hour, repo.ttls["ip"])

	*now = start.Add(2 * time.Hour)
	require.NoError(t, svc.Update(ctx, "ip"))
	rec, err = repo.Get(ctx, "ip")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Count)
	assert.Equal(t, "2025-06-01T14:00:00.000Z", rec.FirstAttempt)
	assert.Equal(t, rec.FirstAttempt, rec.LastAttempt)
}

func TestRateLimitService_FailsOpen(t *testing.T) {
	repo := NewMockRateLimitRepository()
	repo.GetErr = errors.New("redis down")
	svc, _ := newTestLimiter(repo, time.Now())

	allowed, _ := svc.Check(context.Background(), "1.2.3.4")
	assert.True(t, allowed)
	assert.Error(t, svc.Update(context.Background(), "1.2.3.4"))
}
