package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/BradenHooton/svatba/internal/metrics"
	"github.com/BradenHooton/svatba/internal/models"
	"github.com/BradenHooton/svatba/internal/repositories"
)

// RateLimitConfig holds the fixed-window limits for RSVP submissions.
type RateLimitConfig struct {
	MaxAttempts int
	Window      time.Duration
}

// RateLimitService implements the per-IP fixed window. Check and Update are
// separate calls, so two concurrent submissions may both pass Check; the
// last Update wins.
type RateLimitService struct {
	repo   repositories.RateLimitRepository
	config RateLimitConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewRateLimitService(repo repositories.RateLimitRepository, config RateLimitConfig, logger *slog.Logger) *RateLimitService {
	return &RateLimitService{
		repo:   repo,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the time source. Tests only.
func (s *RateLimitService) SetClock(now func() time.Time) {
	s.now = now
}

// Check reports whether ip may submit now and, if not, how long until the
// window reopens. It never records an attempt.
// Repository errors fail open: a broken backend must not lock guests out.
func (s *RateLimitService) Check(ctx context.Context, ip string) (bool, time.Duration) {
	record, err := s.repo.Get(ctx, ip)
	if errors.Is(err, models.ErrNotFound) {
		return true, 0
	}
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("rate_limit_check").Inc()
		s.logger.Error("failed to check rsvp rate limit",
			slog.String("ip_address", ip),
			slog.Any("error", err))
		return true, 0
	}

	now := s.now()
	if record.WindowElapsed(now, s.config.Window) || record.Count < s.config.MaxAttempts {
		return true, 0
	}

	retryAfter := record.FirstAttemptTime().Add(s.config.Window).Sub(now)
	if retryAfter < 0 {
		retryAfter = 0
	}
	s.logger.Warn("rsvp rate limited",
		slog.String("ip_address", ip),
		slog.Int("attempts", record.Count),
		slog.Duration("retry_after", retryAfter))
	return false, retryAfter
}

// Update records one attempt for ip, opening a new window when there is no
// live record.
func (s *RateLimitService) Update(ctx context.Context, ip string) error {
	now := s.now()
	stamp := now.UTC().Format(models.SubmissionDateLayout)

	record, err := s.repo.Get(ctx, ip)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}

	if record == nil || record.WindowElapsed(now, s.config.Window) {
		record = &models.RateLimitRecord{Count: 1, FirstAttempt: stamp, LastAttempt: stamp}
	} else {
		record.Count++
		record.LastAttempt = stamp
	}

	ttl := record.FirstAttemptTime().Add(s.config.Window).Sub(now)
	return s.repo.Save(ctx, ip, *record, ttl)
}
