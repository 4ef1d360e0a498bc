package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/svatba/internal/metrics"
	"github.com/BradenHooton/svatba/internal/models"
	"github.com/BradenHooton/svatba/internal/repositories"
)

// RateLimitedError is returned when the submitting IP used up its window.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitedError) Is(target error) bool {
	return target == models.ErrRateLimitExceeded
}

// RSVPService runs the guest-facing intake flow.
type RSVPService struct {
	guests   repositories.GuestRepository
	limiter  *RateLimitService
	notifier Notifier
	logger   *slog.Logger
}

func NewRSVPService(guests repositories.GuestRepository, limiter *RateLimitService, notifier Notifier, logger *slog.Logger) *RSVPService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &RSVPService{
		guests:   guests,
		limiter:  limiter,
		notifier: notifier,
		logger:   logger,
	}
}

// Submit stores an already validated RSVP. Order matters: the duplicate
// check runs before the rate limit so a repeat guest gets the specific
// message, and the limiter only counts submissions that were stored.
func (s *RSVPService) Submit(ctx context.Context, req models.NewGuest) (*models.Guest, error) {
	req.Email = models.NormalizeEmail(req.Email)
	if !req.Attending {
		req.PlusOneAttending = false
		req.PlusOneName = ""
		req.ChildrenCount = 0
		req.MenuChoice = ""
		req.PlusOneMenuChoice = ""
	}
	if !req.PlusOneAttending {
		req.PlusOneName = ""
		req.PlusOneMenuChoice = ""
	}

	existing, err := s.guests.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		metrics.StoreErrorsTotal.WithLabelValues("find_by_email").Inc()
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if existing != nil {
		metrics.RSVPSubmissionsTotal.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		return nil, models.ErrDuplicateEmail
	}

	if allowed, retryAfter := s.limiter.Check(ctx, req.IPAddress); !allowed {
		metrics.RSVPSubmissionsTotal.WithLabelValues(metrics.OutcomeRateLimited).Inc()
		return nil, &RateLimitedError{RetryAfter: retryAfter}
	}

	guest, err := s.guests.Add(ctx, req)
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("add").Inc()
		metrics.RSVPSubmissionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("store rsvp: %w", err)
	}
	metrics.RSVPSubmissionsTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()

	if err := s.limiter.Update(ctx, req.IPAddress); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("rate_limit_update").Inc()
		s.logger.Error("failed to record rsvp attempt",
			slog.String("ip_address", req.IPAddress),
			slog.Any("error", err))
	}

	if err := s.notifier.NotifyNewRSVP(ctx, *guest); err != nil {
		s.logger.Error("failed to send rsvp notification",
			slog.String("guest_id", guest.ID),
			slog.Any("error", err))
	}

	s.logger.Info("rsvp stored",
		slog.String("guest_id", guest.ID),
		slog.Bool("attending", guest.Attending))
	return guest, nil
}
