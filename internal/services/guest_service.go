package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/BradenHooton/svatba/internal/metrics"
	"github.com/BradenHooton/svatba/internal/models"
	"github.com/BradenHooton/svatba/internal/repositories"
)

// Sort keys accepted by the admin list
const (
	SortByName           = "name"
	SortByEmail          = "email"
	SortByAttending      = "attending"
	SortBySubmissionDate = "submissionDate"

	SortAsc  = "asc"
	SortDesc = "desc"

	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ListParams controls filtering, ordering and paging of the admin list.
type ListParams struct {
	Page            int
	Limit           int
	SortBy          string
	SortOrder       string
	FilterAttending *bool
}

// Normalize replaces out-of-range values with defaults.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	switch p.SortBy {
	case SortByName, SortByEmail, SortByAttending, SortBySubmissionDate:
	default:
		p.SortBy = SortBySubmissionDate
	}
	if p.SortOrder != SortAsc {
		p.SortOrder = SortDesc
	}
	return p
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type GuestList struct {
	Guests     []models.Guest     `json:"guests"`
	Pagination Pagination         `json:"pagination"`
	Stats      *models.GuestStats `json:"stats"`
}

// GuestService serves the admin dashboard.
type GuestService struct {
	repo   repositories.GuestRepository
	logger *slog.Logger
}

func NewGuestService(repo repositories.GuestRepository, logger *slog.Logger) *GuestService {
	return &GuestService{repo: repo, logger: logger}
}

// List filters, sorts, then paginates. Stats always describe the full list.
func (s *GuestService) List(ctx context.Context, params ListParams) (*GuestList, error) {
	params = params.Normalize()

	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.Guest, 0, len(all))
	for _, g := range all {
		if params.FilterAttending != nil && g.Attending != *params.FilterAttending {
			continue
		}
		filtered = append(filtered, g)
	}

	SortGuests(filtered, params.SortBy, params.SortOrder)

	total := len(filtered)
	totalPages := (total + params.Limit - 1) / params.Limit
	start := (params.Page - 1) * params.Limit
	end := start + params.Limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return &GuestList{
		Guests: models.RedactForAdmin(filtered[start:end]),
		Pagination: Pagination{
			Page:       params.Page,
			Limit:      params.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
		Stats: models.ComputeStats(all),
	}, nil
}

// GetAll returns every stored guest, unredacted.
func (s *GuestService) GetAll(ctx context.Context) ([]models.Guest, error) {
	guests, err := s.repo.GetAll(ctx)
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("get_all").Inc()
		return nil, fmt.Errorf("list guests: %w", err)
	}
	metrics.GuestsStored.Set(float64(len(guests)))
	return guests, nil
}

func (s *GuestService) Stats(ctx context.Context) (*models.GuestStats, error) {
	stats, err := s.repo.GetStats(ctx)
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("stats").Inc()
		return nil, fmt.Errorf("guest stats: %w", err)
	}
	return stats, nil
}

// Update checks the merged record before writing so an edit cannot leave a
// plus-one without a name.
func (s *GuestService) Update(ctx context.Context, id string, update models.GuestUpdate) (*models.Guest, error) {
	guests, err := s.repo.GetAll(ctx)
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("get_all").Inc()
		return nil, fmt.Errorf("load guest: %w", err)
	}
	var current *models.Guest
	for i := range guests {
		if guests[i].ID == id {
			current = &guests[i]
			break
		}
	}
	if current == nil {
		return nil, models.ErrGuestNotFound
	}
	if fields := checkGuest(update.Apply(*current)); fields != nil {
		return nil, &models.ValidationError{Fields: fields}
	}

	guest, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	redacted := models.RedactForAdmin([]models.Guest{*guest})[0]
	return &redacted, nil
}

// checkGuest applies the cross-field rules a single-field edit can break.
func checkGuest(g models.Guest) map[string]string {
	if g.PlusOneAttending && strings.TrimSpace(g.PlusOneName) == "" {
		return map[string]string{"plusOneName": "Моля, въведете името на придружителя."}
	}
	return nil
}

func (s *GuestService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *GuestService) BulkUpdateAttending(ctx context.Context, ids []string, attending bool) (int, error) {
	return s.repo.BulkUpdateAttending(ctx, ids, attending)
}

func (s *GuestService) BulkDelete(ctx context.Context, ids []string) (int, error) {
	return s.repo.BulkDelete(ctx, ids)
}

// SortGuests orders guests in place. Names use Bulgarian collation; equal
// keys fall back to submissionDate in the same direction.
func SortGuests(guests []models.Guest, sortBy, sortOrder string) {
	// collators are not safe for concurrent use
	col := collate.New(language.Bulgarian, collate.IgnoreCase)

	compare := func(a, b models.Guest) int {
		switch sortBy {
		case SortByName:
			return col.CompareString(a.GuestName, b.GuestName)
		case SortByEmail:
			return strings.Compare(strings.ToLower(a.Email), strings.ToLower(b.Email))
		case SortByAttending:
			return compareBool(a.Attending, b.Attending)
		}
		return 0
	}

	desc := sortOrder == SortDesc
	sort.SliceStable(guests, func(i, j int) bool {
		c := compare(guests[i], guests[j])
		if c == 0 {
			c = guests[i].SubmittedAt().Compare(guests[j].SubmittedAt())
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
