package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/BradenHooton/svatba/internal/metrics"
	"github.com/BradenHooton/svatba/internal/models"
	"github.com/BradenHooton/svatba/internal/services"
	pkghttp "github.com/BradenHooton/svatba/pkg/http"
)

const maxRSVPBodyBytes = 64 << 10

// RSVPServiceInterface defines the intake contract
type RSVPServiceInterface interface {
	Submit(ctx context.Context, req models.NewGuest) (*models.Guest, error)
}

// RSVPHandler handles the public RSVP form
type RSVPHandler struct {
	service  RSVPServiceInterface
	ipConfig *pkghttp.IPConfig
	logger   *slog.Logger
}

func NewRSVPHandler(service RSVPServiceInterface, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *RSVPHandler {
	return &RSVPHandler{service: service, ipConfig: ipConfig, logger: logger}
}

// RSVPRequest is the body of POST /api/rsvp
type RSVPRequest struct {
	GuestName         string `json:"guestName" validate:"required,min=2,max=100"`
	Email             string `json:"email" validate:"required,email,max=254"`
	Phone             string `json:"phone" validate:"omitempty,phone"`
	Attending         *bool  `json:"attending" validate:"required"`
	PlusOneAttending  bool   `json:"plusOneAttending"`
	PlusOneName       string `json:"plusOneName" validate:"required_if=PlusOneAttending true,max=100"`
	ChildrenCount     int    `json:"childrenCount" validate:"min=0,max=10"`
	DietaryPreference string `json:"dietaryPreference" validate:"omitempty,oneof=standard vegetarian"`
	MenuChoice        string `json:"menuChoice" validate:"omitempty,oneof=meat vegetarian"`
	PlusOneMenuChoice string `json:"plusOneMenuChoice" validate:"omitempty,oneof=meat vegetarian"`
	Allergies         string `json:"allergies" validate:"max=500"`
}

func (req *RSVPRequest) sanitize() {
	req.GuestName = sanitizeString(req.GuestName)
	req.Email = sanitizeString(req.Email)
	req.Phone = sanitizeString(req.Phone)
	req.PlusOneName = sanitizeString(req.PlusOneName)
	req.DietaryPreference = sanitizeString(req.DietaryPreference)
	req.MenuChoice = sanitizeString(req.MenuChoice)
	req.PlusOneMenuChoice = sanitizeString(req.PlusOneMenuChoice)
	req.Allergies = sanitizeString(req.Allergies)

	// a decline carries no companion details
	if req.Attending != nil && !*req.Attending {
		req.PlusOneAttending = false
	}
}

func (req *RSVPRequest) toNewGuest(ip string) models.NewGuest {
	return models.NewGuest{
		GuestName:         req.GuestName,
		Email:             req.Email,
		Phone:             req.Phone,
		Attending:         *req.Attending,
		PlusOneAttending:  req.PlusOneAttending,
		PlusOneName:       req.PlusOneName,
		ChildrenCount:     req.ChildrenCount,
		DietaryPreference: req.DietaryPreference,
		MenuChoice:        req.MenuChoice,
		PlusOneMenuChoice: req.PlusOneMenuChoice,
		Allergies:         req.Allergies,
		IPAddress:         ip,
	}
}

// RSVPResponse is the data returned for an accepted submission
type RSVPResponse struct {
	ID             string `json:"id"`
	SubmissionDate string `json:"submissionDate"`
}

// Submit handles POST /api/rsvp
func (h *RSVPHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req RSVPRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxRSVPBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RSVPSubmissionsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		pkghttp.WriteBadRequest(w, "Невалидни данни. Моля, опитайте отново.")
		return
	}

	req.sanitize()
	if fields := ValidateRequest(req); fields != nil {
		metrics.RSVPSubmissionsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		pkghttp.WriteValidationError(w, "Моля, коригирайте грешките във формуляра.", fields)
		return
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	guest, err := h.service.Submit(r.Context(), req.toNewGuest(ip))
	if err != nil {
		var rateErr *services.RateLimitedError
		switch {
		case errors.Is(err, models.ErrDuplicateEmail):
			pkghttp.WriteConflict(w, "Вече сте изпратили отговор с този имейл адрес. Ако искате да промените отговора си, моля, свържете се с нас.")
		case errors.As(err, &rateErr):
			pkghttp.WriteTooManyRequests(w, retryMessage(rateErr.RetryAfter), rateErr.RetryAfter)
		default:
			h.logger.Error("rsvp submission failed", slog.Any("error", err))
			pkghttp.WriteInternalError(w, "Възникна грешка при запазването на отговора. Моля, опитайте отново по-късно.")
		}
		return
	}

	pkghttp.WriteSuccess(w, RSVPResponse{ID: guest.ID, SubmissionDate: guest.SubmissionDate},
		"Благодарим ви! Вашият отговор беше получен успешно.")
}

func retryMessage(retryAfter time.Duration) string {
	minutes := int(math.Ceil(retryAfter.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("Твърде много опити. Моля, опитайте отново след %d мин.", minutes)
}
