package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/svatba/internal/auth"
	"github.com/BradenHooton/svatba/internal/models"
	"github.com/BradenHooton/svatba/internal/services"
	pkghttp "github.com/BradenHooton/svatba/pkg/http"
	pkglogger "github.com/BradenHooton/svatba/pkg/logger"
)

const maxAdminBodyBytes = 64 << 10

// Bulk actions accepted by POST /api/admin/guests/bulk
const (
	BulkActionDelete          = "delete"
	BulkActionUpdateAttending = "updateAttending"
)

// GuestServiceInterface defines the admin guest management contract.
type GuestServiceInterface interface {
	List(ctx context.Context, params services.ListParams) (*services.GuestList, error)
	Stats(ctx context.Context) (*models.GuestStats, error)
	Update(ctx context.Context, id string, update models.GuestUpdate) (*models.Guest, error)
	Delete(ctx context.Context, id string) error
	BulkUpdateAttending(ctx context.Context, ids []string, attending bool) (int, error)
	BulkDelete(ctx context.Context, ids []string) (int, error)
}

// GuestHandler handles the admin dashboard guest endpoints.
type GuestHandler struct {
	service     GuestServiceInterface
	auditLogger *pkglogger.AuditLogger
	ipConfig    *pkghttp.IPConfig
	logger      *slog.Logger
}

func NewGuestHandler(service GuestServiceInterface, auditLogger *pkglogger.AuditLogger, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *GuestHandler {
	return &GuestHandler{
		service:     service,
		auditLogger: auditLogger,
		ipConfig:    ipConfig,
		logger:      logger,
	}
}

// UpdateGuestRequest is the body of PATCH /api/admin/guests/{id}
type UpdateGuestRequest struct {
	GuestName         *string `json:"guestName" validate:"omitempty,min=2,max=100"`
	Email             *string `json:"email" validate:"omitempty,email,max=254"`
	Phone             *string `json:"phone" validate:"omitempty,phone"`
	Attending         *bool   `json:"attending"`
	PlusOneAttending  *bool   `json:"plusOneAttending"`
	PlusOneName       *string `json:"plusOneName" validate:"omitempty,max=100"`
	ChildrenCount     *int    `json:"childrenCount" validate:"omitempty,min=0,max=10"`
	DietaryPreference *string `json:"dietaryPreference" validate:"omitempty,oneof=standard vegetarian"`
	MenuChoice        *string `json:"menuChoice" validate:"omitempty,oneof=meat vegetarian"`
	PlusOneMenuChoice *string `json:"plusOneMenuChoice" validate:"omitempty,oneof=meat vegetarian"`
	Allergies         *string `json:"allergies" validate:"omitempty,max=500"`
}

// sanitize cleans the free-text fields in place so validation sees what
// will be stored.
func (req *UpdateGuestRequest) sanitize() {
	req.GuestName = sanitizeStringPtr(req.GuestName)
	req.Email = sanitizeStringPtr(req.Email)
	req.Phone = sanitizeStringPtr(req.Phone)
	req.PlusOneName = sanitizeStringPtr(req.PlusOneName)
	req.DietaryPreference = sanitizeStringPtr(req.DietaryPreference)
	req.MenuChoice = sanitizeStringPtr(req.MenuChoice)
	req.PlusOneMenuChoice = sanitizeStringPtr(req.PlusOneMenuChoice)
	req.Allergies = sanitizeStringPtr(req.Allergies)
}

func (req UpdateGuestRequest) toUpdate() models.GuestUpdate {
	return models.GuestUpdate{
		GuestName:         req.GuestName,
		Email:             req.Email,
		Phone:             req.Phone,
		Attending:         req.Attending,
		PlusOneAttending:  req.PlusOneAttending,
		PlusOneName:       req.PlusOneName,
		ChildrenCount:     req.ChildrenCount,
		DietaryPreference: req.DietaryPreference,
		MenuChoice:        req.MenuChoice,
		PlusOneMenuChoice: req.PlusOneMenuChoice,
		Allergies:         req.Allergies,
	}
}

// BulkRequest is the body of POST /api/admin/guests/bulk
type BulkRequest struct {
	Action    string   `json:"action" validate:"required,oneof=delete updateAttending"`
	GuestIDs  []string `json:"guestIds" validate:"required,min=1,max=500,dive,required"`
	Attending *bool    `json:"attending" validate:"required_if=Action updateAttending"`
}

// BulkResponse reports how many guests the action touched.
type BulkResponse struct {
	Count int `json:"count"`
}

// List handles GET /api/admin/guests
func (h *GuestHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := services.ListParams{
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil {
		params.Page = n
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		params.Limit = n
	}
	switch q.Get("filterAttending") {
	case "true":
		v := true
		params.FilterAttending = &v
	case "false":
		v := false
		params.FilterAttending = &v
	}

	list, err := h.service.List(r.Context(), params)
	if err != nil {
		h.logger.Error("failed to list guests", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Грешка при зареждане на гостите.")
		return
	}
	pkghttp.WriteSuccess(w, list, "")
}

// Stats handles GET /api/admin/stats
func (h *GuestHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to compute stats", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Грешка при зареждане на статистиката.")
		return
	}
	pkghttp.WriteSuccess(w, stats, "")
}

// Update handles PATCH /api/admin/guests/{id}
func (h *GuestHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateGuestRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxAdminBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Невалидна заявка.")
		return
	}
	req.sanitize()
	if fields := ValidateRequest(req); fields != nil {
		pkghttp.WriteValidationError(w, "Невалидни данни.", fields)
		return
	}

	update := req.toUpdate()
	if update.IsEmpty() {
		pkghttp.WriteBadRequest(w, "Няма промени за запазване.")
		return
	}

	guest, err := h.service.Update(r.Context(), id, update)
	if err != nil {
		h.writeMutationError(w, "update", err)
		return
	}

	h.audit(r, "guest_update", []string{id}, nil)
	pkghttp.WriteSuccess(w, guest, "Промените са запазени.")
}

// Delete handles DELETE /api/admin/guests/{id}
func (h *GuestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeMutationError(w, "delete", err)
		return
	}

	h.audit(r, "guest_delete", []string{id}, nil)
	pkghttp.WriteSuccess(w, nil, "Гостът е изтрит.")
}

// Bulk handles POST /api/admin/guests/bulk
func (h *GuestHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var req BulkRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxAdminBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Невалидна заявка.")
		return
	}
	if fields := ValidateRequest(req); fields != nil {
		pkghttp.WriteValidationError(w, "Невалидни данни.", fields)
		return
	}

	var (
		count int
		err   error
		msg   string
		meta  map[string]string
	)
	switch req.Action {
	case BulkActionDelete:
		count, err = h.service.BulkDelete(r.Context(), req.GuestIDs)
		msg = "Избраните гости са изтрити."
	case BulkActionUpdateAttending:
		count, err = h.service.BulkUpdateAttending(r.Context(), req.GuestIDs, *req.Attending)
		msg = "Присъствието е обновено."
		meta = map[string]string{"attending": strconv.FormatBool(*req.Attending)}
	}
	if err != nil {
		h.writeMutationError(w, "bulk_"+req.Action, err)
		return
	}

	h.audit(r, "guest_bulk_"+req.Action, req.GuestIDs, meta)
	pkghttp.WriteSuccess(w, BulkResponse{Count: count}, msg)
}

// audit records a mutation together with the login time of the session
// that made it.
func (h *GuestHandler) audit(r *http.Request, action string, guestIDs []string, meta map[string]string) {
	if claims := auth.GetSessionFromContext(r); claims != nil {
		if meta == nil {
			meta = make(map[string]string, 1)
		}
		meta["session_login_time"] = claims.LoginAt().UTC().Format(time.RFC3339)
	}
	h.auditLogger.LogGuestMutation(action, pkghttp.ExtractClientIP(r, h.ipConfig), guestIDs, meta)
}

func (h *GuestHandler) writeMutationError(w http.ResponseWriter, op string, err error) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		pkghttp.WriteValidationError(w, "Невалидни данни.", ve.Fields)
	case errors.Is(err, models.ErrGuestNotFound):
		pkghttp.WriteNotFound(w, "Гостът не е намерен.")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Друг гост вече използва този имейл адрес.")
	default:
		h.logger.Error("guest mutation failed", slog.String("operation", op), slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Възникна грешка. Моля, опитайте отново.")
	}
}
