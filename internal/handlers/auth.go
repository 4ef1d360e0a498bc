package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BradenHooton/svatba/internal/auth"
	"github.com/BradenHooton/svatba/internal/models"
	"github.com/BradenHooton/svatba/internal/services"
	pkghttp "github.com/BradenHooton/svatba/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, code, ipAddress, userAgent string) (string, *models.AdminClaims, error)
	Logout(ctx context.Context, token, ipAddress, userAgent string)
	Session(token string) services.SessionInfo
}

// AuthHandler handles admin login, logout and session lookups
type AuthHandler struct {
	service      AuthServiceInterface
	cookieConfig auth.CookieConfig
	ipConfig     *pkghttp.IPConfig
	logger       *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, cookieConfig auth.CookieConfig, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:      service,
		cookieConfig: cookieConfig,
		ipConfig:     ipConfig,
		logger:       logger,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	AccessCode string `json:"accessCode"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Невалидна заявка.")
		return
	}
	if strings.TrimSpace(req.AccessCode) == "" {
		pkghttp.WriteBadRequest(w, "Моля, въведете код за достъп.")
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)
	userAgent := r.Header.Get("User-Agent")

	token, _, err := h.service.Login(r.Context(), req.AccessCode, ipAddress, userAgent)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			pkghttp.WriteUnauthorized(w, "Невалиден код за достъп.", "")
			return
		}
		h.logger.Error("admin login failed", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Възникна грешка. Моля, опитайте отново.")
		return
	}

	auth.SetSessionCookie(w, token, h.cookieConfig)
	pkghttp.WriteSuccess(w, nil, "Успешен вход.")
}

// Logout handles GET and POST /api/auth/logout. With ?redirect=true the
// browser is sent back to the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := auth.GetSessionCookie(r)
	auth.ClearSessionCookie(w, h.cookieConfig)
	h.service.Logout(r.Context(), token, pkghttp.ExtractClientIP(r, h.ipConfig), r.Header.Get("User-Agent"))

	if r.URL.Query().Get("redirect") == "true" {
		http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
		return
	}
	pkghttp.WriteSuccess(w, nil, "Излязохте успешно.")
}

// Session handles GET /api/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	pkghttp.WriteJSON(w, http.StatusOK, h.service.Session(auth.GetSessionCookie(r)))
}
