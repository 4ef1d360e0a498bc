package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	pkghttp "github.com/BradenHooton/svatba/pkg/http"
)

// Pinger is implemented by every guest store backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store   Pinger
	backend string
	logger  *slog.Logger
}

func NewHealthHandler(store Pinger, backend string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, backend: backend, logger: logger}
}

type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", slog.String("backend", h.backend), slog.Any("error", err))
		pkghttp.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Backend: h.backend})
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Backend: h.backend})
}
