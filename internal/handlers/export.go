package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/BradenHooton/svatba/internal/services"
	pkghttp "github.com/BradenHooton/svatba/pkg/http"
	pkglogger "github.com/BradenHooton/svatba/pkg/logger"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	maxRestoreBodyBytes = 10 << 20
)

// ExportServiceInterface defines the download and restore contract.
type ExportServiceInterface interface {
	ExportCSV(ctx context.Context) (*bytes.Buffer, string, error)
	ExportXLSX(ctx context.Context) (*bytes.Buffer, string, error)
	Backup(ctx context.Context) (*services.Backup, string, error)
	PreviewRestore(ctx context.Context, snapshot services.Backup) (*services.RestoreReport, error)
}

type ExportHandler struct {
	service     ExportServiceInterface
	auditLogger *pkglogger.AuditLogger
	ipConfig    *pkghttp.IPConfig
	logger      *slog.Logger
}

func NewExportHandler(service ExportServiceInterface, auditLogger *pkglogger.AuditLogger, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		service:     service,
		auditLogger: auditLogger,
		ipConfig:    ipConfig,
		logger:      logger,
	}
}

// Export handles GET /api/admin/export?format=csv|xlsx (csv by default)
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	var (
		buf         *bytes.Buffer
		filename    string
		contentType string
		err         error
	)
	switch format {
	case "csv":
		buf, filename, err = h.service.ExportCSV(r.Context())
		contentType = contentTypeCSV
	case "xlsx":
		buf, filename, err = h.service.ExportXLSX(r.Context())
		contentType = contentTypeXLSX
	default:
		pkghttp.WriteBadRequest(w, "Неподдържан формат. Използвайте csv или xlsx.")
		return
	}
	if err != nil {
		h.logger.Error("export failed", slog.String("format", format), slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Грешка при експортирането.")
		return
	}

	h.auditLogger.LogGuestMutation("guest_export", pkghttp.ExtractClientIP(r, h.ipConfig), nil,
		map[string]string{"format": format})
	writeAttachment(w, contentType, filename, buf.Bytes())
}

// Backup handles GET /api/admin/backup
func (h *ExportHandler) Backup(w http.ResponseWriter, r *http.Request) {
	backup, filename, err := h.service.Backup(r.Context())
	if err != nil {
		h.logger.Error("backup failed", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Грешка при създаването на резервно копие.")
		return
	}

	body, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		h.logger.Error("failed to encode backup", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Грешка при създаването на резервно копие.")
		return
	}

	h.auditLogger.LogGuestMutation("guest_backup", pkghttp.ExtractClientIP(r, h.ipConfig), nil,
		map[string]string{"guest_total": strconv.Itoa(backup.GuestCount)})
	writeAttachment(w, "application/json; charset=utf-8", filename, body)
}

// Restore handles POST /api/admin/backup/restore. It only reports what a
// restore would do; nothing is written.
func (h *ExportHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var snapshot services.Backup

	r.Body = http.MaxBytesReader(w, r.Body, maxRestoreBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		pkghttp.WriteBadRequest(w, "Невалиден файл с резервно копие.")
		return
	}
	if snapshot.Version < 1 || snapshot.Version > services.BackupVersion {
		pkghttp.WriteBadRequest(w, fmt.Sprintf("Неподдържана версия на резервното копие: %d.", snapshot.Version))
		return
	}

	report, err := h.service.PreviewRestore(r.Context(), snapshot)
	if err != nil {
		h.logger.Error("restore preview failed", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Грешка при проверката на резервното копие.")
		return
	}
	pkghttp.WriteSuccess(w, report, "")
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
