package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/svatba/internal/handlers"
	"github.com/BradenHooton/svatba/internal/models"
	"github.com/BradenHooton/svatba/internal/services"
)

func newExportHandler() *handlers.ExportHandler {
	repo := services.NewMockGuestRepository(
		models.Guest{ID: "g1", GuestName: "Ана", Email: "ana@x.com", Attending: true, SubmissionDate: "2025-05-01T10:00:00.000Z", IPAddress: "10.0.0.1"},
	)
	guests := services.NewGuestService(repo, testLogger())
	return handlers.NewExportHandler(services.NewExportService(guests, testLogger()), testAudit(), nil, testLogger())
}

func TestExport_CSVByDefault(t *testing.T) {
	w := httptest.NewRecorder()
	newExportHandler().Export(w, httptest.NewRequest(http.MethodGet, "/api/admin/export", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Regexp(t, `^attachment; filename="guests-\d{4}-\d{2}-\d{2}\.csv"$`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "\ufeffИме,"))
	assert.Contains(t, w.Body.String(), "ana@x.com")
	assert.NotContains(t, w.Body.String(), "10.0.0.1")
}

func TestExport_XLSX(t *testing.T) {
	w := httptest.NewRecorder()
	newExportHandler().Export(w, httptest.NewRequest(http.MethodGet, "/api/admin/export?format=xlsx", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	// xlsx files are zip archives
	assert.True(t, strings.HasPrefix(w.Body.String(), "PK"))
}

func TestExport_UnknownFormat(t *testing.T) {
	w := httptest.NewRecorder()
	newExportHandler().Export(w, httptest.NewRequest(http.MethodGet, "/api/admin/export?format=pdf", nil))
	decodeEnvelope(t, w, http.StatusBadRequest)
}

func TestBackup_Download(t *testing.T) {
	w := httptest.NewRecorder()
	newExportHandler().Backup(w, httptest.NewRequest(http.MethodGet, "/api/admin/backup", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".json")

	var backup services.Backup
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &backup))
	assert.Equal(t, services.BackupVersion, backup.Version)
	assert.Equal(t, 1, backup.GuestCount)
	assert.Empty(t, backup.Guests[0].IPAddress)
}

func TestRestore_DryRun(t *testing.T) {
	h := newExportHandler()

	snapshot := services.Backup{
		Version: services.BackupVersion,
		Guests: []models.Guest{
			{ID: "g1", GuestName: "Ана", Email: "ANA@x.com", SubmissionDate: "2025-05-01T10:00:00.000Z"},
			{ID: "g9", GuestName: "Нов", Email: "nov@x.com", SubmissionDate: "2025-05-09T10:00:00.000Z"},
		},
	}
	w := httptest.NewRecorder()
	h.Restore(w, newTestRequest(t, http.MethodPost, "/api/admin/backup/restore", snapshot))

	env := decodeEnvelope(t, w, http.StatusOK)
	var report services.RestoreReport
	decodeData(t, env, &report)
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.New)
	assert.Equal(t, 1, report.DuplicatesOfExisting)
}

func TestRestore_RejectsBadSnapshots(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
	}{
		{"not json", `{{`},
		{"missing version", map[string]interface{}{"guests": []interface{}{}}},
		{"future version", map[string]interface{}{"version": 99, "guests": []interface{}{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newExportHandler().Restore(w, newTestRequest(t, http.MethodPost, "/api/admin/backup/restore", tt.body))
			decodeEnvelope(t, w, http.StatusBadRequest)
		})
	}
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	handlers.NewHealthHandler(stubPinger{}, "file", testLogger()).Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","backend":"file"}`, w.Body.String())

	w = httptest.NewRecorder()
	handlers.NewHealthHandler(stubPinger{err: context.DeadlineExceeded}, "redis", testLogger()).Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unavailable","backend":"redis"}`, w.Body.String())
}
