package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/svatba/internal/auth"
	"github.com/BradenHooton/svatba/internal/handlers"
	"github.com/BradenHooton/svatba/internal/models"
	"github.com/BradenHooton/svatba/internal/services"
	pkghttp "github.com/BradenHooton/svatba/pkg/http"
	pkglogger "github.com/BradenHooton/svatba/pkg/logger"
)

// mockGuestService implements handlers.GuestServiceInterface for testing
type mockGuestService struct {
	ListFunc       func(ctx context.Context, params services.ListParams) (*services.GuestList, error)
	StatsFunc      func(ctx context.Context) (*models.GuestStats, error)
	UpdateFunc     func(ctx context.Context, id string, update models.GuestUpdate) (*models.Guest, error)
	DeleteFunc     func(ctx context.Context, id string) error
	BulkUpdateFunc func(ctx context.Context, ids []string, attending bool) (int, error)
	BulkDeleteFunc func(ctx context.Context, ids []string) (int, error)
}

func (m *mockGuestService) List(ctx context.Context, params services.ListParams) (*services.GuestList, error) {
	if m.ListFunc == nil {
		return &services.GuestList{Guests: []models.Guest{}, Stats: &models.GuestStats{}}, nil
	}
	return m.ListFunc(ctx, params)
}

func (m *mockGuestService) Stats(ctx context.Context) (*models.GuestStats, error) {
	if m.StatsFunc == nil {
		return &models.GuestStats{}, nil
	}
	return m.StatsFunc(ctx)
}

func (m *mockGuestService) Update(ctx context.Context, id string, update models.GuestUpdate) (*models.Guest, error) {
	return m.UpdateFunc(ctx, id, update)
}

func (m *mockGuestService) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

func (m *mockGuestService) BulkUpdateAttending(ctx context.Context, ids []string, attending bool) (int, error) {
	return m.BulkUpdateFunc(ctx, ids, attending)
}

func (m *mockGuestService) BulkDelete(ctx context.Context, ids []string) (int, error) {
	return m.BulkDeleteFunc(ctx, ids)
}

func newGuestHandler(svc handlers.GuestServiceInterface) *handlers.GuestHandler {
	return handlers.NewGuestHandler(svc, testAudit(), nil, testLogger())
}

func TestGuestList_ParsesQuery(t *testing.T) {
	tests := []struct {
		query string
		want  services.ListParams
	}{
		{"", services.ListParams{}},
		{"?page=2&limit=50&sortBy=name&sortOrder=asc", services.ListParams{Page: 2, Limit: 50, SortBy: "name", SortOrder: "asc"}},
		{"?filterAttending=true", services.ListParams{FilterAttending: boolPtr(true)}},
		{"?filterAttending=false", services.ListParams{FilterAttending: boolPtr(false)}},
		{"?filterAttending=maybe&page=abc", services.ListParams{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got services.ListParams
			mock := &mockGuestService{
				ListFunc: func(ctx context.Context, params services.ListParams) (*services.GuestList, error) {
					got = params
					return &services.GuestList{Guests: []models.Guest{}, Stats: &models.GuestStats{}}, nil
				},
			}

			w := httptest.NewRecorder()
			newGuestHandler(mock).List(w, httptest.NewRequest(http.MethodGet, "/api/admin/guests"+tt.query, nil))

			env := decodeEnvelope(t, w, http.StatusOK)
			assert.True(t, env.Success)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGuestList_WithRealService(t *testing.T) {
	repo := services.NewMockGuestRepository(
		models.Guest{ID: "g1", GuestName: "Ана", Email: "ana@x.com", Attending: true, SubmissionDate: "2025-05-01T10:00:00.000Z", IPAddress: "10.0.0.1"},
		models.Guest{ID: "g2", GuestName: "Борис", Email: "boris@x.com", SubmissionDate: "2025-05-02T10:00:00.000Z"},
	)
	h := newGuestHandler(services.NewGuestService(repo, testLogger()))

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/admin/guests?limit=1", nil))

	env := decodeEnvelope(t, w, http.StatusOK)
	var list services.GuestList
	decodeData(t, env, &list)
	require.Len(t, list.Guests, 1)
	assert.Equal(t, "g2", list.Guests[0].ID)
	assert.Equal(t, services.Pagination{Page: 1, Limit: 1, Total: 2, TotalPages: 2}, list.Pagination)
	assert.Equal(t, 2, list.Stats.TotalGuests)
	assert.NotContains(t, w.Body.String(), "10.0.0.1")
}

func TestGuestList_ServiceError(t *testing.T) {
	mock := &mockGuestService{
		ListFunc: func(ctx context.Context, params services.ListParams) (*services.GuestList, error) {
			return nil, errors.New("redis down")
		},
	}
	w := httptest.NewRecorder()
	newGuestHandler(mock).List(w, httptest.NewRequest(http.MethodGet, "/api/admin/guests", nil))
	decodeEnvelope(t, w, http.StatusInternalServerError)
}

func TestGuestUpdate(t *testing.T) {
	tests := []struct {
		name   string
		body   interface{}
		err    error
		status int
		code   string
	}{
		{"ok", map[string]interface{}{"guestName": "Ана Петрова"}, nil, http.StatusOK, ""},
		{"not found", map[string]interface{}{"guestName": "Ана"}, models.ErrGuestNotFound, http.StatusNotFound, pkghttp.CodeNotFound},
		{"email taken", map[string]interface{}{"email": "b@x.com"}, models.ErrDuplicateEmail, http.StatusConflict, pkghttp.CodeDuplicate},
		{"empty update", map[string]interface{}{}, nil, http.StatusBadRequest, pkghttp.CodeBadRequest},
		{"invalid email", map[string]interface{}{"email": "x"}, nil, http.StatusBadRequest, pkghttp.CodeValidation},
		{"invalid children", map[string]interface{}{"childrenCount": 20}, nil, http.StatusBadRequest, pkghttp.CodeValidation},
		{"name empty after sanitizing", map[string]interface{}{"guestName": "<   >"}, nil, http.StatusBadRequest, pkghttp.CodeValidation},
		{"plus-one without name", map[string]interface{}{"plusOneAttending": true},
			&models.ValidationError{Fields: map[string]string{"plusOneName": "x"}}, http.StatusBadRequest, pkghttp.CodeValidation},
		{"store failure", map[string]interface{}{"guestName": "Ана"}, errors.New("io"), http.StatusInternalServerError, pkghttp.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			var gotUpdate models.GuestUpdate
			mock := &mockGuestService{
				UpdateFunc: func(ctx context.Context, id string, update models.GuestUpdate) (*models.Guest, error) {
					gotID, gotUpdate = id, update
					if update.GuestName != nil && *update.GuestName == "" {
						t.Fatal("blank name reached the service")
					}
					if tt.err != nil {
						return nil, tt.err
					}
					g := update.Apply(models.Guest{ID: id})
					return &g, nil
				},
			}

			req := withURLParam(newTestRequest(t, http.MethodPatch, "/api/admin/guests/g1", tt.body), "id", "g1")
			w := httptest.NewRecorder()
			newGuestHandler(mock).Update(w, req)

			env := decodeEnvelope(t, w, tt.status)
			assert.Equal(t, tt.code, env.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "g1", gotID)
				require.NotNil(t, gotUpdate.GuestName)
				assert.Equal(t, "Ана Петрова", *gotUpdate.GuestName)
			}
		})
	}
}

func TestGuestUpdate_SanitizesBeforeStoring(t *testing.T) {
	var got models.GuestUpdate
	mock := &mockGuestService{
		UpdateFunc: func(ctx context.Context, id string, update models.GuestUpdate) (*models.Guest, error) {
			got = update
			g := update.Apply(models.Guest{ID: id})
			return &g, nil
		},
	}

	req := withURLParam(newTestRequest(t, http.MethodPatch, "/api/admin/guests/g1",
		map[string]interface{}{"guestName": "  <b>Ана</b> ", "allergies": "<script>ядки"}), "id", "g1")
	w := httptest.NewRecorder()
	newGuestHandler(mock).Update(w, req)

	decodeEnvelope(t, w, http.StatusOK)
	require.NotNil(t, got.GuestName)
	assert.Equal(t, "bАна/b", *got.GuestName)
	require.NotNil(t, got.Allergies)
	assert.Equal(t, "scriptядки", *got.Allergies)
}

func TestGuestMutation_AuditsSessionLoginTime(t *testing.T) {
	var buf bytes.Buffer
	audit := pkglogger.NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	mock := &mockGuestService{
		DeleteFunc: func(ctx context.Context, id string) error { return nil },
	}
	h := handlers.NewGuestHandler(mock, audit, nil, testLogger())

	loginAt := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	claims := &models.AdminClaims{IsAdmin: true, LoginTime: loginAt.UnixMilli()}
	req := httptest.NewRequest(http.MethodDelete, "/api/admin/guests/g1", nil)
	req = withURLParam(req.WithContext(context.WithValue(req.Context(), auth.SessionContextKey, claims)), "id", "g1")

	w := httptest.NewRecorder()
	h.Delete(w, req)
	decodeEnvelope(t, w, http.StatusOK)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "guest_delete", entry["event_type"])
	assert.Equal(t, "2025-06-01T08:00:00Z", entry["session_login_time"])
}

func TestGuestHandlers_RejectOversizedBodies(t *testing.T) {
	called := false
	mock := &mockGuestService{
		UpdateFunc: func(ctx context.Context, id string, update models.GuestUpdate) (*models.Guest, error) {
			called = true
			return &models.Guest{}, nil
		},
		BulkDeleteFunc: func(ctx context.Context, ids []string) (int, error) {
			called = true
			return len(ids), nil
		},
	}
	h := newGuestHandler(mock)
	filler := strings.Repeat("a", 70<<10)

	w := httptest.NewRecorder()
	h.Update(w, withURLParam(newTestRequest(t, http.MethodPatch, "/api/admin/guests/g1",
		`{"allergies":"`+filler+`"}`), "id", "g1"))
	decodeEnvelope(t, w, http.StatusBadRequest)

	w = httptest.NewRecorder()
	h.Bulk(w, newTestRequest(t, http.MethodPost, "/api/admin/guests/bulk",
		`{"action":"delete","guestIds":["`+filler+`"]}`))
	decodeEnvelope(t, w, http.StatusBadRequest)

	assert.False(t, called)
}

func TestGuestDelete(t *testing.T) {
	deleted := map[string]bool{"g1": false}
	mock := &mockGuestService{
		DeleteFunc: func(ctx context.Context, id string) error {
			if done, ok := deleted[id]; !ok || done {
				return models.ErrGuestNotFound
			}
			deleted[id] = true
			return nil
		},
	}
	h := newGuestHandler(mock)

	w := httptest.NewRecorder()
	h.Delete(w, withURLParam(httptest.NewRequest(http.MethodDelete, "/api/admin/guests/g1", nil), "id", "g1"))
	decodeEnvelope(t, w, http.StatusOK)

	w = httptest.NewRecorder()
	h.Delete(w, withURLParam(httptest.NewRequest(http.MethodDelete, "/api/admin/guests/g1", nil), "id", "g1"))
	env := decodeEnvelope(t, w, http.StatusNotFound)
	assert.Equal(t, pkghttp.CodeNotFound, env.Code)
}

func TestGuestBulk(t *testing.T) {
	var gotIDs []string
	var gotAttending bool
	mock := &mockGuestService{
		BulkDeleteFunc: func(ctx context.Context, ids []string) (int, error) {
			gotIDs = ids
			if ids[0] == "missing" {
				return 0, models.ErrGuestNotFound
			}
			return len(ids), nil
		},
		BulkUpdateFunc: func(ctx context.Context, ids []string, attending bool) (int, error) {
			gotIDs, gotAttending = ids, attending
			return 1, nil
		},
	}
	h := newGuestHandler(mock)

	t.Run("delete", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Bulk(w, newTestRequest(t, http.MethodPost, "/api/admin/guests/bulk",
			map[string]interface{}{"action": "delete", "guestIds": []string{"g1", "g2"}}))
		env := decodeEnvelope(t, w, http.StatusOK)
		var resp handlers.BulkResponse
		decodeData(t, env, &resp)
		assert.Equal(t, 2, resp.Count)
		assert.Equal(t, []string{"g1", "g2"}, gotIDs)
	})

	t.Run("update attending", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Bulk(w, newTestRequest(t, http.MethodPost, "/api/admin/guests/bulk",
			map[string]interface{}{"action": "updateAttending", "guestIds": []string{"g3", "nope"}, "attending": false}))
		env := decodeEnvelope(t, w, http.StatusOK)
		var resp handlers.BulkResponse
		decodeData(t, env, &resp)
		assert.Equal(t, 1, resp.Count)
		assert.False(t, gotAttending)
	})

	t.Run("nothing matched", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Bulk(w, newTestRequest(t, http.MethodPost, "/api/admin/guests/bulk",
			map[string]interface{}{"action": "delete", "guestIds": []string{"missing"}}))
		decodeEnvelope(t, w, http.StatusNotFound)
	})

	invalid := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{"unknown action", map[string]interface{}{"action": "archive", "guestIds": []string{"g1"}}, "action"},
		{"no ids", map[string]interface{}{"action": "delete", "guestIds": []string{}}, "guestIds"},
		{"blank id", map[string]interface{}{"action": "delete", "guestIds": []string{""}}, "guestIds[0]"},
		{"attending missing", map[string]interface{}{"action": "updateAttending", "guestIds": []string{"g1"}}, "attending"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Bulk(w, newTestRequest(t, http.MethodPost, "/api/admin/guests/bulk", tt.body))
			env := decodeEnvelope(t, w, http.StatusBadRequest)
			assert.Contains(t, env.Errors, tt.field)
		})
	}
}

func TestGuestStats(t *testing.T) {
	mock := &mockGuestService{
		StatsFunc: func(ctx context.Context) (*models.GuestStats, error) {
			return &models.GuestStats{TotalGuests: 3, AttendingCount: 2, NotAttendingCount: 1}, nil
		},
	}
	w := httptest.NewRecorder()
	newGuestHandler(mock).Stats(w, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))

	env := decodeEnvelope(t, w, http.StatusOK)
	var stats models.GuestStats
	decodeData(t, env, &stats)
	assert.Equal(t, 3, stats.TotalGuests)
}
