package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizedEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ivan@example.com", "i***@*******.com"},
		{"a@b.bg", "a@*.bg"},
		{"мария@поща.bg", "м****@****.bg"},
		{"not-an-email", "[invalid-email]"},
		{"@example.com", "[invalid-email]"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizedEmail(tt.in))
		})
	}
}

func TestSanitizeQueryString(t *testing.T) {
	assert.True(t, SanitizeQueryString("accessCode=1234"))
	assert.True(t, SanitizeQueryString("Email=a@b.c"))
	assert.False(t, SanitizeQueryString("page=2&sortBy=name"))
	assert.False(t, SanitizeQueryString(""))
}

func TestRedactedAttr(t *testing.T) {
	assert.Equal(t, "[REDACTED]", RedactedAttr("ip", "1.2.3.4", "production").Value.String())
	assert.Equal(t, "1.2.3.4", RedactedAttr("ip", "1.2.3.4", "development").Value.String())
}

func TestAuditLogger_LogGuestMutation(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	al.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	al.LogGuestMutation("guest_bulk_delete", "10.0.0.1", []string{"g1", "g2"}, map[string]string{"action": "delete"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "audit", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "guest", entry["audit_type"])
	assert.Equal(t, "g1,g2", entry["guest_ids"])
	assert.Equal(t, "2", entry["guest_count"])
	assert.Equal(t, "2025-06-01T00:00:00Z", entry["timestamp"])
}

func TestAuditLogger_FailedAuthIsWarn(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogAuthAttempt(AuditEvent{EventType: "admin_login", IPAddress: "1.1.1.1", FailureReason: "invalid_access_code"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "invalid_access_code", entry["failure_reason"])
	assert.Equal(t, false, entry["success"])
}
