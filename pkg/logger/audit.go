package logger

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// AuditEvent represents a security-relevant admin action
type AuditEvent struct {
	EventType     string
	IPAddress     string
	UserAgent     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger writes audit records through the structured logger. It is
// constructed once in main and injected wherever admin actions happen.
type AuditLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger, now: time.Now}
}

// LogAuthAttempt records admin login, logout and rejected session checks.
func (al *AuditLogger) LogAuthAttempt(event AuditEvent) {
	al.log("auth", event)
}

// LogGuestMutation records admin changes to guest records.
func (al *AuditLogger) LogGuestMutation(action, ipAddress string, guestIDs []string, metadata map[string]string) {
	meta := map[string]string{
		"guest_ids":   strings.Join(guestIDs, ","),
		"guest_count": strconv.Itoa(len(guestIDs)),
	}
	for k, v := range metadata {
		meta[k] = v
	}
	al.log("guest", AuditEvent{
		EventType: action,
		IPAddress: ipAddress,
		Success:   true,
		Metadata:  meta,
	})
}

func (al *AuditLogger) log(auditType string, event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", auditType),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", al.now().UTC().Format(time.RFC3339)),
	}

	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}
	for key, val := range event.Metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}
