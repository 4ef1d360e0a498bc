package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/svatba/internal/auth"
	"github.com/BradenHooton/svatba/internal/metrics"
	"github.com/BradenHooton/svatba/internal/models"
	pkgauth "github.com/BradenHooton/svatba/pkg/auth"
	pkglogger "github.com/BradenHooton/svatba/pkg/logger"
)

// SessionInfo is the body of GET /api/auth/session.
type SessionInfo struct {
	IsAuthenticated bool  `json:"isAuthenticated"`
	LoginTime       int64 `json:"loginTime,omitempty"`     // epoch millis
	TimeRemaining   int64 `json:"timeRemaining,omitempty"` // millis
}

// AuthService handles the shared access code and admin sessions
type AuthService struct {
	accessCode  string
	tm          *auth.TokenManager
	timing      *auth.TimingDelay
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewAuthService(accessCode string, tm *auth.TokenManager, timing *auth.TimingDelay, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		accessCode:  accessCode,
		tm:          tm,
		timing:      timing,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// VerifyAccessCode compares against the configured code (plain or bcrypt).
func (s *AuthService) VerifyAccessCode(code string) bool {
	return pkgauth.CompareAccessCode(s.accessCode, code)
}

// Login exchanges the access code for a signed session token. A wrong code
// returns models.ErrUnauthorized after the failure delay.
func (s *AuthService) Login(ctx context.Context, code, ipAddress, userAgent string) (string, *models.AdminClaims, error) {
	if !s.VerifyAccessCode(strings.TrimSpace(code)) {
		s.timing.Wait(false)
		metrics.AdminLoginsTotal.WithLabelValues("failure").Inc()
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "admin_login",
			IPAddress:     ipAddress,
			UserAgent:     userAgent,
			Success:       false,
			FailureReason: "invalid_access_code",
		})
		return "", nil, models.ErrUnauthorized
	}

	token, claims, err := s.tm.IssueToken()
	if err != nil {
		s.logger.Error("failed to issue session token", slog.Any("error", err))
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	metrics.AdminLoginsTotal.WithLabelValues("success").Inc()
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "admin_login",
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Success:   true,
	})
	return token, claims, nil
}

// Logout only records the event, with the session age when the cookie still
// held a valid token. The token stays valid until it expires; the handler
// clears the cookie.
func (s *AuthService) Logout(ctx context.Context, token, ipAddress, userAgent string) {
	event := pkglogger.AuditEvent{
		EventType: "admin_logout",
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Success:   true,
	}
	if token != "" {
		if claims, err := s.tm.VerifyToken(token); err == nil {
			event.Metadata = map[string]string{
				"session_age": claims.SessionAge(s.tm.Now()).Round(time.Second).String(),
			}
		}
	}
	s.auditLogger.LogAuthAttempt(event)
}

// Session describes the session carried by token, if any.
func (s *AuthService) Session(token string) SessionInfo {
	if token == "" {
		return SessionInfo{}
	}
	claims, err := s.tm.VerifyToken(token)
	if err != nil {
		return SessionInfo{}
	}
	return SessionInfo{
		IsAuthenticated: true,
		LoginTime:       claims.LoginTime,
		TimeRemaining:   claims.TimeRemaining(s.tm.Now()).Milliseconds(),
	}
}
