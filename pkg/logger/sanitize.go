package logger

import (
	"log/slog"
	"strings"
)

// SanitizedEmail masks an email address for logging (e.g., "i***@*******.com")
func SanitizedEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" {
		return "[invalid-email]"
	}

	username := []rune(parts[0])
	domain := parts[1]

	// keep the first character only
	masked := string(username[0]) + strings.Repeat("*", len(username)-1)

	domainParts := strings.Split(domain, ".")
	if len(domainParts) > 1 {
		for i := 0; i < len(domainParts)-1; i++ {
			domainParts[i] = strings.Repeat("*", len([]rune(domainParts[i])))
		}
		domain = strings.Join(domainParts, ".")
	}

	return masked + "@" + domain
}

// RedactedAttr returns "[REDACTED]" in production and the real value elsewhere.
func RedactedAttr(key, value, env string) slog.Attr {
	if env == "production" {
		return slog.String(key, "[REDACTED]")
	}
	return slog.String(key, value)
}

var sensitiveParams = []string{
	"accesscode",
	"access_code",
	"code",
	"token",
	"secret",
	"email",
	"phone",
	"session",
}

// SanitizeQueryString reports whether the query string carries anything
// that must not reach the logs.
func SanitizeQueryString(rawQuery string) bool {
	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
