package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionDuration is the lifetime of an admin session token and cookie.
const SessionDuration = 24 * time.Hour

// AdminClaims is the whole admin session; nothing is stored server-side.
type AdminClaims struct {
	IsAdmin   bool  `json:"isAdmin"`
	LoginTime int64 `json:"loginTime"` // epoch millis
	jwt.RegisteredClaims
}

// LoginAt returns LoginTime as a time.Time.
func (c *AdminClaims) LoginAt() time.Time {
	return time.UnixMilli(c.LoginTime)
}

// TimeRemaining is max(0, loginTime + 24h - now).
func (c *AdminClaims) TimeRemaining(now time.Time) time.Duration {
	remaining := c.LoginAt().Add(SessionDuration).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SessionAge is how long ago the session was issued.
func (c *AdminClaims) SessionAge(now time.Time) time.Duration {
	return now.Sub(c.LoginAt())
}
