package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/BradenHooton/svatba/internal/models"
)

// Token verification failures. Callers treat both as "no session"; the
// distinction only drives the expired=true hint on the login redirect.
var (
	ErrTokenExpired = errors.New("session token expired")
	ErrTokenInvalid = errors.New("session token invalid")
)

// TokenManager issues and verifies admin session tokens (HS256).
type TokenManager struct {
	secret   []byte
	duration time.Duration
	now      func() time.Time
}

func NewTokenManager(secret string, duration time.Duration) *TokenManager {
	if duration <= 0 {
		duration = models.SessionDuration
	}
	return &TokenManager{
		secret:   []byte(secret),
		duration: duration,
		now:      time.Now,
	}
}

// SetClock replaces the time source used for issuing and verifying.
func (tm *TokenManager) SetClock(now func() time.Time) {
	tm.now = now
}

// Now returns the manager's current time.
func (tm *TokenManager) Now() time.Time {
	return tm.now()
}

// Duration is the session lifetime.
func (tm *TokenManager) Duration() time.Duration {
	return tm.duration
}

// IssueToken creates a signed session for the admin.
func (tm *TokenManager) IssueToken() (string, *models.AdminClaims, error) {
	now := tm.now()
	claims := &models.AdminClaims{
		IsAdmin:   true,
		LoginTime: now.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.duration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, claims, nil
}

// VerifyToken checks signature, algorithm, expiry and the admin claims.
func (tm *TokenManager) VerifyToken(tokenString string) (*models.AdminClaims, error) {
	if tokenString == "" {
		return nil, ErrTokenInvalid
	}

	claims := &models.AdminClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return tm.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if !claims.IsAdmin || claims.LoginTime <= 0 {
		return nil, ErrTokenInvalid
	}
	if claims.TimeRemaining(tm.now()) == 0 {
		return nil, ErrTokenExpired
	}
	return claims, nil
}
