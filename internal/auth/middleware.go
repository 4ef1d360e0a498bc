package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/BradenHooton/svatba/internal/models"
	pkghttp "github.com/BradenHooton/svatba/pkg/http"
)

type contextKey string

// SessionContextKey stores the verified *models.AdminClaims.
const SessionContextKey contextKey = "admin_session"

// Rejection reasons reported to the admin UI
const (
	ReasonMissing = "missing"
	ReasonExpired = "expired"
	ReasonInvalid = "invalid"
)

// Login page targets used by the redirecting middleware
const (
	LoginPath            = "/admin/login"
	LoginExpiredRedirect = LoginPath + "?expired=true"
	LoginErrorRedirect   = LoginPath + "?error=unauthorized"
)

var reasonMessages = map[string]string{
	ReasonMissing: "Необходимо е да влезете в администраторския панел.",
	ReasonExpired: "Сесията ви изтече. Моля, влезте отново.",
	ReasonInvalid: "Невалидна сесия. Моля, влезте отново.",
}

// SessionVerifier is satisfied by *TokenManager.
type SessionVerifier interface {
	VerifyToken(token string) (*models.AdminClaims, error)
}

// SessionFromRequest verifies the session cookie. On failure it returns the
// rejection reason.
func SessionFromRequest(r *http.Request, verifier SessionVerifier) (*models.AdminClaims, string) {
	token := GetSessionCookie(r)
	if token == "" {
		return nil, ReasonMissing
	}

	claims, err := verifier.VerifyToken(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, ReasonExpired
		}
		return nil, ReasonInvalid
	}
	return claims, ""
}

// RequireAdmin guards JSON API routes: 401 with a reason on failure.
func RequireAdmin(verifier SessionVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, reason := SessionFromRequest(r, verifier)
			if claims == nil {
				pkghttp.WriteUnauthorized(w, reasonMessages[reason], reason)
				return
			}
			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), claims)))
		})
	}
}

// RequireAdminRedirect guards routes the browser navigates to directly
// (downloads). Failures redirect to the login page.
func RequireAdminRedirect(verifier SessionVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, reason := SessionFromRequest(r, verifier)
			if claims == nil {
				target := LoginErrorRedirect
				if reason == ReasonExpired {
					target = LoginExpiredRedirect
				}
				http.Redirect(w, r, target, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), claims)))
		})
	}
}

func withSession(ctx context.Context, claims *models.AdminClaims) context.Context {
	return context.WithValue(ctx, SessionContextKey, claims)
}

// GetSessionFromContext returns the claims stored by the middleware.
func GetSessionFromContext(r *http.Request) *models.AdminClaims {
	claims, ok := r.Context().Value(SessionContextKey).(*models.AdminClaims)
	if !ok {
		return nil
	}
	return claims
}
