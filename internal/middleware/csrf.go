package middleware

import (
	"log/slog"
	"mime"
	"net/http"

	pkghttp "github.com/BradenHooton/svatba/pkg/http"
)

// RequireJSON rejects state-changing requests whose body is not JSON.
// Cross-site HTML forms can only send form or text encodings, so together
// with the SameSite=Lax session cookie this blocks form-based CSRF on the
// cookie-authenticated admin API.
func RequireJSON(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isStateChangingMethod(r.Method) || r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mediaType != "application/json" {
				logger.Warn("rejected non-JSON request",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("content_type", r.Header.Get("Content-Type")))
				pkghttp.WriteError(w, http.StatusUnsupportedMediaType, pkghttp.CodeBadRequest,
					"Заявката трябва да е във формат JSON.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isStateChangingMethod checks if the HTTP method modifies state
func isStateChangingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}
