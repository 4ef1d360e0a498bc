package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// Envelope is the response body shape shared by every JSON endpoint.
type Envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`   // localized, shown to the user
	Message string            `json:"message,omitempty"` // localized success note
	Code    string            `json:"code,omitempty"`    // machine-readable
	Errors  map[string]string `json:"errors,omitempty"`  // per-field validation messages
	Reason  string            `json:"reason,omitempty"`  // why a session was rejected

	// RetryAfter is the number of seconds until a rate-limited client may retry
	RetryAfter int `json:"retryAfter,omitempty"`
}

// Machine-readable error codes
const (
	CodeValidation   = "validation_error"
	CodeDuplicate    = "duplicate_email"
	CodeNotFound     = "not_found"
	CodeUnauthorized = "unauthorized"
	CodeRateLimited  = "rate_limited"
	CodeInternal     = "internal_error"
	CodeBadRequest   = "bad_request"
)

// WriteJSON writes v as JSON with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes {"success": true, "data": data, "message": message}.
func WriteSuccess(w http.ResponseWriter, data any, message string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, Message: message})
}

// WriteError writes a failed envelope with the given status code
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteJSON(w, statusCode, Envelope{Success: false, Code: code, Error: message})
}

func WriteValidationError(w http.ResponseWriter, message string, fields map[string]string) {
	WriteJSON(w, http.StatusBadRequest, Envelope{
		Success: false,
		Code:    CodeValidation,
		Error:   message,
		Errors:  fields,
	})
}

func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeBadRequest, message)
}

// WriteUnauthorized includes reason (missing, expired, invalid) so the admin
// UI can tell an expired session from a bad one.
func WriteUnauthorized(w http.ResponseWriter, message, reason string) {
	WriteJSON(w, http.StatusUnauthorized, Envelope{
		Success: false,
		Code:    CodeUnauthorized,
		Error:   message,
		Reason:  reason,
	})
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeDuplicate, message)
}

// WriteTooManyRequests also sets the Retry-After header.
func WriteTooManyRequests(w http.ResponseWriter, message string, retryAfter time.Duration) {
	seconds := int(retryAfter.Round(time.Second) / time.Second)
	if seconds > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}
	WriteJSON(w, http.StatusTooManyRequests, Envelope{
		Success:    false,
		Code:       CodeRateLimited,
		Error:      message,
		RetryAfter: seconds,
	})
}

func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternal, message)
}
