package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("resource already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")

	// Guest store errors
	ErrGuestNotFound  = errors.New("guest not found")
	ErrDuplicateEmail = fmt.Errorf("guest with this email already exists: %w", ErrConflict)

	// Rate limiting
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// ValidationError carries per-field messages for a rejected request body.
// Field keys are the JSON names the client sent.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

// Is lets errors.Is(err, ErrBadRequest) match validation failures.
func (e *ValidationError) Is(target error) bool {
	return target == ErrBadRequest
}
