package models

import "time"

// RateLimitRecord tracks RSVP submissions from one client IP within the
// current window. Timestamps use SubmissionDateLayout.
type RateLimitRecord struct {
	Count        int    `json:"count"`
	FirstAttempt string `json:"firstAttempt"`
	LastAttempt  string `json:"lastAttempt"`
}

// FirstAttemptTime parses FirstAttempt; a corrupt value reads as the zero
// time, which makes the window count as elapsed.
func (r RateLimitRecord) FirstAttemptTime() time.Time {
	t, err := time.Parse(time.RFC3339Nano, r.FirstAttempt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// WindowElapsed reports whether now is past the window that opened at FirstAttempt.
func (r RateLimitRecord) WindowElapsed(now time.Time, window time.Duration) bool {
	return now.Sub(r.FirstAttemptTime()) > window
}
