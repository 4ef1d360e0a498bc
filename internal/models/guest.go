package models

import (
	"strings"
	"time"
)

// Dietary preferences and menu choices accepted on the RSVP form
const (
	DietaryStandard   = "standard"
	DietaryVegetarian = "vegetarian"

	MenuMeat       = "meat"
	MenuVegetarian = "vegetarian"
)

// SubmissionDateLayout is the ISO-8601 layout used for submissionDate and
// rate-limit timestamps (millisecond precision, UTC).
const SubmissionDateLayout = "2006-01-02T15:04:05.000Z07:00"

// Guest is one RSVP submission as persisted by every storage backend.
type Guest struct {
	ID                string `json:"id"`
	GuestName         string `json:"guestName"`
	Email             string `json:"email"`
	Phone             string `json:"phone,omitempty"`
	Attending         bool   `json:"attending"`
	PlusOneAttending  bool   `json:"plusOneAttending"`
	PlusOneName       string `json:"plusOneName,omitempty"`
	ChildrenCount     int    `json:"childrenCount"`
	DietaryPreference string `json:"dietaryPreference,omitempty"`
	MenuChoice        string `json:"menuChoice,omitempty"`
	PlusOneMenuChoice string `json:"plusOneMenuChoice,omitempty"`
	Allergies         string `json:"allergies,omitempty"`
	SubmissionDate    string `json:"submissionDate"`
	IPAddress         string `json:"ipAddress,omitempty"`
}

// SubmittedAt parses SubmissionDate. Unparseable values sort as the zero time.
func (g Guest) SubmittedAt() time.Time {
	t, err := time.Parse(time.RFC3339Nano, g.SubmissionDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// NewGuest is a guest record before the store assigns id and submissionDate.
type NewGuest struct {
	GuestName         string
	Email             string
	Phone             string
	Attending         bool
	PlusOneAttending  bool
	PlusOneName       string
	ChildrenCount     int
	DietaryPreference string
	MenuChoice        string
	PlusOneMenuChoice string
	Allergies         string
	IPAddress         string
}

// ToGuest builds the stored record for a freshly generated id and timestamp.
func (n NewGuest) ToGuest(id string, submittedAt time.Time) Guest {
	return Guest{
		ID:                id,
		GuestName:         n.GuestName,
		Email:             n.Email,
		Phone:             n.Phone,
		Attending:         n.Attending,
		PlusOneAttending:  n.PlusOneAttending,
		PlusOneName:       n.PlusOneName,
		ChildrenCount:     n.ChildrenCount,
		DietaryPreference: n.DietaryPreference,
		MenuChoice:        n.MenuChoice,
		PlusOneMenuChoice: n.PlusOneMenuChoice,
		Allergies:         n.Allergies,
		SubmissionDate:    submittedAt.UTC().Format(SubmissionDateLayout),
		IPAddress:         n.IPAddress,
	}
}

// GuestUpdate holds the fields an admin may change. Nil means "leave as is".
// id, submissionDate and ipAddress are immutable and therefore absent.
type GuestUpdate struct {
	GuestName         *string `json:"guestName,omitempty"`
	Email             *string `json:"email,omitempty"`
	Phone             *string `json:"phone,omitempty"`
	Attending         *bool   `json:"attending,omitempty"`
	PlusOneAttending  *bool   `json:"plusOneAttending,omitempty"`
	PlusOneName       *string `json:"plusOneName,omitempty"`
	ChildrenCount     *int    `json:"childrenCount,omitempty"`
	DietaryPreference *string `json:"dietaryPreference,omitempty"`
	MenuChoice        *string `json:"menuChoice,omitempty"`
	PlusOneMenuChoice *string `json:"plusOneMenuChoice,omitempty"`
	Allergies         *string `json:"allergies,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u GuestUpdate) IsEmpty() bool {
	return u.GuestName == nil && u.Email == nil && u.Phone == nil &&
		u.Attending == nil && u.PlusOneAttending == nil && u.PlusOneName == nil &&
		u.ChildrenCount == nil && u.DietaryPreference == nil && u.MenuChoice == nil &&
		u.PlusOneMenuChoice == nil && u.Allergies == nil
}

// Apply merges the non-nil fields into g and returns the result.
func (u GuestUpdate) Apply(g Guest) Guest {
	if u.GuestName != nil {
		g.GuestName = *u.GuestName
	}
	if u.Email != nil {
		g.Email = *u.Email
	}
	if u.Phone != nil {
		g.Phone = *u.Phone
	}
	if u.Attending != nil {
		g.Attending = *u.Attending
	}
	if u.PlusOneAttending != nil {
		g.PlusOneAttending = *u.PlusOneAttending
	}
	if u.PlusOneName != nil {
		g.PlusOneName = *u.PlusOneName
	}
	if u.ChildrenCount != nil {
		g.ChildrenCount = *u.ChildrenCount
	}
	if u.DietaryPreference != nil {
		g.DietaryPreference = *u.DietaryPreference
	}
	if u.MenuChoice != nil {
		g.MenuChoice = *u.MenuChoice
	}
	if u.PlusOneMenuChoice != nil {
		g.PlusOneMenuChoice = *u.PlusOneMenuChoice
	}
	if u.Allergies != nil {
		g.Allergies = *u.Allergies
	}
	return g
}

// NormalizeEmail is the canonical form used for uniqueness checks and index keys.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RedactForAdmin returns copies with audit-only fields cleared so they are
// omitted from admin responses and exports.
func RedactForAdmin(guests []Guest) []Guest {
	out := make([]Guest, len(guests))
	for i, g := range guests {
		g.IPAddress = ""
		out[i] = g
	}
	return out
}
