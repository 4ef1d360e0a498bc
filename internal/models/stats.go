package models

import "strings"

// GuestStats aggregates the guest list for the admin dashboard.
type GuestStats struct {
	TotalGuests        int            `json:"totalGuests"`
	AttendingCount     int            `json:"attendingCount"`
	NotAttendingCount  int            `json:"notAttendingCount"`
	PlusOnesCount      int            `json:"plusOnesCount"`
	TotalChildren      int            `json:"totalChildren"`
	TotalAttendees     int            `json:"totalAttendees"`
	DietaryPreferences map[string]int `json:"dietaryPreferences"`
	MenuChoices        map[string]int `json:"menuChoices"`
	Allergies          map[string]int `json:"allergies"`
}

// ComputeStats is the single stats implementation shared by every backend.
// Headcount figures only count guests who confirmed attendance. Allergy
// texts are bucketed by their raw lowercased form, so near-duplicates are
// counted separately.
func ComputeStats(guests []Guest) *GuestStats {
	stats := &GuestStats{
		TotalGuests:        len(guests),
		DietaryPreferences: make(map[string]int),
		MenuChoices:        make(map[string]int),
		Allergies:          make(map[string]int),
	}

	for _, g := range guests {
		if !g.Attending {
			stats.NotAttendingCount++
			continue
		}

		stats.AttendingCount++
		stats.TotalAttendees++
		stats.TotalChildren += g.ChildrenCount
		stats.TotalAttendees += g.ChildrenCount

		if g.PlusOneAttending {
			stats.PlusOnesCount++
			stats.TotalAttendees++
			if g.PlusOneMenuChoice != "" {
				stats.MenuChoices[g.PlusOneMenuChoice]++
			}
		}

		dietary := g.DietaryPreference
		if dietary == "" {
			dietary = DietaryStandard
		}
		stats.DietaryPreferences[dietary]++

		if g.MenuChoice != "" {
			stats.MenuChoices[g.MenuChoice]++
		}

		if allergy := strings.ToLower(strings.TrimSpace(g.Allergies)); allergy != "" {
			stats.Allergies[allergy]++
		}
	}

	return stats
}
