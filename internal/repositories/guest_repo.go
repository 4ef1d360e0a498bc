package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BradenHooton/svatba/internal/models"
	"github.com/google/uuid"
)

// GuestRepository is the CRUD contract shared by every guest backend.
type GuestRepository interface {
	GetAll(ctx context.Context) ([]models.Guest, error)
	Add(ctx context.Context, guest models.NewGuest) (*models.Guest, error)
	FindByEmail(ctx context.Context, email string) (*models.Guest, error)
	Update(ctx context.Context, id string, update models.GuestUpdate) (*models.Guest, error)
	Delete(ctx context.Context, id string) error
	BulkUpdateAttending(ctx context.Context, ids []string, attending bool) (int, error)
	BulkDelete(ctx context.Context, ids []string) (int, error)
	GetStats(ctx context.Context) (*models.GuestStats, error)
	Ping(ctx context.Context) error
}

// newGuestID returns "guest_<unixMillis>_<9 random chars>".
func newGuestID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("guest_%d_%s", now.UnixMilli(), suffix)
}

func indexOfGuest(guests []models.Guest, id string) int {
	for i := range guests {
		if guests[i].ID == id {
			return i
		}
	}
	return -1
}

func findGuestByEmail(guests []models.Guest, email string) *models.Guest {
	email = models.NormalizeEmail(email)
	for i := range guests {
		if models.NormalizeEmail(guests[i].Email) == email {
			g := guests[i]
			return &g
		}
	}
	return nil
}

// applyGuestUpdate merges update into the guest with the given id in place.
// It returns the previous and new versions of the record.
func applyGuestUpdate(guests []models.Guest, id string, update models.GuestUpdate) (before, after models.Guest, err error) {
	idx := indexOfGuest(guests, id)
	if idx < 0 {
		return before, after, models.ErrGuestNotFound
	}

	if update.Email != nil {
		normalized := models.NormalizeEmail(*update.Email)
		update.Email = &normalized
		if other := findGuestByEmail(guests, normalized); other != nil && other.ID != id {
			return before, after, models.ErrDuplicateEmail
		}
	}

	before = guests[idx]
	after = update.Apply(before)
	guests[idx] = after
	return before, after, nil
}

// setAttending flips attending for every matching id and reports the matches.
func setAttending(guests []models.Guest, ids []string, attending bool) int {
	wanted := idSet(ids)
	count := 0
	for i := range guests {
		if _, ok := wanted[guests[i].ID]; ok {
			guests[i].Attending = attending
			count++
		}
	}
	return count
}

// removeGuests splits guests into those kept and those whose id is in ids.
func removeGuests(guests []models.Guest, ids []string) (kept, removed []models.Guest) {
	wanted := idSet(ids)
	kept = make([]models.Guest, 0, len(guests))
	for _, g := range guests {
		if _, ok := wanted[g.ID]; ok {
			removed = append(removed, g)
			continue
		}
		kept = append(kept, g)
	}
	return kept, removed
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
