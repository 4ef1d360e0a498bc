package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/svatba/internal/database"
	"github.com/BradenHooton/svatba/internal/models"
)

const (
	guestsKey          = "wedding:guests"
	emailIndexPrefix   = "wedding:email:"
	rateLimitKeyPrefix = "wedding:ratelimit:"
)

func emailIndexKey(email string) string {
	return emailIndexPrefix + models.NormalizeEmail(email)
}

// KVGuestRepository stores the whole guest list as one JSON document plus an
// email -> id index. It backs both the Redis and the managed KV deployments.
type KVGuestRepository struct {
	store database.KeyValueStore
	now   func() time.Time
}

func NewKVGuestRepository(store database.KeyValueStore) *KVGuestRepository {
	return &KVGuestRepository{store: store, now: time.Now}
}

func (r *KVGuestRepository) GetAll(ctx context.Context) ([]models.Guest, error) {
	return r.load(ctx)
}

func (r *KVGuestRepository) Add(ctx context.Context, guest models.NewGuest) (*models.Guest, error) {
	guests, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now()
	guest.Email = models.NormalizeEmail(guest.Email)
	created := guest.ToGuest(newGuestID(now), now)

	if err := r.save(ctx, append(guests, created)); err != nil {
		return nil, err
	}
	if err := r.writeIndex(ctx, created.Email, created.ID); err != nil {
		return nil, err
	}
	return &created, nil
}

// FindByEmail resolves through the index only. A missing or stale index entry
// is reported as not found.
func (r *KVGuestRepository) FindByEmail(ctx context.Context, email string) (*models.Guest, error) {
	raw, err := r.store.Get(ctx, emailIndexKey(email))
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read email index: %w", err)
	}

	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, models.ErrNotFound
	}

	guests, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfGuest(guests, id)
	if idx < 0 || models.NormalizeEmail(guests[idx].Email) != models.NormalizeEmail(email) {
		return nil, models.ErrNotFound
	}
	g := guests[idx]
	return &g, nil
}

func (r *KVGuestRepository) Update(ctx context.Context, id string, update models.GuestUpdate) (*models.Guest, error) {
	guests, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	before, after, err := applyGuestUpdate(guests, id, update)
	if err != nil {
		return nil, err
	}
	if err := r.save(ctx, guests); err != nil {
		return nil, err
	}

	if models.NormalizeEmail(before.Email) != models.NormalizeEmail(after.Email) {
		if err := r.store.Delete(ctx, emailIndexKey(before.Email)); err != nil {
			return nil, fmt.Errorf("failed to drop old email index: %w", err)
		}
		if err := r.writeIndex(ctx, after.Email, after.ID); err != nil {
			return nil, err
		}
	}
	return &after, nil
}

func (r *KVGuestRepository) Delete(ctx context.Context, id string) error {
	_, err := r.BulkDelete(ctx, []string{id})
	return err
}

func (r *KVGuestRepository) BulkUpdateAttending(ctx context.Context, ids []string, attending bool) (int, error) {
	guests, err := r.load(ctx)
	if err != nil {
		return 0, err
	}

	count := setAttending(guests, ids, attending)
	if count == 0 {
		return 0, models.ErrGuestNotFound
	}
	if err := r.save(ctx, guests); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *KVGuestRepository) BulkDelete(ctx context.Context, ids []string) (int, error) {
	guests, err := r.load(ctx)
	if err != nil {
		return 0, err
	}

	kept, removed := removeGuests(guests, ids)
	if len(removed) == 0 {
		return 0, models.ErrGuestNotFound
	}
	if err := r.save(ctx, kept); err != nil {
		return 0, err
	}

	keys := make([]string, 0, len(removed))
	for _, g := range removed {
		keys = append(keys, emailIndexKey(g.Email))
	}
	if err := r.store.Delete(ctx, keys...); err != nil {
		return 0, fmt.Errorf("failed to drop email index: %w", err)
	}
	return len(removed), nil
}

func (r *KVGuestRepository) GetStats(ctx context.Context) (*models.GuestStats, error) {
	guests, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return models.ComputeStats(guests), nil
}

func (r *KVGuestRepository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

func (r *KVGuestRepository) load(ctx context.Context) ([]models.Guest, error) {
	raw, err := r.store.Get(ctx, guestsKey)
	if errors.Is(err, database.ErrKeyNotFound) {
		empty := []models.Guest{}
		if err := r.save(ctx, empty); err != nil {
			return nil, err
		}
		return empty, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read guest list: %w", err)
	}

	guests := []models.Guest{}
	if err := json.Unmarshal(raw, &guests); err != nil {
		return nil, fmt.Errorf("failed to parse guest list: %w", err)
	}
	return guests, nil
}

func (r *KVGuestRepository) save(ctx context.Context, guests []models.Guest) error {
	data, err := json.Marshal(guests)
	if err != nil {
		return fmt.Errorf("failed to encode guest list: %w", err)
	}
	if err := r.store.Set(ctx, guestsKey, data, 0); err != nil {
		return fmt.Errorf("failed to write guest list: %w", err)
	}
	return nil
}

// writeIndex stores the id JSON-encoded so the Postgres jsonb column accepts it.
func (r *KVGuestRepository) writeIndex(ctx context.Context, email, id string) error {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("failed to encode email index: %w", err)
	}
	if err := r.store.Set(ctx, emailIndexKey(email), data, 0); err != nil {
		return fmt.Errorf("failed to write email index: %w", err)
	}
	return nil
}
