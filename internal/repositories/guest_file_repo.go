package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BradenHooton/svatba/internal/models"
)

const guestsFileName = "guests.json"

// FileGuestRepository keeps the guest list in DATA_DIR/guests.json.
// The mutex only serializes writers inside this process.
type FileGuestRepository struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewFileGuestRepository(dataDir string) *FileGuestRepository {
	return &FileGuestRepository{
		path: filepath.Join(dataDir, guestsFileName),
		now:  time.Now,
	}
}

func (r *FileGuestRepository) GetAll(ctx context.Context) ([]models.Guest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *FileGuestRepository) Add(ctx context.Context, guest models.NewGuest) (*models.Guest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	guests, err := r.load()
	if err != nil {
		return nil, err
	}

	now := r.now()
	guest.Email = models.NormalizeEmail(guest.Email)
	created := guest.ToGuest(newGuestID(now), now)

	if err := r.save(append(guests, created)); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *FileGuestRepository) FindByEmail(ctx context.Context, email string) (*models.Guest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	guests, err := r.load()
	if err != nil {
		return nil, err
	}
	if g := findGuestByEmail(guests, email); g != nil {
		return g, nil
	}
	return nil, models.ErrNotFound
}

func (r *FileGuestRepository) Update(ctx context.Context, id string, update models.GuestUpdate) (*models.Guest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	guests, err := r.load()
	if err != nil {
		return nil, err
	}

	_, updated, err := applyGuestUpdate(guests, id, update)
	if err != nil {
		return nil, err
	}
	if err := r.save(guests); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *FileGuestRepository) Delete(ctx context.Context, id string) error {
	_, err := r.BulkDelete(ctx, []string{id})
	return err
}

func (r *FileGuestRepository) BulkUpdateAttending(ctx context.Context, ids []string, attending bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	guests, err := r.load()
	if err != nil {
		return 0, err
	}

	count := setAttending(guests, ids, attending)
	if count == 0 {
		return 0, models.ErrGuestNotFound
	}
	if err := r.save(guests); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *FileGuestRepository) BulkDelete(ctx context.Context, ids []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	guests, err := r.load()
	if err != nil {
		return 0, err
	}

	kept, removed := removeGuests(guests, ids)
	if len(removed) == 0 {
		return 0, models.ErrGuestNotFound
	}
	if err := r.save(kept); err != nil {
		return 0, err
	}
	return len(removed), nil
}

func (r *FileGuestRepository) GetStats(ctx context.Context) (*models.GuestStats, error) {
	guests, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return models.ComputeStats(guests), nil
}

// Ping checks that the data directory exists or can be created.
func (r *FileGuestRepository) Ping(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	return nil
}

// load reads the list, writing an empty one when the file does not exist yet.
// Callers must hold mu.
func (r *FileGuestRepository) load() ([]models.Guest, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		empty := []models.Guest{}
		if err := r.save(empty); err != nil {
			return nil, err
		}
		return empty, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read guests file: %w", err)
	}

	guests := []models.Guest{}
	if err := json.Unmarshal(data, &guests); err != nil {
		return nil, fmt.Errorf("failed to parse guests file: %w", err)
	}
	return guests, nil
}

func (r *FileGuestRepository) save(guests []models.Guest) error {
	if err := writeJSONFile(r.path, guests); err != nil {
		return fmt.Errorf("failed to write guests file: %w", err)
	}
	return nil
}

// writeJSONFile writes v indented, creating the parent directory on demand.
// The rename keeps readers from seeing a half-written file.
func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
