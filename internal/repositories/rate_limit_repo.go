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

	"github.com/BradenHooton/svatba/internal/database"
	"github.com/BradenHooton/svatba/internal/models"
)

const rateLimitFileName = "rate-limits.json"

// RateLimitRepository persists per-IP RSVP attempt records.
type RateLimitRepository interface {
	// Get returns models.ErrNotFound when the IP has no live record.
	Get(ctx context.Context, ip string) (*models.RateLimitRecord, error)
	// Save stores the record; ttl is the remaining window, used by
	// backends with native expiry.
	Save(ctx context.Context, ip string, record models.RateLimitRecord, ttl time.Duration) error
}

// FileRateLimitRepository keeps every IP in one JSON object on disk.
// Expired entries stay until PruneExpired removes them.
type FileRateLimitRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileRateLimitRepository(dataDir string) *FileRateLimitRepository {
	return &FileRateLimitRepository{path: filepath.Join(dataDir, rateLimitFileName)}
}

func (r *FileRateLimitRepository) Get(ctx context.Context, ip string) (*models.RateLimitRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return nil, err
	}
	record, ok := records[ip]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &record, nil
}

func (r *FileRateLimitRepository) Save(ctx context.Context, ip string, record models.RateLimitRecord, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return err
	}
	records[ip] = record
	return r.save(records)
}

// PruneExpired drops records whose window had elapsed at now and returns how
// many were removed.
func (r *FileRateLimitRepository) PruneExpired(ctx context.Context, now time.Time, window time.Duration) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return 0, err
	}

	removed := 0
	for ip, record := range records {
		if record.WindowElapsed(now, window) {
			delete(records, ip)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, r.save(records)
}

func (r *FileRateLimitRepository) load() (map[string]models.RateLimitRecord, error) {
	records := make(map[string]models.RateLimitRecord)

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return records, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rate limit file: %w", err)
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse rate limit file: %w", err)
	}
	return records, nil
}

func (r *FileRateLimitRepository) save(records map[string]models.RateLimitRecord) error {
	if err := writeJSONFile(r.path, records); err != nil {
		return fmt.Errorf("failed to write rate limit file: %w", err)
	}
	return nil
}

// KVRateLimitRepository stores one key per IP and leans on the backend TTL.
type KVRateLimitRepository struct {
	store database.KeyValueStore
}

func NewKVRateLimitRepository(store database.KeyValueStore) *KVRateLimitRepository {
	return &KVRateLimitRepository{store: store}
}

func (r *KVRateLimitRepository) Get(ctx context.Context, ip string) (*models.RateLimitRecord, error) {
	raw, err := r.store.Get(ctx, rateLimitKeyPrefix+ip)
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rate limit record: %w", err)
	}

	var record models.RateLimitRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to parse rate limit record: %w", err)
	}
	return &record, nil
}

func (r *KVRateLimitRepository) Save(ctx context.Context, ip string, record models.RateLimitRecord, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode rate limit record: %w", err)
	}
	if ttl <= 0 {
		// never persist a record without expiry
		ttl = time.Second
	}
	if err := r.store.Set(ctx, rateLimitKeyPrefix+ip, data, ttl); err != nil {
		return fmt.Errorf("failed to write rate limit record: %w", err)
	}
	return nil
}
