package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/svatba/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// MockGuestRepository implements repositories.GuestRepository for testing.
// Unset funcs fall back to an in-memory list.
type MockGuestRepository struct {
	mu     sync.Mutex
	guests []models.Guest
	nextID int

	GetAllFunc      func(ctx context.Context) ([]models.Guest, error)
	AddFunc         func(ctx context.Context, guest models.NewGuest) (*models.Guest, error)
	FindByEmailFunc func(ctx context.Context, email string) (*models.Guest, error)
	UpdateFunc      func(ctx context.Context, id string, update models.GuestUpdate) (*models.Guest, error)
	DeleteFunc      func(ctx context.Context, id string) error
	BulkUpdateFunc  func(ctx context.Context, ids []string, attending bool) (int, error)
	BulkDeleteFunc  func(ctx context.Context, ids []string) (int, error)
	PingFunc        func(ctx context.Context) error
}

func NewMockGuestRepository(guests ...models.Guest) *MockGuestRepository {
	return &MockGuestRepository{guests: append([]models.Guest{}, guests...)}
}

func (m *MockGuestRepository) GetAll(ctx context.Context) ([]models.Guest, error) {
	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Guest{}, m.guests...), nil
}

func (m *MockGuestRepository) Add(ctx context.Context, guest models.NewGuest) (*models.Guest, error) {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, guest)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	now := time.Now()
	g := guest.ToGuest(fmt.Sprintf("guest_%d_mock%05d", now.UnixMilli(), m.nextID), now)
	m.guests = append(m.guests, g)
	return &g, nil
}

func (m *MockGuestRepository) FindByEmail(ctx context.Context, email string) (*models.Guest, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.guests {
		if models.NormalizeEmail(g.Email) == models.NormalizeEmail(email) {
			return &g, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MockGuestRepository) Update(ctx context.Context, id string, update models.GuestUpdate) (*models.Guest, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, update)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, g := range m.guests {
		if g.ID == id {
			m.guests[i] = update.Apply(g)
			updated := m.guests[i]
			return &updated, nil
		}
	}
	return nil, models.ErrGuestNotFound
}

func (m *MockGuestRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	_, err := m.BulkDelete(ctx, []string{id})
	return err
}

func (m *MockGuestRepository) BulkUpdateAttending(ctx context.Context, ids []string, attending bool) (int, error) {
	if m.BulkUpdateFunc != nil {
		return m.BulkUpdateFunc(ctx, ids, attending)
	}
	return 0, models.ErrGuestNotFound
}

func (m *MockGuestRepository) BulkDelete(ctx context.Context, ids []string) (int, error) {
	if m.BulkDeleteFunc != nil {
		return m.BulkDeleteFunc(ctx, ids)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	kept := m.guests[:0]
	removed := 0
	for _, g := range m.guests {
		if want[g.ID] {
			removed++
			continue
		}
		kept = append(kept, g)
	}
	m.guests = kept
	if removed == 0 {
		return 0, models.ErrGuestNotFound
	}
	return removed, nil
}

func (m *MockGuestRepository) GetStats(ctx context.Context) (*models.GuestStats, error) {
	guests, err := m.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return models.ComputeStats(guests), nil
}

func (m *MockGuestRepository) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// MockRateLimitRepository keeps records in memory.
type MockRateLimitRepository struct {
	mu      sync.Mutex
	records map[string]models.RateLimitRecord
	ttls    map[string]time.Duration
	GetErr  error
	SaveErr error
}

func NewMockRateLimitRepository() *MockRateLimitRepository {
	return &MockRateLimitRepository{
		records: make(map[string]models.RateLimitRecord),
		ttls:    make(map[string]time.Duration),
	}
}

func (m *MockRateLimitRepository) Get(ctx context.Context, ip string) (*models.RateLimitRecord, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[ip]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &r, nil
}

func (m *MockRateLimitRepository) Save(ctx context.Context, ip string, record models.RateLimitRecord, ttl time.Duration) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[ip] = record
	m.ttls[ip] = ttl
	return nil
}

// MockNotifier records notified guests.
type MockNotifier struct {
	mu       sync.Mutex
	Notified []models.Guest
	Err      error
}

func (m *MockNotifier) NotifyNewRSVP(ctx context.Context, guest models.Guest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notified = append(m.Notified, guest)
	return m.Err
}
