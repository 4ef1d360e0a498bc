package background

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/svatba/internal/metrics"
)

// Task removes expired records and reports how many it removed.
type Task struct {
	Name string
	Run  func(ctx context.Context) (int64, error)
}

// CleanupManager periodically runs housekeeping tasks: pruning the
// rate-limit file and purging expired rows from the Postgres KV store.
type CleanupManager struct {
	tasks    []Task
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(logger *slog.Logger, interval time.Duration, tasks ...Task) *CleanupManager {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CleanupManager{
		tasks:    tasks,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup loop. It returns at once when there is
// nothing to clean.
func (cm *CleanupManager) Start(ctx context.Context) {
	if len(cm.tasks) == 0 {
		return
	}

	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			cm.RunOnce(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// RunOnce runs every task once. A failing task does not stop the others.
func (cm *CleanupManager) RunOnce(ctx context.Context) {
	for _, task := range cm.tasks {
		cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		removed, err := task.Run(cleanupCtx)
		cancel()

		if err != nil {
			cm.logger.Error("cleanup task failed", slog.String("task", task.Name), slog.Any("error", err))
			continue
		}
		if removed > 0 {
			metrics.CleanupRemovedTotal.WithLabelValues(task.Name).Add(float64(removed))
			cm.logger.Info("cleanup task completed",
				slog.String("task", task.Name),
				slog.Int64("removed", removed))
		}
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
