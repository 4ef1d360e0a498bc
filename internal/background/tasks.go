package background

import (
	"context"
	"time"
)

// RateLimitPruner is implemented by the file rate-limit store.
type RateLimitPruner interface {
	PruneExpired(ctx context.Context, now time.Time, window time.Duration) (int, error)
}

// ExpiredPurger is implemented by the Postgres KV store.
type ExpiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// RateLimitPruneTask drops rate-limit records whose window has elapsed.
func RateLimitPruneTask(pruner RateLimitPruner, window time.Duration, now func() time.Time) Task {
	if now == nil {
		now = time.Now
	}
	return Task{
		Name: "rate_limit_prune",
		Run: func(ctx context.Context) (int64, error) {
			n, err := pruner.PruneExpired(ctx, now(), window)
			return int64(n), err
		},
	}
}

// KVPurgeTask deletes expired rows from the key-value table.
func KVPurgeTask(purger ExpiredPurger) Task {
	return Task{Name: "kv_purge", Run: purger.PurgeExpired}
}
