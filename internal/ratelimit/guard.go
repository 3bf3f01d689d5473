// Package ratelimit throttles sensitive operations per acting identity and
// keeps a short-lived audit trail of overflow events in Redis.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meridianhq/meridian/internal/shared"
)

const (
	// DefaultQuota is the allowed number of calls per window.
	DefaultQuota = 5
	// DefaultWindow is the fixed counting window.
	DefaultWindow = time.Minute
	// DefaultLogRetention bounds how long overflow entries are kept.
	DefaultLogRetention = 7 * 24 * time.Hour
)

// Guard enforces a fixed quota per identity within a time window. Counter
// increments are atomic on the Redis side, so the guard stays correct when
// the service runs horizontally.
type Guard struct {
	logger    *slog.Logger
	client    *redis.Client
	quota     int64
	window    time.Duration
	retention time.Duration
}

// NewGuard constructs a Guard; zero values fall back to defaults.
func NewGuard(logger *slog.Logger, client *redis.Client, quota int64, window, retention time.Duration) *Guard {
	if quota <= 0 {
		quota = DefaultQuota
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if retention <= 0 {
		retention = DefaultLogRetention
	}
	return &Guard{logger: logger, client: client, quota: quota, window: window, retention: retention}
}

// Allow counts one call of operation for identity. It returns
// shared.ErrRateLimited once the quota for the current window is exhausted,
// appending an overflow entry to the audit log best-effort: a degraded log
// store never blocks or changes the rejection.
func (g *Guard) Allow(ctx context.Context, operation, identity string) error {
	key := counterKey(operation, identity)
	count, err := g.client.Incr(ctx, key).Result()
	if err != nil {
		return shared.NewStorageError("ratelimit incr", err)
	}
	if count == 1 {
		if err := g.client.Expire(ctx, key, g.window).Err(); err != nil {
			g.logger.Warn("ratelimit window expire", slog.Any("error", err))
		}
	}
	if count <= g.quota {
		return nil
	}

	g.logOverflow(ctx, identity)
	return shared.ErrRateLimited
}

// OverflowLog returns the recorded overflow entries for identity, oldest
// first.
func (g *Guard) OverflowLog(ctx context.Context, identity string) ([]string, error) {
	entries, err := g.client.LRange(ctx, logKey(identity), 0, -1).Result()
	if err != nil {
		return nil, shared.NewStorageError("ratelimit log read", err)
	}
	return entries, nil
}

func (g *Guard) logOverflow(ctx context.Context, identity string) {
	key := logKey(identity)
	entry := fmt.Sprintf("exceeded limit at %s", time.Now().UTC().Format(time.RFC3339))
	if err := g.client.RPush(ctx, key, entry).Err(); err != nil {
		g.logger.Warn("ratelimit overflow log", slog.Any("error", err))
		return
	}
	if err := g.client.Expire(ctx, key, g.retention).Err(); err != nil {
		g.logger.Warn("ratelimit overflow log expire", slog.Any("error", err))
	}
}

func counterKey(operation, identity string) string {
	return "ratelimit:" + operation + ":" + identity
}

func logKey(identity string) string {
	return "ratelimit:log:" + identity
}
