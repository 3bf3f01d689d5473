package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/meridian/internal/shared"
)

func newTestGuard(t *testing.T, quota int64, window time.Duration) (*Guard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGuard(logger, client, quota, window, time.Hour), mr
}

func TestGuardAllowsWithinQuota(t *testing.T) {
	guard, _ := newTestGuard(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, guard.Allow(ctx, "forgotPassword", "alice@example.com"))
	}
}

func TestGuardRejectsOverQuota(t *testing.T) {
	guard, _ := newTestGuard(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, guard.Allow(ctx, "forgotPassword", "alice@example.com"))
	}
	err := guard.Allow(ctx, "forgotPassword", "alice@example.com")
	require.ErrorIs(t, err, shared.ErrRateLimited)

	// One audit entry per rejection.
	entries, err := guard.OverflowLog(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, strings.HasPrefix(entries[0], "exceeded limit at "))

	require.ErrorIs(t, guard.Allow(ctx, "forgotPassword", "alice@example.com"), shared.ErrRateLimited)
	entries, err = guard.OverflowLog(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestGuardIsolatesIdentities(t *testing.T) {
	guard, _ := newTestGuard(t, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, guard.Allow(ctx, "forgotPassword", "alice@example.com"))
	require.ErrorIs(t, guard.Allow(ctx, "forgotPassword", "alice@example.com"), shared.ErrRateLimited)

	// Bob's quota is untouched by Alice's overflow.
	require.NoError(t, guard.Allow(ctx, "forgotPassword", "bob@example.com"))
}

func TestGuardWindowResets(t *testing.T) {
	guard, mr := newTestGuard(t, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, guard.Allow(ctx, "forgotPassword", "alice@example.com"))
	require.ErrorIs(t, guard.Allow(ctx, "forgotPassword", "alice@example.com"), shared.ErrRateLimited)

	mr.FastForward(time.Minute + time.Second)
	require.NoError(t, guard.Allow(ctx, "forgotPassword", "alice@example.com"))
}

func TestGuardSurfacesStorageFailure(t *testing.T) {
	guard, mr := newTestGuard(t, 1, time.Minute)
	mr.Close()

	err := guard.Allow(context.Background(), "forgotPassword", "alice@example.com")
	require.Error(t, err)
	require.True(t, shared.IsStorageError(err))
	require.False(t, errors.Is(err, shared.ErrRateLimited))
}
