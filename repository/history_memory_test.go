package repository

import (
	"context"
	"testing"
	"time"

	"github.com/nexlify/healthwatch/domains/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEntries(t *testing.T, store *MemoryHistoryStore, base time.Time, count int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < count; i++ {
		err := store.Append(ctx, "ws-1", health.TypeSlack, health.HistoryEntry{
			Timestamp:      base.Add(time.Duration(i) * time.Minute),
			Status:         "healthy",
			ResponseTimeMs: int64(i),
		})
		require.NoError(t, err)
	}
}

func TestMemoryHistoryStore_RangeByTime(t *testing.T) {
	store := NewMemoryHistoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedEntries(t, store, base, 5)

	entries, err := store.RangeByTime(context.Background(), "ws-1", health.TypeSlack, base.Add(time.Minute), base.Add(3*time.Minute))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	// Oldest first, bounds inclusive.
	assert.Equal(t, int64(1), entries[0].ResponseTimeMs)
	assert.Equal(t, int64(3), entries[2].ResponseTimeMs)
}

func TestMemoryHistoryStore_LatestNewestFirst(t *testing.T) {
	store := NewMemoryHistoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedEntries(t, store, base, 5)

	entries, err := store.Latest(context.Background(), "ws-1", health.TypeSlack, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(4), entries[0].ResponseTimeMs)
	assert.Equal(t, int64(2), entries[2].ResponseTimeMs)

	// Requesting more than stored returns what exists.
	entries, err = store.Latest(context.Background(), "ws-1", health.TypeSlack, 50)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestMemoryHistoryStore_PruneBefore(t *testing.T) {
	store := NewMemoryHistoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedEntries(t, store, base, 5)

	err := store.PruneBefore(context.Background(), "ws-1", health.TypeSlack, base.Add(2*time.Minute))
	require.NoError(t, err)

	entries, err := store.RangeByTime(context.Background(), "ws-1", health.TypeSlack, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(3), entries[0].ResponseTimeMs)
}

func TestMemoryHistoryStore_KeysAreIsolated(t *testing.T) {
	store := NewMemoryHistoryStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Append(ctx, "ws-1", health.TypeSlack, health.HistoryEntry{Timestamp: now, Status: "healthy"}))
	require.NoError(t, store.Append(ctx, "ws-1", health.TypeJira, health.HistoryEntry{Timestamp: now, Status: "unhealthy"}))
	require.NoError(t, store.Append(ctx, "ws-2", health.TypeSlack, health.HistoryEntry{Timestamp: now, Status: "degraded"}))

	entries, err := store.Latest(ctx, "ws-1", health.TypeSlack, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "healthy", entries[0].Status)
}
