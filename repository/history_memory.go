package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nexlify/healthwatch/domains/health"
)

// MemoryHistoryStore is the in-process twin of ValkeyHistoryStore, used in
// tests and in deployments without Valkey.
type MemoryHistoryStore struct {
	mu      sync.RWMutex
	entries map[string][]health.HistoryEntry
}

func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{entries: make(map[string][]health.HistoryEntry)}
}

func memKey(workspaceID string, t health.IntegrationType) string {
	return workspaceID + ":" + string(t)
}

func (s *MemoryHistoryStore) Append(_ context.Context, workspaceID string, t health.IntegrationType, entry health.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memKey(workspaceID, t)
	s.entries[key] = append(s.entries[key], entry)
	// Keep sorted by timestamp, matching sorted-set score ordering.
	sort.SliceStable(s.entries[key], func(i, j int) bool {
		return s.entries[key][i].Timestamp.Before(s.entries[key][j].Timestamp)
	})
	return nil
}

func (s *MemoryHistoryStore) RangeByTime(_ context.Context, workspaceID string, t health.IntegrationType, from, to time.Time) ([]health.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []health.HistoryEntry
	for _, e := range s.entries[memKey(workspaceID, t)] {
		if !e.Timestamp.Before(from) && !e.Timestamp.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryHistoryStore) Latest(_ context.Context, workspaceID string, t health.IntegrationType, limit int) ([]health.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.entries[memKey(workspaceID, t)]
	if limit <= 0 || len(all) == 0 {
		return nil, nil
	}

	out := make([]health.HistoryEntry, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (s *MemoryHistoryStore) PruneBefore(_ context.Context, workspaceID string, t health.IntegrationType, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memKey(workspaceID, t)
	kept := s.entries[key][:0]
	for _, e := range s.entries[key] {
		if e.Timestamp.After(cutoff) {
			kept = append(kept, e)
		}
	}
	s.entries[key] = kept
	return nil
}
