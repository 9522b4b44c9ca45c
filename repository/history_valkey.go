package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nexlify/healthwatch/domains/health"
	"github.com/nexlify/healthwatch/infrastructure/valkey"
)

// ValkeyHistoryStore implements health.IHistoryStore on a Valkey sorted set
// per (workspace, type), scored by epoch millis of the entry timestamp.
type ValkeyHistoryStore struct {
	client *valkey.Client
	prefix string
}

func NewValkeyHistoryStore(client *valkey.Client) *ValkeyHistoryStore {
	return &ValkeyHistoryStore{
		client: client,
		prefix: client.Key("health", "history") + ":",
	}
}

func (s *ValkeyHistoryStore) key(workspaceID string, t health.IntegrationType) string {
	return s.prefix + workspaceID + ":" + string(t)
}

func (s *ValkeyHistoryStore) Append(ctx context.Context, workspaceID string, t health.IntegrationType, entry health.HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	score := float64(entry.Timestamp.UnixMilli())
	cmd := s.client.Inner().B().Zadd().
		Key(s.key(workspaceID, t)).
		ScoreMember().
		ScoreMember(score, string(data)).
		Build()

	return s.client.Inner().Do(ctx, cmd).Error()
}

func (s *ValkeyHistoryStore) RangeByTime(ctx context.Context, workspaceID string, t health.IntegrationType, from, to time.Time) ([]health.HistoryEntry, error) {
	cmd := s.client.Inner().B().Zrangebyscore().
		Key(s.key(workspaceID, t)).
		Min(fmt.Sprintf("%d", from.UnixMilli())).
		Max(fmt.Sprintf("%d", to.UnixMilli())).
		Build()

	raw, err := s.client.Inner().Do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, err
	}
	return decodeEntries(raw), nil
}

func (s *ValkeyHistoryStore) Latest(ctx context.Context, workspaceID string, t health.IntegrationType, limit int) ([]health.HistoryEntry, error) {
	if limit <= 0 {
		return nil, nil
	}

	// ZREVRANGE 0 limit-1 yields newest first.
	cmd := s.client.Inner().B().Zrevrange().
		Key(s.key(workspaceID, t)).
		Start(0).
		Stop(int64(limit - 1)).
		Build()

	raw, err := s.client.Inner().Do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, err
	}
	return decodeEntries(raw), nil
}

func (s *ValkeyHistoryStore) PruneBefore(ctx context.Context, workspaceID string, t health.IntegrationType, cutoff time.Time) error {
	cmd := s.client.Inner().B().Zremrangebyscore().
		Key(s.key(workspaceID, t)).
		Min("-inf").
		Max(fmt.Sprintf("%d", cutoff.UnixMilli())).
		Build()

	return s.client.Inner().Do(ctx, cmd).Error()
}

func decodeEntries(raw []string) []health.HistoryEntry {
	entries := make([]health.HistoryEntry, 0, len(raw))
	for _, val := range raw {
		var e health.HistoryEntry
		if err := json.Unmarshal([]byte(val), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}
