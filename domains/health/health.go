package health

import (
	"context"
	"time"
)

type IntegrationType string

const (
	TypeSlack    IntegrationType = "slack"
	TypeDiscord  IntegrationType = "discord"
	TypeLinear   IntegrationType = "linear"
	TypeJira     IntegrationType = "jira"
	TypeGitHub   IntegrationType = "github"
	TypeRailway  IntegrationType = "railway"
	TypeVercel   IntegrationType = "vercel"
	TypeSupabase IntegrationType = "supabase"
	TypeWebhooks IntegrationType = "webhooks"
)

// AllTypes returns the closed set of probeable integration types.
func AllTypes() []IntegrationType {
	return []IntegrationType{
		TypeSlack, TypeDiscord, TypeLinear, TypeJira,
		TypeGitHub, TypeRailway, TypeVercel, TypeSupabase,
		TypeWebhooks,
	}
}

// ParseIntegrationType validates a raw string against the closed enum.
func ParseIntegrationType(raw string) (IntegrationType, bool) {
	t := IntegrationType(raw)
	for _, known := range AllTypes() {
		if t == known {
			return t, true
		}
	}
	return "", false
}

type Status string

const (
	StatusHealthy      Status = "healthy"
	StatusDegraded     Status = "degraded"
	StatusUnhealthy    Status = "unhealthy"
	StatusDisconnected Status = "disconnected"
)

// IsOperational reports whether a status counts as "up" for uptime and
// consecutive-failure purposes (healthy and degraded both do).
func (s Status) IsOperational() bool {
	return s == StatusHealthy || s == StatusDegraded
}

// HealthRecord is the current health snapshot for one (workspace, type) pair.
// At most one record exists per pair; absence means the pair was never probed.
type HealthRecord struct {
	ID                  string          `json:"id"`
	WorkspaceID         string          `json:"workspace_id"`
	IntegrationType     IntegrationType `json:"integration_type"`
	IntegrationID       string          `json:"integration_id"`
	Status              Status          `json:"status"`
	LastSuccessAt       *time.Time      `json:"last_success_at,omitempty"`
	LastErrorAt         *time.Time      `json:"last_error_at,omitempty"`
	LastErrorMessage    string          `json:"last_error_message,omitempty"`
	ErrorCount24h       int             `json:"error_count_24h"`
	Uptime30d           float64         `json:"uptime_30d"`
	ResponseTimeMs      int64           `json:"response_time_ms"`
	ConsecutiveFailures int             `json:"consecutive_failures"`
	HealthDetails       map[string]any  `json:"health_details,omitempty"`
	CheckedAt           time.Time       `json:"checked_at"`
}

// HistoryEntry is one immutable probe outcome in the rolling time series.
type HistoryEntry struct {
	Timestamp      time.Time `json:"timestamp"`
	Status         string    `json:"status"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	Error          string    `json:"error,omitempty"`
}

// ProbeResult is the normalized outcome produced by a provider probe.
type ProbeResult struct {
	Status         Status         `json:"status"`
	ResponseTimeMs int64          `json:"response_time_ms"`
	Error          string         `json:"error,omitempty"`
	Details        map[string]any `json:"details,omitempty"`
}

// HealthSummary aggregates a workspace's records into per-status buckets.
type HealthSummary struct {
	Overall      Status `json:"overall"`
	Healthy      int    `json:"healthy"`
	Degraded     int    `json:"degraded"`
	Unhealthy    int    `json:"unhealthy"`
	Disconnected int    `json:"disconnected"`
	Total        int    `json:"total"`
}

// RetryResult reports the outcome of a manual retry nudge.
type RetryResult struct {
	Retried int           `json:"retried"`
	Record  *HealthRecord `json:"record,omitempty"`
}

type IHealthUsecase interface {
	GetAllHealth(ctx context.Context, workspaceID string) ([]HealthRecord, error)
	GetHealth(ctx context.Context, workspaceID string, t IntegrationType) (HealthRecord, error)
	GetHealthSummary(ctx context.Context, workspaceID string) (HealthSummary, error)
	GetHealthHistory(ctx context.Context, workspaceID string, t IntegrationType, limit int) ([]HistoryEntry, error)
	ForceHealthCheck(ctx context.Context, workspaceID string, t IntegrationType) (HealthRecord, error)
	RetryFailed(ctx context.Context, workspaceID string, t IntegrationType) (RetryResult, error)
	CheckWorkspaceHealth(ctx context.Context, workspaceID string) ([]HealthRecord, error)
	RecordProbeResult(ctx context.Context, workspaceID string, t IntegrationType, integrationID string, result ProbeResult) (HealthRecord, error)
}

// IHistoryStore is the sorted-set-like time series behind the rolling history,
// keyed per (workspace, type) with epoch-millis scores.
type IHistoryStore interface {
	Append(ctx context.Context, workspaceID string, t IntegrationType, entry HistoryEntry) error
	// RangeByTime returns entries with from <= timestamp <= to, oldest first.
	RangeByTime(ctx context.Context, workspaceID string, t IntegrationType, from, to time.Time) ([]HistoryEntry, error)
	// Latest returns up to limit entries, newest first.
	Latest(ctx context.Context, workspaceID string, t IntegrationType, limit int) ([]HistoryEntry, error)
	PruneBefore(ctx context.Context, workspaceID string, t IntegrationType, cutoff time.Time) error
}
