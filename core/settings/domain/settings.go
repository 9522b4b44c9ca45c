package domain

import "context"

// Setting represents a dynamic configuration value stored in the database.
type Setting struct {
	Key   string
	Value string
}

// ISettingsRepository defines the contract for persisting dynamic settings.
type ISettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error

	// InitSchema creates the necessary tables
	InitSchema(ctx context.Context) error
}

// Keys recognized by the system. Values set here override the environment
// configuration without a restart.
const (
	KeyHealthMonitoringEnabled = "health_monitoring_enabled"
	KeyHealthSchedulerSpec     = "health_scheduler_spec"
	KeyHealthProbeTimeoutMs    = "health_probe_timeout_ms"
)
