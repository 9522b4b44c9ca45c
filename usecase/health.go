package usecase

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/nexlify/healthwatch/domains/health"
	domainIntegration "github.com/nexlify/healthwatch/domains/integration"
	"github.com/nexlify/healthwatch/integrations/discord"
	"github.com/nexlify/healthwatch/integrations/jira"
	"github.com/nexlify/healthwatch/integrations/linear"
	"github.com/nexlify/healthwatch/integrations/slack"
	pkgError "github.com/nexlify/healthwatch/pkg/error"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultProbeTimeout     = 10 * time.Second
	defaultHistoryRetention = 30 * 24 * time.Hour
	maxHistoryLimit         = 100
)

// --- Persistence Model ---

type healthRecordModel struct {
	ID                  string       `gorm:"primaryKey;column:id"`
	WorkspaceID         string       `gorm:"column:workspace_id;not null;index:idx_health_ws_type,unique"`
	IntegrationType     string       `gorm:"column:integration_type;not null;index:idx_health_ws_type,unique"`
	IntegrationID       string       `gorm:"column:integration_id"`
	Status              string       `gorm:"column:status;not null"`
	LastSuccessAt       sql.NullTime `gorm:"column:last_success_at"`
	LastErrorAt         sql.NullTime `gorm:"column:last_error_at"`
	LastErrorMessage    string       `gorm:"column:last_error_message"`
	ErrorCount24h       int          `gorm:"column:error_count_24h;default:0"`
	Uptime30d           float64      `gorm:"column:uptime_30d;default:100"`
	ResponseTimeMs      int64        `gorm:"column:response_time_ms;default:0"`
	ConsecutiveFailures int          `gorm:"column:consecutive_failures;default:0"`
	HealthDetails       string       `gorm:"column:health_details"`
	CheckedAt           time.Time    `gorm:"column:checked_at"`
	CreatedAt           time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

func (healthRecordModel) TableName() string { return "integration_health_records" }

// --- Service ---

type healthService struct {
	db           *gorm.DB
	store        domainIntegration.IIntegrationStore
	history      health.IHistoryStore
	probers      map[health.IntegrationType]Prober
	alerts       *alertSentinel
	probeTimeout time.Duration
	retention    time.Duration
	now          func() time.Time
}

// HealthServiceOptions tunes the service; zero values pick defaults. The
// client fields exist so tests can point probes at local servers.
type HealthServiceOptions struct {
	ProbeTimeout     time.Duration
	HistoryRetention time.Duration
	Alerter          Alerter
	Now              func() time.Time
	Slack            *slack.Client
	Discord          *discord.Client
	Linear           *linear.Client
	Jira             *jira.Client
}

func NewHealthService(
	db *gorm.DB,
	store domainIntegration.IIntegrationStore,
	decryptor domainIntegration.IDecryptor,
	history health.IHistoryStore,
	opts HealthServiceOptions,
) health.IHealthUsecase {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = defaultProbeTimeout
	}
	if opts.HistoryRetention <= 0 {
		opts.HistoryRetention = defaultHistoryRetention
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Alerter == nil {
		opts.Alerter = NewLogAlerter()
	}
	if opts.Slack == nil {
		opts.Slack = slack.NewClient()
	}
	if opts.Discord == nil {
		opts.Discord = discord.NewClient()
	}
	if opts.Linear == nil {
		opts.Linear = linear.NewClient()
	}
	if opts.Jira == nil {
		opts.Jira = jira.NewClient()
	}

	s := &healthService{
		db:           db,
		store:        store,
		history:      history,
		alerts:       newAlertSentinel(opts.Alerter),
		probeTimeout: opts.ProbeTimeout,
		retention:    opts.HistoryRetention,
		now:          opts.Now,
	}
	s.probers = buildProbers(proberDeps{
		store:     store,
		decryptor: decryptor,
		slack:     opts.Slack,
		discord:   opts.Discord,
		linear:    opts.Linear,
		jira:      opts.Jira,
		now:       opts.Now,
	})

	if db != nil {
		if err := db.AutoMigrate(&healthRecordModel{}); err != nil {
			logrus.WithError(err).Error("[HEALTH] failed to init schema")
		}
	} else {
		logrus.Error("[HEALTH] GORM DB is nil, service will be disabled")
	}
	return s
}

func (s *healthService) ensureDB() error {
	if s.db == nil {
		return pkgError.InternalServerError("health storage is not initialized")
	}
	return nil
}

// --- Recorder ---

// RecordProbeResult persists a probe outcome into the current-state record,
// appends history, recomputes the rolling statistics and fires alert
// evaluation. Time-series failures are logged and swallowed so the record
// write always goes through with best-available data.
func (s *healthService) RecordProbeResult(ctx context.Context, workspaceID string, t health.IntegrationType, integrationID string, result health.ProbeResult) (health.HealthRecord, error) {
	if err := s.ensureDB(); err != nil {
		return health.HealthRecord{}, err
	}

	now := s.now().UTC()

	var model healthRecordModel
	err := s.db.WithContext(ctx).First(&model, "workspace_id = ? AND integration_type = ?", workspaceID, string(t)).Error
	if err == gorm.ErrRecordNotFound {
		model = healthRecordModel{
			ID:              uuid.NewString(),
			WorkspaceID:     workspaceID,
			IntegrationType: string(t),
			Uptime30d:       100,
		}
	} else if err != nil {
		return health.HealthRecord{}, err
	}

	prevStatus := health.Status(model.Status)
	prevFailures := model.ConsecutiveFailures

	model.Status = string(result.Status)
	model.ResponseTimeMs = result.ResponseTimeMs
	model.CheckedAt = now
	if integrationID != "" {
		model.IntegrationID = integrationID
	}
	if result.Details != nil {
		if data, err := json.Marshal(result.Details); err == nil {
			model.HealthDetails = string(data)
		}
	} else {
		model.HealthDetails = ""
	}

	if result.Status.IsOperational() {
		model.LastSuccessAt = sql.NullTime{Time: now, Valid: true}
		model.ConsecutiveFailures = 0
	} else {
		model.LastErrorAt = sql.NullTime{Time: now, Valid: true}
		model.LastErrorMessage = result.Error
		model.ConsecutiveFailures++
	}

	entry := health.HistoryEntry{
		Timestamp:      now,
		Status:         string(result.Status),
		ResponseTimeMs: result.ResponseTimeMs,
		Error:          result.Error,
	}
	if err := s.history.Append(ctx, workspaceID, t, entry); err != nil {
		logrus.WithError(err).Warnf("[HEALTH] history append failed for %s/%s", workspaceID, t)
	}

	if count, err := s.countErrors24h(ctx, workspaceID, t, now); err != nil {
		logrus.WithError(err).Warnf("[HEALTH] 24h error count failed for %s/%s, keeping stale value", workspaceID, t)
	} else {
		model.ErrorCount24h = count
	}

	if uptime, err := s.calculateUptime30d(ctx, workspaceID, t, now); err != nil {
		logrus.WithError(err).Warnf("[HEALTH] uptime calc failed for %s/%s, keeping stale value", workspaceID, t)
	} else {
		model.Uptime30d = uptime
	}

	if err := s.history.PruneBefore(ctx, workspaceID, t, now.Add(-s.retention)); err != nil {
		logrus.WithError(err).Warnf("[HEALTH] history prune failed for %s/%s", workspaceID, t)
	}

	if err := s.db.WithContext(ctx).Save(&model).Error; err != nil {
		return health.HealthRecord{}, err
	}

	record := recordFromModel(model)

	// Alerting is fire-and-forget; a slow or failing alert channel must not
	// touch the recording path.
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logrus.Errorf("[ALERT] evaluation panicked for %s/%s: %v", workspaceID, t, r)
			}
		}()
		s.alerts.evaluate(record, prevStatus, prevFailures)
	}()

	return record, nil
}

func (s *healthService) countErrors24h(ctx context.Context, workspaceID string, t health.IntegrationType, now time.Time) (int, error) {
	entries, err := s.history.RangeByTime(ctx, workspaceID, t, now.Add(-24*time.Hour), now)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, e := range entries {
		status := health.Status(e.Status)
		if status == health.StatusUnhealthy || status == health.StatusDisconnected {
			count++
		}
	}
	return count, nil
}

// calculateUptime30d returns the share of operational entries in the trailing
// 30 days, rounded to two decimals. No data is assumed healthy.
func (s *healthService) calculateUptime30d(ctx context.Context, workspaceID string, t health.IntegrationType, now time.Time) (float64, error) {
	entries, err := s.history.RangeByTime(ctx, workspaceID, t, now.Add(-30*24*time.Hour), now)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 100, nil
	}

	operational := 0
	for _, e := range entries {
		if health.Status(e.Status).IsOperational() {
			operational++
		}
	}
	uptime := float64(operational) / float64(len(entries)) * 100
	return math.Round(uptime*100) / 100, nil
}

// --- Query surface ---

func (s *healthService) GetAllHealth(ctx context.Context, workspaceID string) ([]health.HealthRecord, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}

	var models []healthRecordModel
	if err := s.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).Find(&models).Error; err != nil {
		return nil, err
	}

	records := make([]health.HealthRecord, len(models))
	for i, m := range models {
		records[i] = recordFromModel(m)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].IntegrationType < records[j].IntegrationType
	})
	return records, nil
}

func (s *healthService) GetHealth(ctx context.Context, workspaceID string, t health.IntegrationType) (health.HealthRecord, error) {
	if err := s.ensureDB(); err != nil {
		return health.HealthRecord{}, err
	}

	var model healthRecordModel
	err := s.db.WithContext(ctx).First(&model, "workspace_id = ? AND integration_type = ?", workspaceID, string(t)).Error
	if err == gorm.ErrRecordNotFound {
		return health.HealthRecord{}, pkgError.NotFoundError("no health record for integration type " + string(t))
	}
	if err != nil {
		return health.HealthRecord{}, err
	}
	return recordFromModel(model), nil
}

// GetHealthSummary buckets the workspace's records; overall severity is
// unhealthy > degraded > healthy. Disconnected records count in their bucket
// without escalating the overall status.
func (s *healthService) GetHealthSummary(ctx context.Context, workspaceID string) (health.HealthSummary, error) {
	records, err := s.GetAllHealth(ctx, workspaceID)
	if err != nil {
		return health.HealthSummary{}, err
	}

	summary := health.HealthSummary{Overall: health.StatusHealthy, Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case health.StatusHealthy:
			summary.Healthy++
		case health.StatusDegraded:
			summary.Degraded++
		case health.StatusUnhealthy:
			summary.Unhealthy++
		case health.StatusDisconnected:
			summary.Disconnected++
		}
	}

	if summary.Unhealthy > 0 {
		summary.Overall = health.StatusUnhealthy
	} else if summary.Degraded > 0 {
		summary.Overall = health.StatusDegraded
	}
	return summary, nil
}

func (s *healthService) GetHealthHistory(ctx context.Context, workspaceID string, t health.IntegrationType, limit int) ([]health.HistoryEntry, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.history.Latest(ctx, workspaceID, t, limit)
}

// --- Commands ---

// ForceHealthCheck runs a synchronous probe+record cycle for one type. A type
// with no stored configuration yields a synthesized disconnected record that
// is returned but never persisted.
func (s *healthService) ForceHealthCheck(ctx context.Context, workspaceID string, t health.IntegrationType) (health.HealthRecord, error) {
	record, err := s.checkIntegrationHealth(ctx, workspaceID, t)
	if err != nil {
		return health.HealthRecord{}, err
	}
	if record != nil {
		return *record, nil
	}

	return health.HealthRecord{
		WorkspaceID:      workspaceID,
		IntegrationType:  t,
		Status:           health.StatusDisconnected,
		LastErrorMessage: "integration is not connected",
		Uptime30d:        100,
		CheckedAt:        s.now().UTC(),
	}, nil
}

// RetryFailed re-runs the probe once for a currently non-healthy record.
// No record or an already-healthy one is a no-op.
func (s *healthService) RetryFailed(ctx context.Context, workspaceID string, t health.IntegrationType) (health.RetryResult, error) {
	existing, err := s.GetHealth(ctx, workspaceID, t)
	if err != nil {
		if _, isNotFound := err.(pkgError.NotFoundError); isNotFound {
			return health.RetryResult{Retried: 0}, nil
		}
		return health.RetryResult{}, err
	}

	if existing.Status == health.StatusHealthy {
		return health.RetryResult{Retried: 0, Record: &existing}, nil
	}

	record, err := s.checkIntegrationHealth(ctx, workspaceID, t)
	if err != nil {
		return health.RetryResult{}, err
	}
	if record == nil {
		// The integration vanished since the record was written.
		return health.RetryResult{Retried: 0, Record: &existing}, nil
	}
	return health.RetryResult{Retried: 1, Record: record}, nil
}

// --- Helpers ---

func recordFromModel(m healthRecordModel) health.HealthRecord {
	record := health.HealthRecord{
		ID:                  m.ID,
		WorkspaceID:         m.WorkspaceID,
		IntegrationType:     health.IntegrationType(m.IntegrationType),
		IntegrationID:       m.IntegrationID,
		Status:              health.Status(m.Status),
		LastErrorMessage:    m.LastErrorMessage,
		ErrorCount24h:       m.ErrorCount24h,
		Uptime30d:           m.Uptime30d,
		ResponseTimeMs:      m.ResponseTimeMs,
		ConsecutiveFailures: m.ConsecutiveFailures,
		CheckedAt:           m.CheckedAt,
	}
	if m.LastSuccessAt.Valid {
		ts := m.LastSuccessAt.Time
		record.LastSuccessAt = &ts
	}
	if m.LastErrorAt.Valid {
		ts := m.LastErrorAt.Time
		record.LastErrorAt = &ts
	}
	if m.HealthDetails != "" {
		var details map[string]any
		if err := json.Unmarshal([]byte(m.HealthDetails), &details); err == nil {
			record.HealthDetails = details
		}
	}
	return record
}
