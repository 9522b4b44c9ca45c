package usecase

import (
	"sync"

	"github.com/nexlify/healthwatch/domains/health"
	"github.com/sirupsen/logrus"
)

const (
	alertWarnThreshold     = 3
	alertEscalateThreshold = 12
)

// Alerter receives health transition notifications. Implementations must be
// safe for concurrent use; delivery happens off the recording path.
type Alerter interface {
	Warn(record health.HealthRecord)
	Escalate(record health.HealthRecord)
	Recovered(record health.HealthRecord)
}

// logAlerter is the default sink. It writes structured log lines that an
// external pipeline can pick up.
type logAlerter struct{}

func NewLogAlerter() Alerter {
	return logAlerter{}
}

func (logAlerter) Warn(record health.HealthRecord) {
	logrus.WithFields(alertFields(record)).Warnf("[ALERT] %s integration is failing for workspace %s", record.IntegrationType, record.WorkspaceID)
}

func (logAlerter) Escalate(record health.HealthRecord) {
	logrus.WithFields(alertFields(record)).Errorf("[ALERT] %s integration has been failing for an extended period in workspace %s", record.IntegrationType, record.WorkspaceID)
}

func (logAlerter) Recovered(record health.HealthRecord) {
	logrus.WithFields(alertFields(record)).Infof("[ALERT] %s integration recovered for workspace %s", record.IntegrationType, record.WorkspaceID)
}

func alertFields(record health.HealthRecord) logrus.Fields {
	return logrus.Fields{
		"workspace_id":         record.WorkspaceID,
		"integration_type":     record.IntegrationType,
		"status":               record.Status,
		"consecutive_failures": record.ConsecutiveFailures,
		"last_error":           record.LastErrorMessage,
	}
}

// alertSentinel turns the failure counter into edge-triggered notifications:
// warn when it reaches exactly 3, escalate at exactly 12, and a recovery
// notice on the unhealthy/degraded to healthy transition. Staying at or past
// a threshold produces nothing further until the counter resets.
type alertSentinel struct {
	mu      sync.Mutex
	alerter Alerter
}

func newAlertSentinel(alerter Alerter) *alertSentinel {
	return &alertSentinel{alerter: alerter}
}

func (a *alertSentinel) evaluate(record health.HealthRecord, prevStatus health.Status, prevFailures int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if record.Status == health.StatusHealthy {
		if prevStatus == health.StatusUnhealthy || prevStatus == health.StatusDegraded {
			a.alerter.Recovered(record)
		}
		return
	}

	// Fire only on the crossing edge so a stuck integration does not spam
	// the channel on every probe tick.
	if record.ConsecutiveFailures == alertWarnThreshold && prevFailures < alertWarnThreshold {
		a.alerter.Warn(record)
	}
	if record.ConsecutiveFailures == alertEscalateThreshold && prevFailures < alertEscalateThreshold {
		a.alerter.Escalate(record)
	}
}
