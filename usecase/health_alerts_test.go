package usecase

import (
	"sync"
	"testing"

	"github.com/nexlify/healthwatch/domains/health"
	"github.com/stretchr/testify/assert"
)

type countingAlerter struct {
	mu        sync.Mutex
	warns     int
	escalates int
	recovered int
}

func (c *countingAlerter) Warn(_ health.HealthRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warns++
}

func (c *countingAlerter) Escalate(_ health.HealthRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.escalates++
}

func (c *countingAlerter) Recovered(_ health.HealthRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recovered++
}

func (c *countingAlerter) counts() (int, int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.warns, c.escalates, c.recovered
}

func failingRecord(failures int) health.HealthRecord {
	return health.HealthRecord{
		WorkspaceID:         "ws-1",
		IntegrationType:     health.TypeSlack,
		Status:              health.StatusUnhealthy,
		ConsecutiveFailures: failures,
	}
}

func TestAlertSentinel_WarnFiresOnceAtThreshold(t *testing.T) {
	alerter := &countingAlerter{}
	sentinel := newAlertSentinel(alerter)

	// A failure streak climbing 1..5 warns exactly once, at the crossing.
	for failures := 1; failures <= 5; failures++ {
		sentinel.evaluate(failingRecord(failures), health.StatusUnhealthy, failures-1)
	}

	warns, escalates, recovered := alerter.counts()
	assert.Equal(t, 1, warns)
	assert.Equal(t, 0, escalates)
	assert.Equal(t, 0, recovered)
}

func TestAlertSentinel_EscalatesAtTwelve(t *testing.T) {
	alerter := &countingAlerter{}
	sentinel := newAlertSentinel(alerter)

	for failures := 1; failures <= 15; failures++ {
		sentinel.evaluate(failingRecord(failures), health.StatusUnhealthy, failures-1)
	}

	warns, escalates, _ := alerter.counts()
	assert.Equal(t, 1, warns)
	assert.Equal(t, 1, escalates)
}

func TestAlertSentinel_RecoveryNotice(t *testing.T) {
	alerter := &countingAlerter{}
	sentinel := newAlertSentinel(alerter)

	healthy := health.HealthRecord{
		WorkspaceID:     "ws-1",
		IntegrationType: health.TypeSlack,
		Status:          health.StatusHealthy,
	}

	sentinel.evaluate(healthy, health.StatusUnhealthy, 4)
	sentinel.evaluate(healthy, health.StatusDegraded, 0)
	// healthy to healthy is not a recovery
	sentinel.evaluate(healthy, health.StatusHealthy, 0)
	// disconnected to healthy is a reconnect, not a recovery
	sentinel.evaluate(healthy, health.StatusDisconnected, 0)

	_, _, recovered := alerter.counts()
	assert.Equal(t, 2, recovered)
}

func TestAlertSentinel_DisconnectedCountsAsFailure(t *testing.T) {
	alerter := &countingAlerter{}
	sentinel := newAlertSentinel(alerter)

	record := failingRecord(3)
	record.Status = health.StatusDisconnected
	sentinel.evaluate(record, health.StatusDisconnected, 2)

	warns, _, _ := alerter.counts()
	assert.Equal(t, 1, warns)
}
