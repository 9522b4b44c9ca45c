package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nexlify/healthwatch/domains/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sweepRecorder implements IHealthUsecase just enough for sweep tests.
type sweepRecorder struct {
	mu       sync.Mutex
	checked  []string
	block    chan struct{}
	sweepErr error
}

func (s *sweepRecorder) CheckWorkspaceHealth(_ context.Context, workspaceID string) ([]health.HealthRecord, error) {
	if s.block != nil {
		<-s.block
	}
	if s.sweepErr != nil {
		return nil, s.sweepErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checked = append(s.checked, workspaceID)
	return []health.HealthRecord{{WorkspaceID: workspaceID}}, nil
}

func (s *sweepRecorder) GetAllHealth(context.Context, string) ([]health.HealthRecord, error) {
	return nil, nil
}

func (s *sweepRecorder) GetHealth(context.Context, string, health.IntegrationType) (health.HealthRecord, error) {
	return health.HealthRecord{}, nil
}

func (s *sweepRecorder) GetHealthSummary(context.Context, string) (health.HealthSummary, error) {
	return health.HealthSummary{}, nil
}

func (s *sweepRecorder) GetHealthHistory(context.Context, string, health.IntegrationType, int) ([]health.HistoryEntry, error) {
	return nil, nil
}

func (s *sweepRecorder) ForceHealthCheck(context.Context, string, health.IntegrationType) (health.HealthRecord, error) {
	return health.HealthRecord{}, nil
}

func (s *sweepRecorder) RetryFailed(context.Context, string, health.IntegrationType) (health.RetryResult, error) {
	return health.RetryResult{}, nil
}

func (s *sweepRecorder) RecordProbeResult(context.Context, string, health.IntegrationType, string, health.ProbeResult) (health.HealthRecord, error) {
	return health.HealthRecord{}, nil
}

func TestHealthScheduler_SweepVisitsEveryWorkspace(t *testing.T) {
	service := &sweepRecorder{}
	store := &fakeIntegrationStore{workspaces: []string{"ws-1", "ws-2", "ws-3"}}
	scheduler := NewHealthScheduler(service, store, "@every 5m")

	scheduler.runSweep()

	service.mu.Lock()
	defer service.mu.Unlock()
	assert.ElementsMatch(t, []string{"ws-1", "ws-2", "ws-3"}, service.checked)
}

func TestHealthScheduler_OverlappingTickIsSkipped(t *testing.T) {
	service := &sweepRecorder{block: make(chan struct{})}
	store := &fakeIntegrationStore{workspaces: []string{"ws-1"}}
	scheduler := NewHealthScheduler(service, store, "@every 5m")

	var running atomic.Bool
	done := make(chan struct{})
	go func() {
		running.Store(true)
		scheduler.runSweep()
		close(done)
	}()

	require.Eventually(t, func() bool {
		return running.Load() && scheduler.inFlight.Load()
	}, time.Second, 5*time.Millisecond)

	// Second tick while the first sweep is blocked must not run anything.
	scheduler.runSweep()
	service.mu.Lock()
	checkedDuringOverlap := len(service.checked)
	service.mu.Unlock()
	assert.Equal(t, 0, checkedDuringOverlap)

	close(service.block)
	<-done

	service.mu.Lock()
	defer service.mu.Unlock()
	assert.Len(t, service.checked, 1)
}

func TestHealthScheduler_StartStop(t *testing.T) {
	service := &sweepRecorder{}
	store := &fakeIntegrationStore{}
	scheduler := NewHealthScheduler(service, store, "@every 1h")

	require.NoError(t, scheduler.Start())
	// Start is idempotent.
	require.NoError(t, scheduler.Start())
	scheduler.Stop()
	// Stop after Stop is a no-op.
	scheduler.Stop()
}

func TestHealthScheduler_DefaultSpec(t *testing.T) {
	scheduler := NewHealthScheduler(&sweepRecorder{}, &fakeIntegrationStore{}, "")
	assert.Equal(t, "@every 5m", scheduler.spec)
}
