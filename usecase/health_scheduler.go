package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/nexlify/healthwatch/domains/health"
	domainIntegration "github.com/nexlify/healthwatch/domains/integration"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SweepGate lets an operator pause scheduled sweeps at runtime without
// restarting the process.
type SweepGate interface {
	MonitoringEnabled(ctx context.Context) bool
}

// HealthScheduler drives periodic health sweeps across every workspace that
// has at least one integration configured. A sweep that is still running when
// the next tick arrives makes the new tick a no-op.
type HealthScheduler struct {
	service  health.IHealthUsecase
	store    domainIntegration.IIntegrationStore
	spec     string
	cron     *cron.Cron
	inFlight atomic.Bool

	// Gate is optional; nil means sweeps are always on.
	Gate SweepGate
}

func NewHealthScheduler(service health.IHealthUsecase, store domainIntegration.IIntegrationStore, spec string) *HealthScheduler {
	if spec == "" {
		spec = "@every 5m"
	}
	return &HealthScheduler{
		service: service,
		store:   store,
		spec:    spec,
	}
}

func (h *HealthScheduler) Start() error {
	if h.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(h.spec, h.runSweep); err != nil {
		return err
	}
	c.Start()
	h.cron = c

	logrus.Infof("[SCHEDULER] health sweeps scheduled with spec %q", h.spec)
	return nil
}

// Stop halts scheduling and waits for an in-progress sweep to finish.
func (h *HealthScheduler) Stop() {
	if h.cron == nil {
		return
	}
	ctx := h.cron.Stop()
	<-ctx.Done()
	h.cron = nil
	logrus.Info("[SCHEDULER] health sweeps stopped")
}

func (h *HealthScheduler) runSweep() {
	if !h.inFlight.CompareAndSwap(false, true) {
		logrus.Warn("[SCHEDULER] previous health sweep still running, skipping tick")
		return
	}
	defer h.inFlight.Store(false)

	start := time.Now()
	ctx := context.Background()

	if h.Gate != nil && !h.Gate.MonitoringEnabled(ctx) {
		logrus.Debug("[SCHEDULER] health monitoring is disabled, skipping sweep")
		return
	}

	workspaceIDs, err := h.store.DistinctWorkspaceIDs(ctx)
	if err != nil {
		logrus.WithError(err).Error("[SCHEDULER] failed to list workspaces for health sweep")
		return
	}
	if len(workspaceIDs) == 0 {
		return
	}

	checked := 0
	for _, workspaceID := range workspaceIDs {
		records, err := h.service.CheckWorkspaceHealth(ctx, workspaceID)
		if err != nil {
			logrus.WithError(err).Warnf("[SCHEDULER] health sweep failed for workspace %s", workspaceID)
			continue
		}
		checked += len(records)
	}

	logrus.Infof("[SCHEDULER] health sweep finished: %d workspaces, %d integrations in %s",
		len(workspaceIDs), checked, time.Since(start).Round(time.Millisecond))
}
