package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nexlify/healthwatch/domains/health"
	"github.com/nexlify/healthwatch/pkg/sanitize"
	"github.com/sirupsen/logrus"
)

// probeOutcome is what a single dispatch resolves to. connected=false means
// the workspace has no configuration for the type and nothing is recorded.
type probeOutcome struct {
	result        health.ProbeResult
	integrationID string
	connected     bool
}

// dispatchProbe resolves the prober for the type and runs it under the
// configured timeout. Unexpected failures (store/decryption errors, panics)
// become sanitized unhealthy results; they never propagate, so one provider
// cannot abort probing of the others.
func (s *healthService) dispatchProbe(ctx context.Context, workspaceID string, t health.IntegrationType) probeOutcome {
	prober, ok := s.probers[t]
	if !ok {
		// Unreachable for validated input; recorded as unhealthy to be safe.
		return probeOutcome{
			result:    health.ProbeResult{Status: health.StatusUnhealthy, Error: fmt.Sprintf("no prober registered for type %s", t)},
			connected: true,
		}
	}

	type probeReturn struct {
		result        *health.ProbeResult
		integrationID string
		err           error
	}

	resultCh := make(chan probeReturn, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- probeReturn{err: fmt.Errorf("probe panicked: %v", r)}
			}
		}()
		res, integrationID, err := prober.Probe(ctx, workspaceID)
		resultCh <- probeReturn{result: res, integrationID: integrationID, err: err}
	}()

	timer := time.NewTimer(s.probeTimeout)
	defer timer.Stop()

	select {
	case ret := <-resultCh:
		if ret.err != nil {
			return probeOutcome{
				result: health.ProbeResult{
					Status: health.StatusUnhealthy,
					Error:  sanitize.Error(ret.err),
				},
				integrationID: ret.integrationID,
				connected:     true,
			}
		}
		if ret.result == nil {
			return probeOutcome{connected: false}
		}
		ret.result.Error = sanitize.ErrorMessage(ret.result.Error)
		return probeOutcome{result: *ret.result, integrationID: ret.integrationID, connected: true}

	case <-timer.C:
		// The in-flight probe is abandoned, not cancelled; its late result
		// lands in the buffered channel and is dropped.
		return probeOutcome{
			result: health.ProbeResult{
				Status:         health.StatusUnhealthy,
				ResponseTimeMs: s.probeTimeout.Milliseconds(),
				Error:          "Probe timeout",
			},
			connected: true,
		}
	}
}

// checkIntegrationHealth runs one probe+record cycle for a single type.
// Returns (nil, nil) when the type is not connected for the workspace.
func (s *healthService) checkIntegrationHealth(ctx context.Context, workspaceID string, t health.IntegrationType) (*health.HealthRecord, error) {
	outcome := s.dispatchProbe(ctx, workspaceID, t)
	if !outcome.connected {
		return nil, nil
	}

	record, err := s.RecordProbeResult(ctx, workspaceID, t, outcome.integrationID, outcome.result)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// CheckWorkspaceHealth probes all nine types concurrently with settle-all
// semantics: each failure is logged and the remaining probes still run.
func (s *healthService) CheckWorkspaceHealth(ctx context.Context, workspaceID string) ([]health.HealthRecord, error) {
	var (
		mu      sync.Mutex
		records []health.HealthRecord
		wg      sync.WaitGroup
	)

	for _, t := range health.AllTypes() {
		wg.Add(1)
		go func(t health.IntegrationType) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logrus.Errorf("[HEALTH] %s probe panicked for workspace %s: %v", t, workspaceID, r)
				}
			}()

			record, err := s.checkIntegrationHealth(ctx, workspaceID, t)
			if err != nil {
				logrus.WithError(err).Warnf("[HEALTH] %s check failed for workspace %s", t, workspaceID)
				return
			}
			if record == nil {
				return // not connected
			}

			mu.Lock()
			records = append(records, *record)
			mu.Unlock()
		}(t)
	}

	wg.Wait()
	return records, nil
}
