package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nexlify/healthwatch/domains/health"
	domainIntegration "github.com/nexlify/healthwatch/domains/integration"
	"github.com/nexlify/healthwatch/integrations/discord"
	"github.com/nexlify/healthwatch/integrations/jira"
	"github.com/nexlify/healthwatch/integrations/linear"
	"github.com/nexlify/healthwatch/integrations/slack"
)

// connectionStaleAfter is the staleness heuristic for generic connections:
// an active connection unused for this long is reported degraded.
const connectionStaleAfter = 7 * 24 * time.Hour

// Prober runs one provider's health check for one workspace.
//
// Probe returns (nil, "", nil) when the workspace has no stored configuration
// for the provider — the type is simply unprobed. Expected failures (auth
// rejected, endpoint down) come back as unhealthy/disconnected results, never
// as errors; a returned error means something unexpected (store or decryption
// failure) that the dispatcher converts into a sanitized unhealthy result.
type Prober interface {
	Type() health.IntegrationType
	Probe(ctx context.Context, workspaceID string) (result *health.ProbeResult, integrationID string, err error)
}

type proberDeps struct {
	store     domainIntegration.IIntegrationStore
	decryptor domainIntegration.IDecryptor
	slack     *slack.Client
	discord   *discord.Client
	linear    *linear.Client
	jira      *jira.Client
	now       func() time.Time
}

// buildProbers assembles the registry keyed by integration type. Adding a
// tenth provider means implementing Prober and registering it here.
func buildProbers(d proberDeps) map[health.IntegrationType]Prober {
	if d.now == nil {
		d.now = time.Now
	}

	probers := []Prober{
		&slackProber{deps: d},
		&discordProber{deps: d},
		&linearProber{deps: d},
		&jiraProber{deps: d},
		&connectionProber{deps: d, t: health.TypeGitHub, provider: domainIntegration.ProviderGitHub},
		&connectionProber{deps: d, t: health.TypeRailway, provider: domainIntegration.ProviderRailway},
		&connectionProber{deps: d, t: health.TypeVercel, provider: domainIntegration.ProviderVercel},
		&connectionProber{deps: d, t: health.TypeSupabase, provider: domainIntegration.ProviderSupabase},
		&webhooksProber{deps: d},
	}

	registry := make(map[health.IntegrationType]Prober, len(probers))
	for _, p := range probers {
		registry[p.Type()] = p
	}
	return registry
}

func sinceMs(start time.Time, now func() time.Time) int64 {
	ms := now().Sub(start).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

// --- Generic connections (GitHub / Railway / Vercel / Supabase) ---

// connectionProber infers health from the stored connection state; no live
// API call is made for these providers.
type connectionProber struct {
	deps     proberDeps
	t        health.IntegrationType
	provider domainIntegration.ConnectionProvider
}

func (p *connectionProber) Type() health.IntegrationType { return p.t }

func (p *connectionProber) Probe(ctx context.Context, workspaceID string) (*health.ProbeResult, string, error) {
	conn, err := p.deps.store.GetConnection(ctx, workspaceID, p.provider)
	if err != nil {
		return nil, "", err
	}
	if conn == nil {
		return nil, "", nil
	}

	switch conn.Status {
	case domainIntegration.StatusError:
		return &health.ProbeResult{
			Status: health.StatusUnhealthy,
			Error:  fmt.Sprintf("%s connection is in error state", p.provider),
		}, conn.ID, nil
	case domainIntegration.StatusExpired:
		return &health.ProbeResult{
			Status: health.StatusUnhealthy,
			Error:  fmt.Sprintf("%s connection token has expired", p.provider),
		}, conn.ID, nil
	case domainIntegration.StatusDisconnected:
		return &health.ProbeResult{
			Status: health.StatusDisconnected,
			Error:  fmt.Sprintf("%s connection is disconnected", p.provider),
		}, conn.ID, nil
	}

	if conn.LastUsedAt != nil && p.deps.now().Sub(*conn.LastUsedAt) > connectionStaleAfter {
		return &health.ProbeResult{
			Status: health.StatusDegraded,
			Error:  fmt.Sprintf("connection not used since %s", humanize.Time(*conn.LastUsedAt)),
			Details: map[string]any{
				"provider":     string(p.provider),
				"last_used_at": conn.LastUsedAt.UTC().Format(time.RFC3339),
			},
		}, conn.ID, nil
	}

	return &health.ProbeResult{
		Status:  health.StatusHealthy,
		Details: map[string]any{"provider": string(p.provider)},
	}, conn.ID, nil
}

// --- Outgoing webhooks (aggregate) ---

type webhooksProber struct {
	deps proberDeps
}

func (p *webhooksProber) Type() health.IntegrationType { return health.TypeWebhooks }

func (p *webhooksProber) Probe(ctx context.Context, workspaceID string) (*health.ProbeResult, string, error) {
	hooks, err := p.deps.store.ListWebhooks(ctx, workspaceID)
	if err != nil {
		return nil, "", err
	}
	if len(hooks) == 0 {
		return nil, "", nil
	}

	var active, failing int
	for _, h := range hooks {
		if !h.Enabled {
			continue
		}
		active++
		max := h.MaxConsecutiveFailures
		if max <= 0 {
			max = 5
		}
		if h.ConsecutiveFailures >= max {
			failing++
		}
	}

	details := map[string]any{
		"active_webhooks":  active,
		"failing_webhooks": failing,
	}

	if active == 0 {
		return &health.ProbeResult{
			Status:  health.StatusDisconnected,
			Error:   "no active outgoing webhooks",
			Details: details,
		}, "", nil
	}

	switch {
	case failing == 0:
		return &health.ProbeResult{Status: health.StatusHealthy, Details: details}, "", nil
	case failing*2 > active:
		return &health.ProbeResult{
			Status:  health.StatusUnhealthy,
			Error:   fmt.Sprintf("%d of %d active webhooks are failing", failing, active),
			Details: details,
		}, "", nil
	default:
		return &health.ProbeResult{
			Status:  health.StatusDegraded,
			Error:   fmt.Sprintf("%d of %d active webhooks are failing", failing, active),
			Details: details,
		}, "", nil
	}
}
