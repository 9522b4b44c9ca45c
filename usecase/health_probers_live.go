package usecase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nexlify/healthwatch/domains/health"
	domainIntegration "github.com/nexlify/healthwatch/domains/integration"
	"github.com/nexlify/healthwatch/pkg/sanitize"
)

// jiraExpiryWarning is how close to token expiry a healthy Jira integration
// is reported degraded instead.
const jiraExpiryWarning = 24 * time.Hour

// --- Slack ---

type slackProber struct {
	deps proberDeps
}

func (p *slackProber) Type() health.IntegrationType { return health.TypeSlack }

func (p *slackProber) Probe(ctx context.Context, workspaceID string) (*health.ProbeResult, string, error) {
	integ, err := p.deps.store.GetSlack(ctx, workspaceID)
	if err != nil {
		return nil, "", err
	}
	if integ == nil {
		return nil, "", nil
	}

	if integ.Status != domainIntegration.StatusActive {
		return &health.ProbeResult{
			Status: health.StatusDisconnected,
			Error:  "slack integration is not active",
		}, integ.ID, nil
	}

	token, err := p.deps.decryptor.Decrypt(workspaceID, integ.EncryptedBotToken, integ.BotTokenIV)
	if err != nil {
		return nil, integ.ID, err
	}

	start := p.deps.now()
	resp, err := p.deps.slack.AuthTest(ctx, token)
	elapsed := sinceMs(start, p.deps.now)
	if err != nil {
		return &health.ProbeResult{
			Status:         health.StatusUnhealthy,
			ResponseTimeMs: elapsed,
			Error:          sanitize.Error(err),
		}, integ.ID, nil
	}

	if !resp.OK {
		return &health.ProbeResult{
			Status:         health.StatusUnhealthy,
			ResponseTimeMs: elapsed,
			Error:          fmt.Sprintf("slack auth.test failed: %s", resp.Error),
		}, integ.ID, nil
	}

	details := map[string]any{"team": resp.Team}
	if integ.ErrorCount > 0 {
		return &health.ProbeResult{
			Status:         health.StatusDegraded,
			ResponseTimeMs: elapsed,
			Error:          fmt.Sprintf("recovering after %d recent delivery errors", integ.ErrorCount),
			Details:        details,
		}, integ.ID, nil
	}

	return &health.ProbeResult{
		Status:         health.StatusHealthy,
		ResponseTimeMs: elapsed,
		Details:        details,
	}, integ.ID, nil
}

// --- Discord ---

type discordProber struct {
	deps proberDeps
}

func (p *discordProber) Type() health.IntegrationType { return health.TypeDiscord }

func (p *discordProber) Probe(ctx context.Context, workspaceID string) (*health.ProbeResult, string, error) {
	integ, err := p.deps.store.GetDiscord(ctx, workspaceID)
	if err != nil {
		return nil, "", err
	}
	if integ == nil {
		return nil, "", nil
	}

	if integ.Status != domainIntegration.StatusActive {
		return &health.ProbeResult{
			Status: health.StatusDisconnected,
			Error:  "discord integration is not active",
		}, integ.ID, nil
	}

	webhookURL, err := p.deps.decryptor.Decrypt(workspaceID, integ.EncryptedWebhookURL, integ.WebhookURLIV)
	if err != nil {
		return nil, integ.ID, err
	}

	start := p.deps.now()
	status, err := p.deps.discord.CheckWebhook(ctx, webhookURL)
	elapsed := sinceMs(start, p.deps.now)
	if err != nil {
		return &health.ProbeResult{
			Status:         health.StatusUnhealthy,
			ResponseTimeMs: elapsed,
			Error:          sanitize.Error(err),
		}, integ.ID, nil
	}

	if status != http.StatusOK {
		return &health.ProbeResult{
			Status:         health.StatusUnhealthy,
			ResponseTimeMs: elapsed,
			Error:          fmt.Sprintf("discord webhook returned status %d", status),
		}, integ.ID, nil
	}

	if integ.ErrorCount > 0 {
		return &health.ProbeResult{
			Status:         health.StatusDegraded,
			ResponseTimeMs: elapsed,
			Error:          fmt.Sprintf("recovering after %d recent delivery errors", integ.ErrorCount),
		}, integ.ID, nil
	}

	return &health.ProbeResult{
		Status:         health.StatusHealthy,
		ResponseTimeMs: elapsed,
	}, integ.ID, nil
}

// --- Linear ---

type linearProber struct {
	deps proberDeps
}

func (p *linearProber) Type() health.IntegrationType { return health.TypeLinear }

func (p *linearProber) Probe(ctx context.Context, workspaceID string) (*health.ProbeResult, string, error) {
	integ, err := p.deps.store.GetLinear(ctx, workspaceID)
	if err != nil {
		return nil, "", err
	}
	if integ == nil {
		return nil, "", nil
	}

	if integ.Status != domainIntegration.StatusActive {
		return &health.ProbeResult{
			Status: health.StatusDisconnected,
			Error:  "linear integration is not active",
		}, integ.ID, nil
	}

	token, err := p.deps.decryptor.Decrypt(workspaceID, integ.EncryptedAccessToken, integ.AccessTokenIV)
	if err != nil {
		return nil, integ.ID, err
	}

	start := p.deps.now()
	viewerID, err := p.deps.linear.Viewer(ctx, token)
	elapsed := sinceMs(start, p.deps.now)
	if err != nil {
		return &health.ProbeResult{
			Status:         health.StatusUnhealthy,
			ResponseTimeMs: elapsed,
			Error:          sanitize.Error(err),
		}, integ.ID, nil
	}

	if viewerID == "" {
		return &health.ProbeResult{
			Status:         health.StatusUnhealthy,
			ResponseTimeMs: elapsed,
			Error:          "linear viewer query returned no user",
		}, integ.ID, nil
	}

	if integ.ErrorCount > 0 {
		return &health.ProbeResult{
			Status:         health.StatusDegraded,
			ResponseTimeMs: elapsed,
			Error:          fmt.Sprintf("recovering after %d recent errors", integ.ErrorCount),
		}, integ.ID, nil
	}

	return &health.ProbeResult{
		Status:         health.StatusHealthy,
		ResponseTimeMs: elapsed,
	}, integ.ID, nil
}

// --- Jira ---

type jiraProber struct {
	deps proberDeps
}

func (p *jiraProber) Type() health.IntegrationType { return health.TypeJira }

func (p *jiraProber) Probe(ctx context.Context, workspaceID string) (*health.ProbeResult, string, error) {
	integ, err := p.deps.store.GetJira(ctx, workspaceID)
	if err != nil {
		return nil, "", err
	}
	if integ == nil {
		return nil, "", nil
	}

	if integ.Status != domainIntegration.StatusActive {
		return &health.ProbeResult{
			Status: health.StatusDisconnected,
			Error:  "jira integration is not active",
		}, integ.ID, nil
	}

	now := p.deps.now()

	// An already-expired token is unhealthy without spending a network call.
	if integ.TokenExpiresAt != nil && !integ.TokenExpiresAt.After(now) {
		return &health.ProbeResult{
			Status: health.StatusUnhealthy,
			Error:  "jira access token has expired",
			Details: map[string]any{
				"token_expires_at": integ.TokenExpiresAt.UTC().Format(time.RFC3339),
			},
		}, integ.ID, nil
	}

	token, err := p.deps.decryptor.Decrypt(workspaceID, integ.EncryptedAccessToken, integ.AccessTokenIV)
	if err != nil {
		return nil, integ.ID, err
	}

	start := p.deps.now()
	status, err := p.deps.jira.Myself(ctx, integ.SiteURL, token)
	elapsed := sinceMs(start, p.deps.now)
	if err != nil {
		return &health.ProbeResult{
			Status:         health.StatusUnhealthy,
			ResponseTimeMs: elapsed,
			Error:          sanitize.Error(err),
		}, integ.ID, nil
	}

	if status != http.StatusOK {
		return &health.ProbeResult{
			Status:         health.StatusUnhealthy,
			ResponseTimeMs: elapsed,
			Error:          fmt.Sprintf("jira myself endpoint returned status %d", status),
		}, integ.ID, nil
	}

	if integ.TokenExpiresAt != nil && integ.TokenExpiresAt.Sub(now) <= jiraExpiryWarning {
		return &health.ProbeResult{
			Status:         health.StatusDegraded,
			ResponseTimeMs: elapsed,
			Error:          fmt.Sprintf("jira access token expiring soon (%s)", humanize.Time(*integ.TokenExpiresAt)),
			Details: map[string]any{
				"token_expires_at": integ.TokenExpiresAt.UTC().Format(time.RFC3339),
			},
		}, integ.ID, nil
	}

	if integ.ErrorCount > 0 {
		return &health.ProbeResult{
			Status:         health.StatusDegraded,
			ResponseTimeMs: elapsed,
			Error:          fmt.Sprintf("recovering after %d recent errors", integ.ErrorCount),
		}, integ.ID, nil
	}

	return &health.ProbeResult{
		Status:         health.StatusHealthy,
		ResponseTimeMs: elapsed,
	}, integ.ID, nil
}
