package usecase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nexlify/healthwatch/domains/health"
	domainIntegration "github.com/nexlify/healthwatch/domains/integration"
	"github.com/nexlify/healthwatch/integrations/discord"
	"github.com/nexlify/healthwatch/integrations/jira"
	"github.com/nexlify/healthwatch/integrations/linear"
	"github.com/nexlify/healthwatch/integrations/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDeps(store *fakeIntegrationStore, now time.Time) proberDeps {
	return proberDeps{
		store:     store,
		decryptor: plainDecryptor{},
		slack:     slack.NewClient(),
		discord:   discord.NewClient(),
		linear:    linear.NewClient(),
		jira:      jira.NewClient(),
		now:       func() time.Time { return now },
	}
}

func TestSlackProber_NotConfigured(t *testing.T) {
	deps := testDeps(&fakeIntegrationStore{}, time.Now())
	p := &slackProber{deps: deps}

	result, integrationID, err := p.Probe(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Empty(t, integrationID)
}

func TestSlackProber_InactiveIsDisconnected(t *testing.T) {
	deps := testDeps(&fakeIntegrationStore{
		slack: &domainIntegration.SlackIntegration{
			ID:     "integ-s",
			Status: domainIntegration.StatusDisconnected,
		},
	}, time.Now())
	p := &slackProber{deps: deps}

	result, integrationID, err := p.Probe(context.Background(), "ws-1")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, health.StatusDisconnected, result.Status)
	assert.Equal(t, "integ-s", integrationID)
}

func TestSlackProber_InvalidAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error":"invalid_auth"}`))
	}))
	t.Cleanup(server.Close)

	deps := testDeps(&fakeIntegrationStore{
		slack: &domainIntegration.SlackIntegration{
			ID:                "integ-s",
			Status:            domainIntegration.StatusActive,
			EncryptedBotToken: "xoxb-test",
		},
	}, time.Now())
	deps.slack = &slack.Client{BaseURL: server.URL, HTTPClient: server.Client()}
	p := &slackProber{deps: deps}

	result, _, err := p.Probe(context.Background(), "ws-1")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, health.StatusUnhealthy, result.Status)
	assert.Contains(t, result.Error, "invalid_auth")
}

func TestSlackProber_HealthyAndDegraded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"team":"Acme"}`))
	}))
	t.Cleanup(server.Close)

	integ := &domainIntegration.SlackIntegration{
		ID:                "integ-s",
		Status:            domainIntegration.StatusActive,
		EncryptedBotToken: "xoxb-test",
	}
	deps := testDeps(&fakeIntegrationStore{slack: integ}, time.Now())
	deps.slack = &slack.Client{BaseURL: server.URL, HTTPClient: server.Client()}
	p := &slackProber{deps: deps}

	result, _, err := p.Probe(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Equal(t, health.StatusHealthy, result.Status)
	assert.Equal(t, "Acme", result.Details["team"])

	// Recent delivery errors downgrade a passing auth test to degraded.
	integ.ErrorCount = 2
	result, _, err = p.Probe(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Equal(t, health.StatusDegraded, result.Status)
	assert.Contains(t, result.Error, "2 recent delivery errors")
}

func TestDiscordProber_GoneWebhook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	deps := testDeps(&fakeIntegrationStore{
		discord: &domainIntegration.DiscordIntegration{
			ID:                  "integ-d",
			Status:              domainIntegration.StatusActive,
			EncryptedWebhookURL: server.URL + "/api/webhooks/1/token",
		},
	}, time.Now())
	deps.discord = &discord.Client{HTTPClient: server.Client()}
	p := &discordProber{deps: deps}

	result, _, err := p.Probe(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Equal(t, health.StatusUnhealthy, result.Status)
	assert.Contains(t, result.Error, "404")
}

func TestLinearProber_RejectedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"viewer":{"id":""}}}`))
	}))
	t.Cleanup(server.Close)

	deps := testDeps(&fakeIntegrationStore{
		linear: &domainIntegration.LinearIntegration{
			ID:                   "integ-l",
			Status:               domainIntegration.StatusActive,
			EncryptedAccessToken: "lin_api_test",
		},
	}, time.Now())
	deps.linear = &linear.Client{BaseURL: server.URL, HTTPClient: server.Client()}
	p := &linearProber{deps: deps}

	result, _, err := p.Probe(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Equal(t, health.StatusUnhealthy, result.Status)
	assert.Contains(t, result.Error, "no user")
}

func TestJiraProber_ExpiredTokenSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Hour)
	deps := testDeps(&fakeIntegrationStore{
		jira: &domainIntegration.JiraIntegration{
			ID:                   "integ-j",
			Status:               domainIntegration.StatusActive,
			SiteURL:              server.URL,
			EncryptedAccessToken: "jira-token",
			TokenExpiresAt:       &expired,
		},
	}, now)
	deps.jira = &jira.Client{HTTPClient: server.Client()}
	p := &jiraProber{deps: deps}

	result, _, err := p.Probe(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Equal(t, health.StatusUnhealthy, result.Status)
	assert.Contains(t, result.Error, "expired")
	assert.Equal(t, int32(0), calls.Load())
}

func TestJiraProber_ExpiringSoonIsDegraded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expiring := now.Add(6 * time.Hour)
	deps := testDeps(&fakeIntegrationStore{
		jira: &domainIntegration.JiraIntegration{
			ID:                   "integ-j",
			Status:               domainIntegration.StatusActive,
			SiteURL:              server.URL,
			EncryptedAccessToken: "jira-token",
			TokenExpiresAt:       &expiring,
		},
	}, now)
	deps.jira = &jira.Client{HTTPClient: server.Client()}
	p := &jiraProber{deps: deps}

	result, _, err := p.Probe(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Equal(t, health.StatusDegraded, result.Status)
	assert.Contains(t, result.Error, "expiring soon")
	assert.NotNil(t, result.Details["token_expires_at"])
}

func TestConnectionProber_StatusMapping(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		conn   *domainIntegration.Connection
		expect health.Status
	}{
		{
			name:   "error state",
			conn:   &domainIntegration.Connection{ID: "c1", Status: domainIntegration.StatusError},
			expect: health.StatusUnhealthy,
		},
		{
			name:   "expired token",
			conn:   &domainIntegration.Connection{ID: "c2", Status: domainIntegration.StatusExpired},
			expect: health.StatusUnhealthy,
		},
		{
			name:   "disconnected",
			conn:   &domainIntegration.Connection{ID: "c3", Status: domainIntegration.StatusDisconnected},
			expect: health.StatusDisconnected,
		},
		{
			name:   "active and recently used",
			conn:   &domainIntegration.Connection{ID: "c4", Status: domainIntegration.StatusActive, LastUsedAt: timePtr(now.Add(-time.Hour))},
			expect: health.StatusHealthy,
		},
		{
			name:   "active but stale",
			conn:   &domainIntegration.Connection{ID: "c5", Status: domainIntegration.StatusActive, LastUsedAt: timePtr(now.Add(-8 * 24 * time.Hour))},
			expect: health.StatusDegraded,
		},
		{
			name:   "active never used",
			conn:   &domainIntegration.Connection{ID: "c6", Status: domainIntegration.StatusActive},
			expect: health.StatusHealthy,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := testDeps(&fakeIntegrationStore{
				connections: map[domainIntegration.ConnectionProvider]*domainIntegration.Connection{
					domainIntegration.ProviderGitHub: tc.conn,
				},
			}, now)
			p := &connectionProber{deps: deps, t: health.TypeGitHub, provider: domainIntegration.ProviderGitHub}

			result, integrationID, err := p.Probe(context.Background(), "ws-1")
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tc.expect, result.Status)
			assert.Equal(t, tc.conn.ID, integrationID)
		})
	}
}

func TestWebhooksProber_Aggregation(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name    string
		hooks   []domainIntegration.Webhook
		expect  health.Status
		failing int
	}{
		{
			name: "all disabled",
			hooks: []domainIntegration.Webhook{
				{ID: "w1", Enabled: false},
			},
			expect: health.StatusDisconnected,
		},
		{
			name: "all passing",
			hooks: []domainIntegration.Webhook{
				{ID: "w1", Enabled: true, MaxConsecutiveFailures: 5},
				{ID: "w2", Enabled: true, MaxConsecutiveFailures: 5},
			},
			expect: health.StatusHealthy,
		},
		{
			name: "minority failing",
			hooks: []domainIntegration.Webhook{
				{ID: "w1", Enabled: true, ConsecutiveFailures: 6, MaxConsecutiveFailures: 5},
				{ID: "w2", Enabled: true, MaxConsecutiveFailures: 5},
				{ID: "w3", Enabled: true, MaxConsecutiveFailures: 5},
			},
			expect:  health.StatusDegraded,
			failing: 1,
		},
		{
			name: "majority failing",
			hooks: []domainIntegration.Webhook{
				{ID: "w1", Enabled: true, ConsecutiveFailures: 5, MaxConsecutiveFailures: 5},
				{ID: "w2", Enabled: true, ConsecutiveFailures: 7, MaxConsecutiveFailures: 5},
				{ID: "w3", Enabled: true, MaxConsecutiveFailures: 5},
			},
			expect:  health.StatusUnhealthy,
			failing: 2,
		},
		{
			name: "zero threshold falls back to default",
			hooks: []domainIntegration.Webhook{
				{ID: "w1", Enabled: true, ConsecutiveFailures: 4, MaxConsecutiveFailures: 0},
			},
			expect: health.StatusHealthy,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := testDeps(&fakeIntegrationStore{webhooks: tc.hooks}, now)
			p := &webhooksProber{deps: deps}

			result, integrationID, err := p.Probe(context.Background(), "ws-1")
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tc.expect, result.Status)
			assert.Empty(t, integrationID)
			if tc.failing > 0 {
				assert.Equal(t, tc.failing, result.Details["failing_webhooks"])
			}
		})
	}
}

func TestWebhooksProber_NoneConfigured(t *testing.T) {
	deps := testDeps(&fakeIntegrationStore{}, time.Now())
	p := &webhooksProber{deps: deps}

	result, integrationID, err := p.Probe(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Empty(t, integrationID)
}

func timePtr(t time.Time) *time.Time { return &t }
