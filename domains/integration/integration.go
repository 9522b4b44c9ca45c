package integration

import (
	"context"
	"time"
)

// IntegrationStatus is the stored lifecycle state of a provider connection.
type IntegrationStatus string

const (
	StatusActive       IntegrationStatus = "active"
	StatusError        IntegrationStatus = "error"
	StatusExpired      IntegrationStatus = "expired"
	StatusDisconnected IntegrationStatus = "disconnected"
)

// ConnectionProvider enumerates the generic connection-record providers.
type ConnectionProvider string

const (
	ProviderGitHub   ConnectionProvider = "github"
	ProviderRailway  ConnectionProvider = "railway"
	ProviderVercel   ConnectionProvider = "vercel"
	ProviderSupabase ConnectionProvider = "supabase"
)

// SlackIntegration is a workspace's Slack app installation. The bot token is
// stored encrypted together with its IV.
type SlackIntegration struct {
	ID                string
	WorkspaceID       string
	TeamName          string
	Status            IntegrationStatus
	EncryptedBotToken string
	BotTokenIV        string
	ErrorCount        int
	UpdatedAt         time.Time
}

// DiscordIntegration stores an encrypted incoming-webhook URL.
type DiscordIntegration struct {
	ID                  string
	WorkspaceID         string
	GuildName           string
	Status              IntegrationStatus
	EncryptedWebhookURL string
	WebhookURLIV        string
	ErrorCount          int
	UpdatedAt           time.Time
}

// LinearIntegration stores an encrypted personal/OAuth access token.
type LinearIntegration struct {
	ID                   string
	WorkspaceID          string
	OrgName              string
	Status               IntegrationStatus
	EncryptedAccessToken string
	AccessTokenIV        string
	ErrorCount           int
	UpdatedAt            time.Time
}

// JiraIntegration stores an encrypted OAuth access token plus its expiry,
// which the probe inspects before making any network call.
type JiraIntegration struct {
	ID                   string
	WorkspaceID          string
	SiteURL              string
	Status               IntegrationStatus
	EncryptedAccessToken string
	AccessTokenIV        string
	TokenExpiresAt       *time.Time
	ErrorCount           int
	UpdatedAt            time.Time
}

// Connection is the generic record shared by GitHub, Railway, Vercel and
// Supabase. Health for these is inferred from stored state, never probed live.
type Connection struct {
	ID          string
	WorkspaceID string
	Provider    ConnectionProvider
	Status      IntegrationStatus
	LastUsedAt  *time.Time
	UpdatedAt   time.Time
}

// Webhook is one outgoing webhook endpoint owned by a workspace.
type Webhook struct {
	ID                     string
	WorkspaceID            string
	URL                    string
	Enabled                bool
	ConsecutiveFailures    int
	MaxConsecutiveFailures int
}

// IIntegrationStore is the read-only credential store adapter. Getters return
// (nil, nil) when the workspace has no record for that provider — absence is
// not an error.
type IIntegrationStore interface {
	GetSlack(ctx context.Context, workspaceID string) (*SlackIntegration, error)
	GetDiscord(ctx context.Context, workspaceID string) (*DiscordIntegration, error)
	GetLinear(ctx context.Context, workspaceID string) (*LinearIntegration, error)
	GetJira(ctx context.Context, workspaceID string) (*JiraIntegration, error)
	GetConnection(ctx context.Context, workspaceID string, provider ConnectionProvider) (*Connection, error)
	ListWebhooks(ctx context.Context, workspaceID string) ([]Webhook, error)
	// DistinctWorkspaceIDs returns every workspace with at least one stored
	// integration of any kind, for scheduler discovery.
	DistinctWorkspaceIDs(ctx context.Context) ([]string, error)
}

// IDecryptor decrypts a stored credential ciphertext with its IV, scoped to
// the owning workspace.
type IDecryptor interface {
	Decrypt(workspaceID, cipherText, iv string) (string, error)
}
