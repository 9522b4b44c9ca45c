package usecase

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domainIntegration "github.com/nexlify/healthwatch/domains/integration"
	pkgError "github.com/nexlify/healthwatch/pkg/error"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// --- Persistence Models ---

type slackIntegrationModel struct {
	ID                string    `gorm:"primaryKey;column:id"`
	WorkspaceID       string    `gorm:"column:workspace_id;not null;index"`
	TeamName          string    `gorm:"column:team_name"`
	Status            string    `gorm:"column:status;not null"`
	EncryptedBotToken string    `gorm:"column:encrypted_bot_token"`
	BotTokenIV        string    `gorm:"column:bot_token_iv"`
	ErrorCount        int       `gorm:"column:error_count;default:0"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (slackIntegrationModel) TableName() string { return "slack_integrations" }

type discordIntegrationModel struct {
	ID                  string    `gorm:"primaryKey;column:id"`
	WorkspaceID         string    `gorm:"column:workspace_id;not null;index"`
	GuildName           string    `gorm:"column:guild_name"`
	Status              string    `gorm:"column:status;not null"`
	EncryptedWebhookURL string    `gorm:"column:encrypted_webhook_url"`
	WebhookURLIV        string    `gorm:"column:webhook_url_iv"`
	ErrorCount          int       `gorm:"column:error_count;default:0"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (discordIntegrationModel) TableName() string { return "discord_integrations" }

type linearIntegrationModel struct {
	ID                   string    `gorm:"primaryKey;column:id"`
	WorkspaceID          string    `gorm:"column:workspace_id;not null;index"`
	OrgName              string    `gorm:"column:org_name"`
	Status               string    `gorm:"column:status;not null"`
	EncryptedAccessToken string    `gorm:"column:encrypted_access_token"`
	AccessTokenIV        string    `gorm:"column:access_token_iv"`
	ErrorCount           int       `gorm:"column:error_count;default:0"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (linearIntegrationModel) TableName() string { return "linear_integrations" }

type jiraIntegrationModel struct {
	ID                   string       `gorm:"primaryKey;column:id"`
	WorkspaceID          string       `gorm:"column:workspace_id;not null;index"`
	SiteURL              string       `gorm:"column:site_url"`
	Status               string       `gorm:"column:status;not null"`
	EncryptedAccessToken string       `gorm:"column:encrypted_access_token"`
	AccessTokenIV        string       `gorm:"column:access_token_iv"`
	TokenExpiresAt       sql.NullTime `gorm:"column:token_expires_at"`
	ErrorCount           int          `gorm:"column:error_count;default:0"`
	CreatedAt            time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

func (jiraIntegrationModel) TableName() string { return "jira_integrations" }

type connectionModel struct {
	ID          string       `gorm:"primaryKey;column:id"`
	WorkspaceID string       `gorm:"column:workspace_id;not null;index:idx_conn_ws_provider,unique"`
	Provider    string       `gorm:"column:provider;not null;index:idx_conn_ws_provider,unique"`
	Status      string       `gorm:"column:status;not null"`
	LastUsedAt  sql.NullTime `gorm:"column:last_used_at"`
	CreatedAt   time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

func (connectionModel) TableName() string { return "provider_connections" }

type webhookModel struct {
	ID                     string    `gorm:"primaryKey;column:id"`
	WorkspaceID            string    `gorm:"column:workspace_id;not null;index"`
	URL                    string    `gorm:"column:url;not null"`
	Enabled                bool      `gorm:"column:enabled;default:true"`
	ConsecutiveFailures    int       `gorm:"column:consecutive_failures;default:0"`
	MaxConsecutiveFailures int       `gorm:"column:max_consecutive_failures;default:5"`
	CreatedAt              time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (webhookModel) TableName() string { return "outgoing_webhooks" }

// --- Service ---

type integrationStore struct {
	db *gorm.DB
}

// NewIntegrationStore wires the read-only credential store over the shared
// GORM connection. The health subsystem never writes these tables.
func NewIntegrationStore(db *gorm.DB) domainIntegration.IIntegrationStore {
	s := &integrationStore{db: db}
	if db != nil {
		if err := db.AutoMigrate(
			&slackIntegrationModel{},
			&discordIntegrationModel{},
			&linearIntegrationModel{},
			&jiraIntegrationModel{},
			&connectionModel{},
			&webhookModel{},
		); err != nil {
			logrus.WithError(err).Error("[INTEGRATION] failed to init schema")
		}
	} else {
		logrus.Error("[INTEGRATION] GORM DB is nil, store will be disabled")
	}
	return s
}

func (s *integrationStore) ensureDB() error {
	if s.db == nil {
		return pkgError.InternalServerError("integration storage is not initialized")
	}
	return nil
}

func (s *integrationStore) GetSlack(ctx context.Context, workspaceID string) (*domainIntegration.SlackIntegration, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}

	var m slackIntegrationModel
	err := s.db.WithContext(ctx).First(&m, "workspace_id = ?", workspaceID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &domainIntegration.SlackIntegration{
		ID:                m.ID,
		WorkspaceID:       m.WorkspaceID,
		TeamName:          m.TeamName,
		Status:            domainIntegration.IntegrationStatus(m.Status),
		EncryptedBotToken: m.EncryptedBotToken,
		BotTokenIV:        m.BotTokenIV,
		ErrorCount:        m.ErrorCount,
		UpdatedAt:         m.UpdatedAt,
	}, nil
}

func (s *integrationStore) GetDiscord(ctx context.Context, workspaceID string) (*domainIntegration.DiscordIntegration, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}

	var m discordIntegrationModel
	err := s.db.WithContext(ctx).First(&m, "workspace_id = ?", workspaceID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &domainIntegration.DiscordIntegration{
		ID:                  m.ID,
		WorkspaceID:         m.WorkspaceID,
		GuildName:           m.GuildName,
		Status:              domainIntegration.IntegrationStatus(m.Status),
		EncryptedWebhookURL: m.EncryptedWebhookURL,
		WebhookURLIV:        m.WebhookURLIV,
		ErrorCount:          m.ErrorCount,
		UpdatedAt:           m.UpdatedAt,
	}, nil
}

func (s *integrationStore) GetLinear(ctx context.Context, workspaceID string) (*domainIntegration.LinearIntegration, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}

	var m linearIntegrationModel
	err := s.db.WithContext(ctx).First(&m, "workspace_id = ?", workspaceID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &domainIntegration.LinearIntegration{
		ID:                   m.ID,
		WorkspaceID:          m.WorkspaceID,
		OrgName:              m.OrgName,
		Status:               domainIntegration.IntegrationStatus(m.Status),
		EncryptedAccessToken: m.EncryptedAccessToken,
		AccessTokenIV:        m.AccessTokenIV,
		ErrorCount:           m.ErrorCount,
		UpdatedAt:            m.UpdatedAt,
	}, nil
}

func (s *integrationStore) GetJira(ctx context.Context, workspaceID string) (*domainIntegration.JiraIntegration, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}

	var m jiraIntegrationModel
	err := s.db.WithContext(ctx).First(&m, "workspace_id = ?", workspaceID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	out := &domainIntegration.JiraIntegration{
		ID:                   m.ID,
		WorkspaceID:          m.WorkspaceID,
		SiteURL:              m.SiteURL,
		Status:               domainIntegration.IntegrationStatus(m.Status),
		EncryptedAccessToken: m.EncryptedAccessToken,
		AccessTokenIV:        m.AccessTokenIV,
		ErrorCount:           m.ErrorCount,
		UpdatedAt:            m.UpdatedAt,
	}
	if m.TokenExpiresAt.Valid {
		expires := m.TokenExpiresAt.Time
		out.TokenExpiresAt = &expires
	}
	return out, nil
}

func (s *integrationStore) GetConnection(ctx context.Context, workspaceID string, provider domainIntegration.ConnectionProvider) (*domainIntegration.Connection, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}

	var m connectionModel
	err := s.db.WithContext(ctx).First(&m, "workspace_id = ? AND provider = ?", workspaceID, string(provider)).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	out := &domainIntegration.Connection{
		ID:          m.ID,
		WorkspaceID: m.WorkspaceID,
		Provider:    domainIntegration.ConnectionProvider(m.Provider),
		Status:      domainIntegration.IntegrationStatus(m.Status),
		UpdatedAt:   m.UpdatedAt,
	}
	if m.LastUsedAt.Valid {
		used := m.LastUsedAt.Time
		out.LastUsedAt = &used
	}
	return out, nil
}

func (s *integrationStore) ListWebhooks(ctx context.Context, workspaceID string) ([]domainIntegration.Webhook, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}

	var models []webhookModel
	if err := s.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]domainIntegration.Webhook, len(models))
	for i, m := range models {
		out[i] = domainIntegration.Webhook{
			ID:                     m.ID,
			WorkspaceID:            m.WorkspaceID,
			URL:                    m.URL,
			Enabled:                m.Enabled,
			ConsecutiveFailures:    m.ConsecutiveFailures,
			MaxConsecutiveFailures: m.MaxConsecutiveFailures,
		}
	}
	return out, nil
}

func (s *integrationStore) DistinctWorkspaceIDs(ctx context.Context) ([]string, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}

	// Union of per-provider distinct queries; one failing table is logged
	// and skipped so discovery degrades instead of aborting the cycle.
	tables := []string{
		slackIntegrationModel{}.TableName(),
		discordIntegrationModel{}.TableName(),
		linearIntegrationModel{}.TableName(),
		jiraIntegrationModel{}.TableName(),
		connectionModel{}.TableName(),
		webhookModel{}.TableName(),
	}

	seen := make(map[string]struct{})
	var out []string
	for _, table := range tables {
		var ids []string
		if err := s.db.WithContext(ctx).Table(table).Distinct("workspace_id").Pluck("workspace_id", &ids).Error; err != nil {
			logrus.WithError(err).Warnf("[INTEGRATION] distinct workspace query failed for %s", table)
			continue
		}
		for _, id := range ids {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out, nil
}
