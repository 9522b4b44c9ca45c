package application

import (
	"context"
	"strconv"
	"strings"

	"github.com/nexlify/healthwatch/core/settings/domain"
	"github.com/nexlify/healthwatch/core/settings/infrastructure"
	"gorm.io/gorm"
)

type SettingsService struct {
	repo domain.ISettingsRepository
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{
		repo: infrastructure.NewGlobalSettingsGormRepository(db),
	}
}

// DynamicSettings are DB-stored overrides read at sweep time. Nil pointers
// mean the key is unset and the environment value applies.
type DynamicSettings struct {
	MonitoringEnabled *bool
	SchedulerSpec     string
	ProbeTimeoutMs    *int
}

func (s *SettingsService) GetDynamicSettings(ctx context.Context) (*DynamicSettings, error) {
	if err := s.repo.InitSchema(ctx); err != nil {
		return nil, err
	}

	ds := &DynamicSettings{}

	if val, _ := s.repo.Get(ctx, domain.KeyHealthMonitoringEnabled); val != "" {
		isOn := parseBool(val)
		ds.MonitoringEnabled = &isOn
	}
	if val, _ := s.repo.Get(ctx, domain.KeyHealthSchedulerSpec); val != "" {
		ds.SchedulerSpec = val
	}
	if val, _ := s.repo.Get(ctx, domain.KeyHealthProbeTimeoutMs); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			ds.ProbeTimeoutMs = &n
		}
	}

	return ds, nil
}

// MonitoringEnabled reports whether scheduled sweeps should run. Unset
// defaults to enabled.
func (s *SettingsService) MonitoringEnabled(ctx context.Context) bool {
	val, err := s.repo.Get(ctx, domain.KeyHealthMonitoringEnabled)
	if err != nil || val == "" {
		return true
	}
	return parseBool(val)
}

func (s *SettingsService) SetMonitoringEnabled(ctx context.Context, enabled bool) error {
	return s.repo.Set(ctx, domain.KeyHealthMonitoringEnabled, strconv.FormatBool(enabled))
}

func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	return s.repo.Set(ctx, key, value)
}

func (s *SettingsService) Delete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}

func parseBool(val string) bool {
	vLower := strings.ToLower(val)
	return vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
}
