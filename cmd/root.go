package cmd

import (
	"context"
	"os"
	"strings"
	"time"

	coreconfig "github.com/nexlify/healthwatch/core/config"
	coreDB "github.com/nexlify/healthwatch/core/database"
	settingsApp "github.com/nexlify/healthwatch/core/settings/application"
	domainHealth "github.com/nexlify/healthwatch/domains/health"
	domainIntegration "github.com/nexlify/healthwatch/domains/integration"
	"github.com/nexlify/healthwatch/infrastructure/valkey"
	"github.com/nexlify/healthwatch/pkg/crypto"
	"github.com/nexlify/healthwatch/pkg/utils"
	"github.com/nexlify/healthwatch/repository"
	"github.com/nexlify/healthwatch/usecase"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	appDB        *gorm.DB
	valkeyClient *valkey.Client

	integrationStore domainIntegration.IIntegrationStore
	healthUsecase    domainHealth.IHealthUsecase
	healthScheduler  *usecase.HealthScheduler
)

var rootCmd = &cobra.Command{
	Use:   "healthwatch",
	Short: "Integration health monitoring service",
	Long:  `Periodically probes workspace integrations (Slack, Discord, Linear, Jira, provider connections and outgoing webhooks) and serves their health state over an HTTP API.`,
}

func init() {
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	cobra.OnInitialize(initApp)
}

func initApp() {
	cfg, err := coreconfig.LoadConfig()
	if err != nil {
		logrus.Fatalln("Failed to load configuration:", err)
	}

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := os.MkdirAll(cfg.Paths.Storages, 0o755); err != nil {
		logrus.Fatalln("Failed to create storage directory:", err)
	}

	appDB, err = coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalln("Failed to open database:", err)
	}

	// Time series go to Valkey when configured, otherwise an in-process store.
	var historyStore domainHealth.IHistoryStore
	if cfg.Database.ValkeyEnabled {
		valkeyClient, err = valkey.NewClient(valkey.Config{
			Address:   cfg.Database.ValkeyAddress,
			Password:  cfg.Database.ValkeyPassword,
			DB:        cfg.Database.ValkeyDB,
			KeyPrefix: cfg.Database.ValkeyKeyPrefix,
		})
		if err != nil {
			logrus.Fatalln("Failed to connect to Valkey:", err)
		}
		historyStore = repository.NewValkeyHistoryStore(valkeyClient)
		logrus.Info("[HEALTH] using Valkey history store at " + cfg.Database.ValkeyAddress)
	} else {
		historyStore = repository.NewMemoryHistoryStore()
		logrus.Warn("[HEALTH] VALKEY_ENABLED is false, health history is kept in memory only")
	}

	crypter := crypto.NewCrypter(cfg.Security.EncryptionKey)
	integrationStore = usecase.NewIntegrationStore(appDB)

	// Stored settings override the environment where set.
	settingsSvc := settingsApp.NewSettingsService(appDB)
	if ds, err := settingsSvc.GetDynamicSettings(context.Background()); err == nil {
		if ds.SchedulerSpec != "" {
			cfg.Health.SchedulerSpec = ds.SchedulerSpec
		}
		if ds.ProbeTimeoutMs != nil {
			cfg.Health.ProbeTimeout = time.Duration(*ds.ProbeTimeoutMs) * time.Millisecond
		}
	}

	healthUsecase = usecase.NewHealthService(appDB, integrationStore, crypter, historyStore, usecase.HealthServiceOptions{
		ProbeTimeout:     cfg.Health.ProbeTimeout,
		HistoryRetention: cfg.Health.HistoryRetention,
	})

	healthScheduler = usecase.NewHealthScheduler(healthUsecase, integrationStore, cfg.Health.SchedulerSpec)
	healthScheduler.Gate = settingsSvc
	if err := healthScheduler.Start(); err != nil {
		logrus.Fatalln("Failed to start health scheduler:", err)
	}
}

// StopApp tears down subsystems in reverse startup order.
func StopApp() {
	if healthScheduler != nil {
		healthScheduler.Stop()
	}
	if valkeyClient != nil {
		valkeyClient.Close()
	}
	if appDB != nil {
		if sqlDB, err := appDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	logrus.Info("[APP] shutdown complete")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Errorln(strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}
