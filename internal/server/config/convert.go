// Package config defines the server configuration structure.
package config

import (
	"log/slog"

	"github.com/yndnr/jobrunner-go/internal/server/coordinator"
	"github.com/yndnr/jobrunner-go/internal/storage"
)

// ToStorageConfig converts the storage section to storage.Config.
func ToStorageConfig(cfg *ServerConfig) storage.Config {
	sc := storage.DefaultConfig(cfg.Storage.Dir)
	sc.InMemory = cfg.Storage.Memory
	sc.SyncWrites = cfg.Storage.Sync
	sc.GCInterval = cfg.Storage.Gcinterval
	if cfg.Storage.Key != "" {
		sc.EncryptionKey = []byte(cfg.Storage.Key)
	}
	return sc
}

// ToCoordinatorOptions converts the shutdown section to coordinator options.
// Verify must have accepted cfg.
func ToCoordinatorOptions(cfg *ServerConfig, logger *slog.Logger) []coordinator.Option {
	policy, _ := coordinator.ParseBindPolicy(cfg.Shutdown.Policy)

	return []coordinator.Option{
		coordinator.WithLogger(logger),
		coordinator.WithShutdownTimeout(cfg.Shutdown.Timeout),
		coordinator.WithBindPolicy(policy),
		coordinator.WithCascade(cfg.Shutdown.Cascade),
		coordinator.WithEscalation(cfg.Shutdown.Escalate),
	}
}
