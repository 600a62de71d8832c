// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/yndnr/jobrunner-go/internal/server/coordinator"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyShutdown(&cfg.Shutdown); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	if cfg.Jobs.Rate > 0 && cfg.Jobs.Burst < 1 {
		return errors.New("jobs.burst must be at least 1 when jobs.rate is set")
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if err := verifyAddr("server.rpc.addr", cfg.RPC.Addr); err != nil {
		return err
	}
	if err := verifyAddr("server.http.addr", cfg.HTTP.Addr); err != nil {
		return err
	}
	if cfg.RPC.Addr == cfg.HTTP.Addr {
		return fmt.Errorf("server.rpc.addr and server.http.addr must differ, both are %s", cfg.RPC.Addr)
	}
	if cfg.HTTP.Ratelimit < 0 {
		return errors.New("server.http.ratelimit must not be negative")
	}
	return nil
}

func verifyAddr(key, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", key)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func verifyShutdown(cfg *ShutdownSection) error {
	if cfg.Timeout <= 0 {
		return errors.New("shutdown.timeout must be positive")
	}
	if _, ok := coordinator.ParseBindPolicy(cfg.Policy); !ok {
		return fmt.Errorf("shutdown.policy: unknown policy %q", cfg.Policy)
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch len(cfg.Key) {
	case 0, 16, 24, 32:
	default:
		return errors.New("storage.key must be 16, 24 or 32 bytes")
	}

	if cfg.Memory {
		return nil
	}

	if cfg.Dir == "" {
		return errors.New("storage.dir is required")
	}

	// Check if data directory exists or can be created
	if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
		return errors.New("cannot create data directory: " + err.Error())
	}

	if cfg.Gcinterval < 0 {
		return errors.New("storage.gcinterval must not be negative")
	}

	return nil
}

func verifyLog(cfg *LogSection) error {
	switch cfg.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", cfg.Level)
	}
	switch cfg.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
	return nil
}
