package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/jobrunner-go/internal/infra/buildinfo"
	"github.com/yndnr/jobrunner-go/internal/infra/confloader"
	"github.com/yndnr/jobrunner-go/internal/server/config"
	"github.com/yndnr/jobrunner-go/internal/server/coordinator"
	"github.com/yndnr/jobrunner-go/internal/telemetry/logger"
	"github.com/yndnr/jobrunner-go/internal/telemetry/metric"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(coordinator.ExitFailure)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "jobrunner-server",
		Usage:   "Job runner with an RPC listener and a metrics listener",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				EnvVars: []string{"JOBRUNNER_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "rpc-addr",
				Usage: "RPC listen address (default " + config.DefaultRPCAddr + ")",
			},
			&cli.StringFlag{
				Name:  "http-addr",
				Usage: "HTTP metrics listen address (default " + config.DefaultHTTPAddr + ")",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.DurationFlag{
				Name:  "shutdown-timeout",
				Usage: "Maximum time to drain listeners",
			},
			&cli.BoolFlag{
				Name:  "memory",
				Usage: "Keep jobs in memory only",
			},
		},
		Action: runServer,
	}
}

// flagOverrides maps explicitly set flags to config keys.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := make(map[string]any)
	if c.IsSet("rpc-addr") {
		overrides["server.rpc.addr"] = c.String("rpc-addr")
	}
	if c.IsSet("http-addr") {
		overrides["server.http.addr"] = c.String("http-addr")
	}
	if c.IsSet("log-level") {
		overrides["log.level"] = c.String("log-level")
	}
	if c.IsSet("shutdown-timeout") {
		overrides["shutdown.timeout"] = c.Duration("shutdown-timeout")
	}
	if c.IsSet("memory") {
		overrides["storage.memory"] = c.Bool("memory")
	}
	return overrides
}

func runServer(c *cli.Context) error {
	loader := confloader.NewLoader(
		confloader.WithConfigFile(c.String("config")),
		confloader.WithOverrides(flagOverrides(c)),
	)

	cfg, err := loadConfig(loader)
	if err != nil {
		return err
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slogLogger := log.Slog()

	log.Info("starting jobrunner-server",
		"version", buildinfo.Get().Version,
		"commit", buildinfo.Get().Commit,
		"config", loader.FilePath())
	log.Debug("effective configuration", config.LogAttrs(cfg)...)

	srv, err := newServer(cfg, slogLogger, metric.Global())
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	if path := loader.FilePath(); path != "" {
		stop, err := watchConfig(loader, path, slogLogger)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			defer stop()
		}
	}

	report := srv.Run(c.Context)
	if code := report.ExitCode(); code != coordinator.ExitOK {
		return cli.Exit(fmt.Sprintf("error: %v", report.Err()), code)
	}
	return nil
}

// loadConfig loads configuration from file, environment and flags.
func loadConfig(loader *confloader.Loader) (*config.ServerConfig, error) {
	cfg := config.Default()

	if err := loader.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// initLogger initializes the structured logger and makes it the default.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}

	logger.SetDefault(log)
	return log, nil
}

// watchConfig re-applies the log level whenever the config file changes.
// Other settings take effect on restart.
func watchConfig(loader *confloader.Loader, path string, log *slog.Logger) (func(), error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		cfg := config.Default()
		if err := loader.Reload(cfg); err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("config reload: keeping log level", "error", err)
			return
		}
		log.Info("config reloaded", "log_level", logger.GetLevel())
	})
	w.StartAsync()

	return func() { _ = w.Stop() }, nil
}
