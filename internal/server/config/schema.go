// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for jobrunner-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Shutdown ShutdownSection `koanf:"shutdown"`
	Storage  StorageSection  `koanf:"storage"`
	Jobs     JobsSection     `koanf:"jobs"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures the two listeners.
type ServerSection struct {
	RPC  RPCConfig  `koanf:"rpc"`
	HTTP HTTPConfig `koanf:"http"`
}

// RPCConfig configures the Connect/gRPC listener.
type RPCConfig struct {
	Addr string `koanf:"addr"`
}

// HTTPConfig configures the metrics and health listener.
type HTTPConfig struct {
	Addr string `koanf:"addr"`

	// Ratelimit is requests per second per client IP. Zero disables it.
	Ratelimit int `koanf:"ratelimit"`
}

// ShutdownSection configures the coordinator.
//
// Keys are single words so that JOBRUNNER_SHUTDOWN_TIMEOUT style
// environment variables map onto them.
type ShutdownSection struct {
	// Timeout bounds the drain phase.
	Timeout time.Duration `koanf:"timeout"`

	// Policy is "best_effort" or "fail_fast" and decides what a bind
	// failure does to the other listener.
	Policy string `koanf:"policy"`

	// Cascade starts shutdown when a listener fails after binding.
	Cascade bool `koanf:"cascade"`

	// Escalate lets a second signal cut the drain short.
	Escalate bool `koanf:"escalate"`
}

// StorageSection configures the job store.
type StorageSection struct {
	// Memory keeps jobs in memory only.
	Memory bool `koanf:"memory"`

	Dir string `koanf:"dir"`

	// Sync fsyncs every write.
	Sync bool `koanf:"sync"`

	// Gcinterval is the value-log GC period. Zero disables GC.
	Gcinterval time.Duration `koanf:"gcinterval"`

	// Key is the at-rest encryption key (16, 24 or 32 bytes).
	Key string `koanf:"key"`
}

// JobsSection configures job submission.
type JobsSection struct {
	// Rate is submissions per second. Zero or less means unlimited.
	Rate float64 `koanf:"rate"`

	Burst int `koanf:"burst"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
