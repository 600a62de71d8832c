// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultRPCAddr       = "127.0.0.1:50051"
	DefaultHTTPAddr      = "127.0.0.1:8080"
	DefaultHTTPRateLimit = 100

	DefaultShutdownTimeout = 30 * time.Second
	DefaultShutdownPolicy  = "best_effort"

	DefaultDataDir    = "/var/lib/jobrunner-server/data"
	DefaultGCInterval = 10 * time.Minute

	DefaultJobRate  = 50.0
	DefaultJobBurst = 100

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			RPC: RPCConfig{
				Addr: DefaultRPCAddr,
			},
			HTTP: HTTPConfig{
				Addr:      DefaultHTTPAddr,
				Ratelimit: DefaultHTTPRateLimit,
			},
		},
		Shutdown: ShutdownSection{
			Timeout:  DefaultShutdownTimeout,
			Policy:   DefaultShutdownPolicy,
			Escalate: true,
		},
		Storage: StorageSection{
			Dir:        DefaultDataDir,
			Sync:       true,
			Gcinterval: DefaultGCInterval,
		},
		Jobs: JobsSection{
			Rate:  DefaultJobRate,
			Burst: DefaultJobBurst,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
