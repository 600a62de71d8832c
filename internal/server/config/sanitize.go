// Package config defines the server configuration structure.
package config

import "fmt"

// Sanitize returns a copy of cfg that is safe to log. The storage key is
// replaced by its length; no key bytes survive.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	out := *cfg
	if out.Storage.Key != "" {
		out.Storage.Key = fmt.Sprintf("<%d bytes>", len(out.Storage.Key))
	}
	return &out
}

// LogAttrs flattens the sanitized config into slog key/value pairs named
// after the config keys.
func LogAttrs(cfg *ServerConfig) []any {
	s := Sanitize(cfg)
	attrs := []any{
		"server.rpc.addr", s.Server.RPC.Addr,
		"server.http.addr", s.Server.HTTP.Addr,
		"server.http.ratelimit", s.Server.HTTP.Ratelimit,
		"shutdown.timeout", s.Shutdown.Timeout,
		"shutdown.policy", s.Shutdown.Policy,
		"shutdown.cascade", s.Shutdown.Cascade,
		"shutdown.escalate", s.Shutdown.Escalate,
		"storage.memory", s.Storage.Memory,
		"jobs.rate", s.Jobs.Rate,
		"jobs.burst", s.Jobs.Burst,
		"log.level", s.Log.Level,
		"log.format", s.Log.Format,
	}
	if !s.Storage.Memory {
		attrs = append(attrs,
			"storage.dir", s.Storage.Dir,
			"storage.sync", s.Storage.Sync,
			"storage.gcinterval", s.Storage.Gcinterval)
	}
	if s.Storage.Key != "" {
		attrs = append(attrs, "storage.key", s.Storage.Key)
	}
	return attrs
}
