// Package config provides server configuration for jobrunner-server.
//
// This package defines the server configuration structure and validation:
//
//   - schema.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Business validation (addresses, shutdown policy, paths)
//   - sanitize.go: Log sanitization (hide sensitive values)
//   - convert.go: Mapping onto coordinator and storage options
//
// Configuration is loaded via internal/infra/confloader and supports
// multiple sources: files, environment variables, and flags.
package config
