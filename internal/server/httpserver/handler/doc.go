// Package handler provides HTTP request handlers for the jobrunner HTTP
// listener.
//
// This package contains handlers for all HTTP endpoints:
//
//   - health.go: liveness, readiness and the root placeholder
//   - status.go: lifecycle and job store summary
//
// /metrics is served by the Prometheus handler passed in Config.
package handler
