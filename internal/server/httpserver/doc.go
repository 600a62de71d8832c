// Package httpserver provides the plain HTTP listener for jobrunner.
//
// Endpoints:
//
//   - GET /: liveness placeholder
//   - GET /health, GET /ready: liveness and readiness
//   - GET /status: lifecycle and job store summary
//   - GET /metrics: Prometheus exposition
//
// Middleware chain: Recover, RequestID, RateLimit, AccessLog.
package httpserver
