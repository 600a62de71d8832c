// Package main provides the entry point for jobrunner-server.
//
// jobrunner-server hosts two listeners that start and stop together: a
// Connect/gRPC listener serving the job service and gRPC health, and an
// HTTP listener serving /metrics and health endpoints. SIGINT or SIGTERM
// drains both, then the job store is closed and the process exits with
// status 0 only if every listener stopped cleanly.
package main
