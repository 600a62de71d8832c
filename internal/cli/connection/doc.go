// Package connection provides the RPC client used by jobrunner-cli.
//
// All calls go over plaintext HTTP/2 (h2c) so the same client can speak the
// Connect protocol to the job service and gRPC to the health service.
package connection
