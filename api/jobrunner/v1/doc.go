// Package jobrunnerv1 defines the jobrunner.v1.JobRunnerService RPC API.
//
// Messages are plain Go structs carried as JSON over Connect, gRPC and
// gRPC-Web. Handlers and clients built with this package install Codec
// automatically.
package jobrunnerv1
