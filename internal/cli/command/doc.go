// Package command provides CLI command definitions for jobrunner-cli.
//
// Commands:
//
//	health [--service NAME]          query the gRPC health service
//	job submit --name N [--payload]  queue a job
//	job get ID                       fetch a job
//
// Every command talks to the RPC listener selected by --server (or
// JOBRUNNER_SERVER) and prints with the --output format.
package command
