// Package main provides the entry point for jobrunner-cli.
//
// jobrunner-cli queries the health service and submits or fetches jobs on
// a running jobrunner-server over its RPC listener.
package main
