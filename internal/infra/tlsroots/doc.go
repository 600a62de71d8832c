// Package tlsroots builds client TLS trust for jobrunner-cli.
//
// A Pool starts from the system roots (or empty) and accepts extra PEM
// CA files or directories. ClientConfig turns it into a *tls.Config for
// dialing an https RPC endpoint.
package tlsroots
