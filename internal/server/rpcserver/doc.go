// Package rpcserver serves the job service and the gRPC health service on
// the RPC listener.
//
// Connect handlers speak Connect, gRPC and gRPC-Web. The server enables
// unencrypted HTTP/2 alongside HTTP/1.1 so plaintext gRPC clients work and
// Shutdown still drains their streams.
package rpcserver
