// Package coordinator runs the server's listeners as one unit.
//
// A Coordinator owns a set of service descriptors (one per listener),
// a shutdown broadcaster, and the resource guards the services depend on.
// Run binds and serves every listener concurrently, waits for the first
// termination request, lets every listener drain, closes the resources in
// reverse order, and returns a RunReport with exactly one outcome per
// listener.
//
// Lifecycle:
//
//	Idle -> Starting -> Running -> Draining -> Closed
//
// A listener that fails to bind reports a BindError without waiting for a
// signal. Whether that stops its siblings is decided by the BindPolicy.
package coordinator
