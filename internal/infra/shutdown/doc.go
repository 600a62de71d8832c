// Package shutdown provides the shutdown primitives for jobrunner-server.
//
// This package handles process termination and cleanup ordering:
//
//   - signal.go: SignalSource, a one-shot wait on SIGINT/SIGTERM with
//     second-signal escalation
//   - broadcaster.go: Broadcaster, a fire-once notification observable by
//     any number of subscribers, including late ones
//   - guard.go: Guard, a resource whose Close runs exactly once
//   - hooks.go: Hooks, cleanup callbacks executed in reverse registration order
//
// Usage:
//
//	b := shutdown.NewBroadcaster()
//	recv := b.Subscribe()
//	go func() { <-recv.Done(); drain() }()
//	b.Fire("signal terminated")
package shutdown
