package coordinator

// State is a coordinator lifecycle phase.
type State int32

// Lifecycle phases, in order.
const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// BindPolicy decides what a bind failure does to sibling listeners.
type BindPolicy string

const (
	// BestEffort keeps the other listeners running.
	BestEffort BindPolicy = "best_effort"
	// FailFast starts shutdown as soon as any listener fails to bind.
	FailFast BindPolicy = "fail_fast"
)

// ParseBindPolicy converts a config string. Unknown values return false.
func ParseBindPolicy(s string) (BindPolicy, bool) {
	switch BindPolicy(s) {
	case "", BestEffort:
		return BestEffort, true
	case FailFast:
		return FailFast, true
	default:
		return "", false
	}
}
