package coordinator

import "time"

// Observer receives lifecycle events. Implementations must be safe for
// concurrent use; ServiceServing and ServiceStopped are called from the
// listener goroutines.
type Observer interface {
	StateChanged(s State)
	ServiceServing(name string, serving bool)
	ServiceStopped(o Outcome)
	ShutdownCompleted(d time.Duration)
}

// NopObserver ignores every event. Embed it to implement part of Observer.
type NopObserver struct{}

func (NopObserver) StateChanged(State)              {}
func (NopObserver) ServiceServing(string, bool)     {}
func (NopObserver) ServiceStopped(Outcome)          {}
func (NopObserver) ShutdownCompleted(time.Duration) {}

type observers []Observer

func (os observers) StateChanged(s State) {
	for _, o := range os {
		o.StateChanged(s)
	}
}

func (os observers) ServiceServing(name string, serving bool) {
	for _, o := range os {
		o.ServiceServing(name, serving)
	}
}

func (os observers) ServiceStopped(out Outcome) {
	for _, o := range os {
		o.ServiceStopped(out)
	}
}

func (os observers) ShutdownCompleted(d time.Duration) {
	for _, o := range os {
		o.ShutdownCompleted(d)
	}
}
