package metric

import (
	"time"

	"github.com/yndnr/jobrunner-go/internal/server/coordinator"
)

// LifecycleObserver records coordinator events into a Registry.
type LifecycleObserver struct {
	coordinator.NopObserver
	r *Registry
}

// NewLifecycleObserver returns an observer backed by r.
func NewLifecycleObserver(r *Registry) *LifecycleObserver {
	return &LifecycleObserver{r: r}
}

// ServiceServing implements coordinator.Observer.
func (o *LifecycleObserver) ServiceServing(name string, serving bool) {
	o.r.SetServiceServing(name, serving)
}

// ServiceStopped implements coordinator.Observer.
func (o *LifecycleObserver) ServiceStopped(out coordinator.Outcome) {
	o.r.RecordServiceOutcome(out.Name, out.Result())
}

// ShutdownCompleted implements coordinator.Observer.
func (o *LifecycleObserver) ShutdownCompleted(d time.Duration) {
	o.r.ObserveShutdownDuration(d.Seconds())
}
