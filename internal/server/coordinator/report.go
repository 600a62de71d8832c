package coordinator

import (
	"errors"
	"time"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// RunReport is the aggregate result of one Run.
type RunReport struct {
	// Outcomes holds exactly one entry per registered service, or none
	// when startup failed before any listener was dispatched.
	Outcomes []Outcome

	// InitErr is set when Run could not reach Running.
	InitErr error

	// CloseErrs collects resource release failures. They are reported
	// but never change the exit code.
	CloseErrs []error

	// Reason is why shutdown started.
	Reason string

	// Duration is the time from the start of draining to Closed.
	Duration time.Duration
}

// Failed returns the outcomes that did not stop cleanly.
func (r *RunReport) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Outcome returns the outcome recorded for the named service.
func (r *RunReport) Outcome(name string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Name == name {
			return o, true
		}
	}
	return Outcome{}, false
}

// Err joins the startup error and every failed outcome. It is nil on a
// clean run. Close errors are not included.
func (r *RunReport) Err() error {
	errs := make([]error, 0, len(r.Outcomes)+1)
	if r.InitErr != nil {
		errs = append(errs, r.InitErr)
	}
	for _, o := range r.Failed() {
		errs = append(errs, o.Err)
	}
	return errors.Join(errs...)
}

// ExitCode maps the report to a process exit status: 0 only when startup
// succeeded and every service stopped cleanly.
func (r *RunReport) ExitCode() int {
	if r.Err() != nil {
		return ExitFailure
	}
	return ExitOK
}
