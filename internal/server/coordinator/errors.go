package coordinator

import (
	"errors"
	"fmt"
)

// Coordinator errors.
var (
	ErrNotIdle          = errors.New("coordinator: not idle")
	ErrNoServices       = errors.New("coordinator: no services registered")
	ErrDuplicateService = errors.New("coordinator: duplicate service name")
	ErrInvalidService   = errors.New("coordinator: invalid service descriptor")
	ErrServicePanic     = errors.New("coordinator: service panicked")
	ErrDrainTimeout     = errors.New("coordinator: drain deadline exceeded")
)

// BindError reports a listener that could not bind its address.
type BindError struct {
	Service string
	Addr    string
	Err     error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s on %s: %v", e.Service, e.Addr, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// RuntimeError reports a listener whose serve loop failed after binding.
type RuntimeError struct {
	Service string
	Err     error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("serve %s: %v", e.Service, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// ResourceCloseError reports a resource that failed to release cleanly.
// It never changes the process exit status.
type ResourceCloseError struct {
	Resource string
	Err      error
}

func (e *ResourceCloseError) Error() string {
	return fmt.Sprintf("close resource %s: %v", e.Resource, e.Err)
}

func (e *ResourceCloseError) Unwrap() error { return e.Err }

// IsBindError reports whether err is, or wraps, a BindError.
func IsBindError(err error) bool {
	var be *BindError
	return errors.As(err, &be)
}
