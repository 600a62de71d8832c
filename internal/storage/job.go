package storage

import (
	"errors"
	"time"
)

// Job states.
const (
	JobStateQueued = "queued"
)

// Validation limits.
const (
	MaxJobNameLen    = 256
	MaxJobPayloadLen = 1 << 20
)

// Job validation errors.
var (
	ErrJobNameRequired = errors.New("job name is required")
	ErrJobNameTooLong  = errors.New("job name too long")
	ErrPayloadTooLarge = errors.New("job payload too large")
	ErrJobIDRequired   = errors.New("job id is required")
)

// Job is a submitted unit of work.
type Job struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Payload   []byte    `json:"payload,omitempty"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the fields a caller supplies.
func (j *Job) Validate() error {
	if j.ID == "" {
		return ErrJobIDRequired
	}
	if j.Name == "" {
		return ErrJobNameRequired
	}
	if len(j.Name) > MaxJobNameLen {
		return ErrJobNameTooLong
	}
	if len(j.Payload) > MaxJobPayloadLen {
		return ErrPayloadTooLarge
	}
	return nil
}
