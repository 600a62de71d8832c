package jobrunnerv1

import "time"

// Job is the wire form of a stored job.
type Job struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Payload   []byte    `json:"payload,omitempty"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitRequest asks the server to queue a job.
type SubmitRequest struct {
	Name    string `json:"name"`
	Payload []byte `json:"payload,omitempty"`
}

// SubmitResponse returns the queued job.
type SubmitResponse struct {
	Job *Job `json:"job"`
}

// GetRequest looks up a job by ID.
type GetRequest struct {
	ID string `json:"id"`
}

// GetResponse returns the requested job.
type GetResponse struct {
	Job *Job `json:"job"`
}
