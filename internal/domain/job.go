package domain

import "time"

// JobStatus enumerates queued-job lifecycle states.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Job is one queued generation request tracked from enqueue to terminal
// outcome. The remote provider's task id exists only for the duration of the
// orchestration and is recorded on the result, never reused.
type Job struct {
	ID           string
	Kind         string
	Operation    string
	Category     string
	InputJSON    []byte
	Steps        int
	Status       JobStatus
	ResultJSON   []byte
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
