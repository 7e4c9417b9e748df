package generation

import (
	"fmt"
	"time"
)

// JobFailedError reports a task the provider declared permanently
// unsuccessful. Terminal, never retried here.
type JobFailedError struct {
	JobID  string
	Reason string
}

func (e *JobFailedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("generation: task %s failed", e.JobID)
	}
	return fmt.Sprintf("generation: task %s failed: %s", e.JobID, e.Reason)
}

// JobTimedOutError reports an attempt or wall-clock budget exhausted while
// the task was still non-terminal. The caller may resubmit with a larger
// budget.
type JobTimedOutError struct {
	JobID    string
	Kind     string
	Attempts int
	Elapsed  time.Duration
}

func (e *JobTimedOutError) Error() string {
	return fmt.Sprintf("generation: task %s (kind %s) still pending after %d attempts in %s",
		e.JobID, e.Kind, e.Attempts, e.Elapsed)
}

// UnknownStateError reports a status string outside the provider contract.
// Always surfaced, never silently mapped to a known state.
type UnknownStateError struct {
	JobID string
	State string
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("generation: task %s reported unknown state %q", e.JobID, e.State)
}

// ValidationError reports a completed task whose payload does not match the
// expected shape. Carries the first violation found.
type ValidationError struct {
	JobID    string
	Category Category
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("generation: task %s: invalid %s output: %s", e.JobID, e.Category, e.Reason)
	}
	return fmt.Sprintf("generation: task %s: invalid %s output: field %s: %s", e.JobID, e.Category, e.Field, e.Reason)
}

// NoResourceError reports a payload that passed schema validation but
// contained no usable resource. A well-typed empty result is an error, not an
// empty success.
type NoResourceError struct {
	JobID    string
	Category Category
}

func (e *NoResourceError) Error() string {
	return fmt.Sprintf("generation: task %s: %s output contains no resource", e.JobID, e.Category)
}
