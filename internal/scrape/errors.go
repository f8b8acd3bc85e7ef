package scrape

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/cooper/internal/domain"
)

// ErrMissingJobHandle marks a submission the backend accepted without
// returning a job identifier.
var ErrMissingJobHandle = errors.New("backend returned no job handle")

// SubmissionError is returned when a job could not be submitted.
type SubmissionError struct {
	Backend string
	Err     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit scrape job to %s: %v", e.Backend, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// JobFailedError is returned when the backend reports a failed job.
type JobFailedError struct {
	Handle domain.JobHandle
	// Status is the backend's own status string, e.g. "ABORTED".
	Status string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("scrape job %s failed with status %s", e.Handle, e.Status)
}

// JobTimeoutError is returned when the deadline passes before the job ends.
type JobTimeoutError struct {
	Handle  domain.JobHandle
	Timeout time.Duration
	Polls   int
}

func (e *JobTimeoutError) Error() string {
	return fmt.Sprintf("scrape job %s did not complete within %s (%d polls)", e.Handle, e.Timeout, e.Polls)
}

// ResultSchemaError is returned when the dataset does not decode into
// VideoRecords. Index is the offending item, or -1 for the payload itself.
type ResultSchemaError struct {
	Index int
	Err   error
}

func (e *ResultSchemaError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid scrape dataset: %v", e.Err)
	}
	return fmt.Sprintf("invalid scrape dataset item %d: %v", e.Index, e.Err)
}

func (e *ResultSchemaError) Unwrap() error { return e.Err }
