package scrape

import (
	"context"
	"encoding/json"

	"github.com/jonesrussell/cooper/internal/domain"
)

// Status is one observation of a job.
type Status struct {
	// State is StateRunning, StateSucceeded or StateFailed.
	State JobState
	// Raw is the backend's own status string.
	Raw string
	// Items carries the dataset when the backend returns it inline.
	Items json.RawMessage
}

// Backend is a job-execution service. Implementations are selected once at
// construction; the polling loop in Client is the same for all of them.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// Submit starts a job and returns its handle.
	Submit(ctx context.Context, cfg domain.ScrapeJobConfig) (domain.JobHandle, error)
	// Status observes the job once.
	Status(ctx context.Context, handle domain.JobHandle) (Status, error)
	// Items returns the dataset of a succeeded job as a JSON array.
	Items(ctx context.Context, handle domain.JobHandle, status Status) (json.RawMessage, error)
}
