package scrape_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraerrors "github.com/jonesrussell/cooper/infrastructure/errors"
	"github.com/jonesrussell/cooper/infrastructure/retry"
	"github.com/jonesrussell/cooper/internal/domain"
	"github.com/jonesrussell/cooper/internal/scrape"
)

// fakeBackend replays a fixed sequence of statuses.
type fakeBackend struct {
	mu         sync.Mutex
	handle     domain.JobHandle
	submitErrs []error
	statuses   []scrape.Status
	items      json.RawMessage
	submits    int
	polls      int
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Submit(context.Context, domain.ScrapeJobConfig) (domain.JobHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.submits++
	if len(f.submitErrs) > 0 {
		err := f.submitErrs[0]
		f.submitErrs = f.submitErrs[1:]
		return "", err
	}
	return f.handle, nil
}

func (f *fakeBackend) Status(context.Context, domain.JobHandle) (scrape.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.polls++
	if len(f.statuses) == 0 {
		return scrape.Status{State: scrape.StateRunning, Raw: "RUNNING"}, nil
	}
	st := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return st, nil
}

func (f *fakeBackend) Items(context.Context, domain.JobHandle, scrape.Status) (json.RawMessage, error) {
	return f.items, nil
}

func (f *fakeBackend) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func fastConfig() scrape.Config {
	return scrape.Config{
		PollInterval: 10 * time.Millisecond,
		Timeout:      time.Second,
		SubmitRetry: retry.Config{
			MaxAttempts:  3,
			InitialDelay: time.Millisecond,
			MaxDelay:     5 * time.Millisecond,
			Multiplier:   2,
		},
	}
}

func running() scrape.Status { return scrape.Status{State: scrape.StateRunning, Raw: "RUNNING"} }

func TestClient_Run_Succeeds(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		handle: "run-1",
		statuses: []scrape.Status{
			running(),
			running(),
			{State: scrape.StateSucceeded, Raw: "SUCCEEDED"},
		},
		items: json.RawMessage(`[{"url":"https://www.tiktok.com/@a/video/1","comments":["hi"],"metadata":{"likes":3}}]`),
	}
	client := scrape.NewClient(backend, fastConfig(), nil, nil)

	records, err := client.Run(context.Background(), domain.ScrapeJobConfig{PostURLs: []string{"https://www.tiktok.com/@a/video/1"}})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"hi"}, records[0].Comments)
	assert.Equal(t, 3, backend.pollCount())
}

func TestClient_Submit_RetriesTransientErrors(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		handle:     "run-2",
		submitErrs: []error{&infraerrors.HTTPError{StatusCode: 503, Message: "busy"}},
	}
	client := scrape.NewClient(backend, fastConfig(), nil, nil)

	handle, err := client.Submit(context.Background(), domain.ScrapeJobConfig{})
	require.NoError(t, err)
	assert.Equal(t, domain.JobHandle("run-2"), handle)
	assert.Equal(t, 2, backend.submits)
}

func TestClient_Submit_Errors(t *testing.T) {
	t.Parallel()

	t.Run("permanent failure", func(t *testing.T) {
		t.Parallel()

		backend := &fakeBackend{submitErrs: []error{&infraerrors.HTTPError{StatusCode: 401, Message: "bad token"}}}
		client := scrape.NewClient(backend, fastConfig(), nil, nil)

		_, err := client.Submit(context.Background(), domain.ScrapeJobConfig{})

		var subErr *scrape.SubmissionError
		require.ErrorAs(t, err, &subErr)
		assert.Equal(t, "fake", subErr.Backend)
		assert.Equal(t, 1, backend.submits)
	})

	t.Run("missing handle", func(t *testing.T) {
		t.Parallel()

		client := scrape.NewClient(&fakeBackend{}, fastConfig(), nil, nil)

		_, err := client.Submit(context.Background(), domain.ScrapeJobConfig{})

		var subErr *scrape.SubmissionError
		require.ErrorAs(t, err, &subErr)
		assert.ErrorIs(t, err, scrape.ErrMissingJobHandle)
	})
}

func TestClient_AwaitResult_FailureStopsPolling(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		statuses: []scrape.Status{
			running(),
			{State: scrape.StateFailed, Raw: "ABORTED"},
			{State: scrape.StateSucceeded, Raw: "SUCCEEDED"},
		},
	}
	client := scrape.NewClient(backend, fastConfig(), nil, nil)

	_, err := client.AwaitResult(context.Background(), "run-3")

	var failed *scrape.JobFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "ABORTED", failed.Status)
	assert.Equal(t, domain.JobHandle("run-3"), failed.Handle)
	assert.Equal(t, 2, backend.pollCount())
}

func TestClient_AwaitResult_Timeout(t *testing.T) {
	t.Parallel()

	// scheduler jitter allowance on top of the interval
	const slack = 15 * time.Millisecond

	tests := []struct {
		name     string
		interval time.Duration
		timeout  time.Duration
		maxPolls int
	}{
		{name: "interval divides timeout", interval: 20 * time.Millisecond, timeout: 100 * time.Millisecond, maxPolls: 5},
		{name: "interval does not divide timeout", interval: 30 * time.Millisecond, timeout: 100 * time.Millisecond, maxPolls: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := fastConfig()
			cfg.PollInterval = tt.interval
			cfg.Timeout = tt.timeout

			backend := &fakeBackend{}
			client := scrape.NewClient(backend, cfg, nil, nil)

			start := time.Now()
			_, err := client.AwaitResult(context.Background(), "run-4")
			elapsed := time.Since(start)

			var timeout *scrape.JobTimeoutError
			require.ErrorAs(t, err, &timeout)
			assert.Equal(t, cfg.Timeout, timeout.Timeout)
			assert.GreaterOrEqual(t, elapsed, cfg.Timeout)
			assert.Less(t, elapsed, cfg.Timeout+cfg.PollInterval+slack)
			// ceil(timeout/interval) polls at most
			assert.LessOrEqual(t, backend.pollCount(), tt.maxPolls)
			assert.Equal(t, backend.pollCount(), timeout.Polls)
		})
	}
}

func TestClient_AwaitResult_SchemaError(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		statuses: []scrape.Status{{State: scrape.StateSucceeded, Raw: "SUCCEEDED"}},
		items:    json.RawMessage(`[{"url":"u","metadata":{}}]`),
	}
	client := scrape.NewClient(backend, fastConfig(), nil, nil)

	_, err := client.AwaitResult(context.Background(), "run-5")

	var schemaErr *scrape.ResultSchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, 0, schemaErr.Index)
}

func TestClient_AwaitResult_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	client := scrape.NewClient(&fakeBackend{}, fastConfig(), nil, nil)

	_, err := client.AwaitResult(ctx, "run-6")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
