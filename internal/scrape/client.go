// Package scrape submits scrape jobs to a job-execution backend and polls
// them to completion.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/cooper/infrastructure/logger"
	"github.com/jonesrussell/cooper/infrastructure/retry"
	"github.com/jonesrussell/cooper/internal/domain"
	"github.com/jonesrussell/cooper/internal/metrics"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultTimeout      = 300 * time.Second
)

// Config controls polling and submission retries.
type Config struct {
	PollInterval time.Duration
	Timeout      time.Duration
	SubmitRetry  retry.Config
}

// DefaultConfig polls every 5s for up to 300s.
func DefaultConfig() Config {
	return Config{
		PollInterval: DefaultPollInterval,
		Timeout:      DefaultTimeout,
		SubmitRetry:  retry.DefaultConfig(),
	}
}

// Client runs scrape jobs against a single Backend.
type Client struct {
	backend Backend
	cfg     Config
	log     logger.Logger
	metrics *metrics.Metrics
}

// NewClient creates a Client. log and m may be nil.
func NewClient(backend Backend, cfg Config, log logger.Logger, m *metrics.Metrics) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.SubmitRetry.MaxAttempts <= 0 {
		cfg.SubmitRetry = retry.DefaultConfig()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		backend: backend,
		cfg:     cfg,
		log:     log.With(logger.String("backend", backend.Name())),
		metrics: m,
	}
}

// Backend names the backend jobs are sent to.
func (c *Client) Backend() string { return c.backend.Name() }

// Run submits cfg and waits for the dataset.
func (c *Client) Run(ctx context.Context, cfg domain.ScrapeJobConfig) ([]domain.VideoRecord, error) {
	handle, err := c.Submit(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return c.AwaitResult(ctx, handle)
}

// Submit starts a job, retrying transient failures.
func (c *Client) Submit(ctx context.Context, cfg domain.ScrapeJobConfig) (domain.JobHandle, error) {
	var handle domain.JobHandle

	err := retry.Retry(ctx, c.cfg.SubmitRetry, func() error {
		h, submitErr := c.backend.Submit(ctx, cfg)
		if submitErr != nil {
			c.log.Warn("Scrape job submission attempt failed", logger.Error(submitErr))
			return submitErr
		}
		handle = h
		return nil
	})
	if err != nil {
		c.metrics.ObserveSubmission(c.backend.Name(), "error")
		return "", &SubmissionError{Backend: c.backend.Name(), Err: err}
	}

	if handle == "" {
		c.metrics.ObserveSubmission(c.backend.Name(), "error")
		return "", &SubmissionError{Backend: c.backend.Name(), Err: ErrMissingJobHandle}
	}

	c.metrics.ObserveSubmission(c.backend.Name(), "ok")
	c.log.Info("Scrape job submitted",
		logger.String("job", string(handle)),
		logger.Int("post_urls", len(cfg.PostURLs)),
	)
	return handle, nil
}

// AwaitResult polls handle until it succeeds, fails, or the timeout passes.
// No poll is issued after a failure is observed or after the deadline.
func (c *Client) AwaitResult(ctx context.Context, handle domain.JobHandle) ([]domain.VideoRecord, error) {
	start := time.Now()
	deadline := start.Add(c.cfg.Timeout)
	log := c.log.With(logger.String("job", string(handle)))

	tracker := &stateTracker{state: StateSubmitted, log: log}
	polls := 0

	finish := func(state JobState) {
		tracker.move(state)
		c.metrics.ObserveJob(c.backend.Name(), string(state), time.Since(start))
	}

	for {
		polls++
		status, err := c.poll(ctx, handle, deadline)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				finish(StateCancelled)
				return nil, fmt.Errorf("await scrape job %s: %w", handle, ctxErr)
			}
			c.metrics.ObservePoll(c.backend.Name(), "error")
			log.Warn("Scrape job status poll failed", logger.Int("poll", polls), logger.Error(err))

		case status.State == StateSucceeded:
			c.metrics.ObservePoll(c.backend.Name(), "succeeded")
			records, fetchErr := c.collect(ctx, handle, status)
			if fetchErr == nil {
				finish(StateSucceeded)
				log.Info("Scrape job succeeded",
					logger.Int("records", len(records)),
					logger.Int("polls", polls),
					logger.Duration("elapsed", time.Since(start)),
				)
				return records, nil
			}
			var schemaErr *ResultSchemaError
			if errors.As(fetchErr, &schemaErr) {
				finish(StateFailed)
				return nil, fetchErr
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				finish(StateCancelled)
				return nil, fmt.Errorf("await scrape job %s: %w", handle, ctxErr)
			}
			log.Warn("Fetching scrape dataset failed", logger.Error(fetchErr))

		case status.State == StateFailed:
			c.metrics.ObservePoll(c.backend.Name(), "failed")
			finish(StateFailed)
			log.Warn("Scrape job failed", logger.String("status", status.Raw), logger.Int("polls", polls))
			return nil, &JobFailedError{Handle: handle, Status: status.Raw}

		default:
			c.metrics.ObservePoll(c.backend.Name(), "running")
			tracker.move(StateRunning)
			log.Debug("Scrape job still running", logger.String("status", status.Raw), logger.Int("poll", polls))
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			finish(StateTimedOut)
			return nil, &JobTimeoutError{Handle: handle, Timeout: c.cfg.Timeout, Polls: polls}
		}

		if err := sleep(ctx, min(c.cfg.PollInterval, remaining)); err != nil {
			finish(StateCancelled)
			return nil, fmt.Errorf("await scrape job %s: %w", handle, err)
		}

		if !time.Now().Before(deadline) {
			finish(StateTimedOut)
			log.Warn("Scrape job timed out", logger.Duration("timeout", c.cfg.Timeout), logger.Int("polls", polls))
			return nil, &JobTimeoutError{Handle: handle, Timeout: c.cfg.Timeout, Polls: polls}
		}
	}
}

func (c *Client) poll(ctx context.Context, handle domain.JobHandle, deadline time.Time) (Status, error) {
	pollCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()
	return c.backend.Status(pollCtx, handle)
}

func (c *Client) collect(ctx context.Context, handle domain.JobHandle, status Status) ([]domain.VideoRecord, error) {
	raw, err := c.backend.Items(ctx, handle, status)
	if err != nil {
		return nil, err
	}
	return ParseRecords(raw)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// stateTracker logs lifecycle transitions and flags illegal ones. A
// terminal state is final.
type stateTracker struct {
	state JobState
	log   logger.Logger
}

func (t *stateTracker) move(to JobState) {
	if t.state == to && to == StateRunning {
		return
	}
	if IsTerminalState(t.state) {
		t.log.Warn("Ignoring transition out of terminal scrape job state",
			logger.String("from", string(t.state)),
			logger.String("to", string(to)),
		)
		return
	}
	if err := ValidateStateTransition(t.state, to); err != nil {
		t.log.Error("Unexpected scrape job transition", logger.Error(err))
	}
	t.log.Debug("Scrape job state changed",
		logger.String("from", string(t.state)),
		logger.String("to", string(to)),
	)
	t.state = to
}
