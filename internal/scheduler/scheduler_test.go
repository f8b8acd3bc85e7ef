package scheduler_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/cooper/internal/analysis"
	"github.com/jonesrussell/cooper/internal/config"
	"github.com/jonesrussell/cooper/internal/domain"
	"github.com/jonesrussell/cooper/internal/metrics"
	"github.com/jonesrussell/cooper/internal/scheduler"
)

type fakeRunner struct {
	calls   atomic.Int32
	release chan struct{}
	err     error

	mu   sync.Mutex
	reqs []analysis.Request
}

func (f *fakeRunner) Run(ctx context.Context, req analysis.Request) (*domain.Report, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()

	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Report{RunID: "run-1", Videos: []string{"https://www.tiktok.com/a"}}, nil
}

func TestScheduler_Add(t *testing.T) {
	t.Parallel()

	s := scheduler.New(&fakeRunner{}, nil, nil)

	require.NoError(t, s.Add(config.ScheduleEntry{Name: "nightly", Topic: "cooking", Cron: "0 2 * * *"}))
	require.NoError(t, s.Add(config.ScheduleEntry{Name: "hourly", Topic: "fitness", Cron: "@hourly"}))

	err := s.Add(config.ScheduleEntry{Name: "nightly", Topic: "cooking", Cron: "0 3 * * *"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	err = s.Add(config.ScheduleEntry{Name: "broken", Topic: "cooking", Cron: "every day"})
	require.Error(t, err)

	assert.Equal(t, 2, s.Len())
	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "hourly", entries[0].Name)
	assert.Equal(t, "nightly", entries[1].Name)
}

func TestScheduler_TriggerBuildsRequest(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	m := metrics.New(prometheus.NewRegistry())
	s := scheduler.New(runner, nil, m)
	require.NoError(t, s.Add(config.ScheduleEntry{
		Name: "nightly", Topic: "cooking", Limit: 5, Cron: "@daily",
	}))

	require.NoError(t, s.Trigger("nightly"))

	require.Len(t, runner.reqs, 1)
	assert.Equal(t, analysis.Request{Query: "cooking", Limit: 5, Schedule: "nightly"}, runner.reqs[0])
	assert.InDelta(t, 1, testutil.ToFloat64(m.ScheduledRunsTotal.WithLabelValues("nightly", "success")), 0)
}

func TestScheduler_TriggerUnknown(t *testing.T) {
	t.Parallel()

	s := scheduler.New(&fakeRunner{}, nil, nil)
	require.ErrorIs(t, s.Trigger("missing"), scheduler.ErrUnknownEntry)
}

func TestScheduler_CountsFailuresByKind(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: &analysis.StageError{
		Stage: analysis.StageLocate,
		Kind:  analysis.KindNotFound,
		Err:   analysis.ErrNoVideos,
	}}
	m := metrics.New(prometheus.NewRegistry())
	s := scheduler.New(runner, nil, m)
	require.NoError(t, s.Add(config.ScheduleEntry{Name: "knit", Topic: "knitting", Cron: "@daily"}))

	require.NoError(t, s.Trigger("knit"))

	assert.InDelta(t, 1, testutil.ToFloat64(m.ScheduledRunsTotal.WithLabelValues("knit", "not_found")), 0)
}

func TestScheduler_SkipsOverlappingFires(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{release: make(chan struct{})}
	s := scheduler.New(runner, nil, nil)
	require.NoError(t, s.Add(config.ScheduleEntry{Name: "nightly", Topic: "cooking", Cron: "@daily"}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Trigger("nightly")
	}()

	require.Eventually(t, func() bool { return runner.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	// returns at once because the first fire still holds the entry
	require.NoError(t, s.Trigger("nightly"))
	assert.Equal(t, int32(1), runner.calls.Load())

	close(runner.release)
	<-done

	require.NoError(t, s.Trigger("nightly"))
	assert.Equal(t, int32(2), runner.calls.Load())
}

func TestScheduler_FiresOnSchedule(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	s := scheduler.New(runner, nil, nil)
	require.NoError(t, s.Add(config.ScheduleEntry{Name: "fast", Topic: "cooking", Cron: "@every 1s"}))

	s.Start()
	require.Eventually(t, func() bool { return runner.calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestScheduler_StopCancelsRuns(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{release: make(chan struct{})}
	s := scheduler.New(runner, nil, nil)
	require.NoError(t, s.Add(config.ScheduleEntry{Name: "nightly", Topic: "cooking", Cron: "@daily"}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Trigger("nightly")
	}()
	require.Eventually(t, func() bool { return runner.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run was not cancelled")
	}
}
