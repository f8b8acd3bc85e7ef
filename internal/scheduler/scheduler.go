// Package scheduler runs analyses on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	infraerrors "github.com/jonesrussell/cooper/infrastructure/errors"
	"github.com/jonesrussell/cooper/infrastructure/logger"
	"github.com/jonesrussell/cooper/internal/analysis"
	"github.com/jonesrussell/cooper/internal/config"
	"github.com/jonesrussell/cooper/internal/domain"
	"github.com/jonesrussell/cooper/internal/metrics"
)

// ErrUnknownEntry is returned by Trigger for a name that was never added.
var ErrUnknownEntry = errors.New("unknown schedule entry")

// Runner executes one analysis.
type Runner interface {
	Run(ctx context.Context, req analysis.Request) (*domain.Report, error)
}

// EntryInfo describes a registered entry.
type EntryInfo struct {
	Name string    `json:"name"`
	Cron string    `json:"cron"`
	Next time.Time `json:"next"`
}

type entry struct {
	cfg config.ScheduleEntry
	id  cron.EntryID
	job cron.Job
}

// Scheduler fires analysis runs for configured entries. Fires of an entry
// that overlap a still-running fire of the same entry are skipped.
type Scheduler struct {
	runner  Runner
	log     logger.Logger
	metrics *metrics.Metrics

	cron   *cron.Cron
	parser cron.Parser
	clog   cron.Logger

	mu      sync.RWMutex
	entries map[string]*entry

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a stopped Scheduler.
func New(runner Runner, log logger.Logger, m *metrics.Metrics) *Scheduler {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With(logger.String("component", "scheduler"))

	// five-field specs plus descriptors such as @hourly and @every 10m
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	clog := cronLogger{log: log}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner:  runner,
		log:     log,
		metrics: m,
		cron:    c,
		parser:  parser,
		clog:    clog,
		entries: make(map[string]*entry),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add registers e. Names must be unique.
func (s *Scheduler) Add(e config.ScheduleEntry) error {
	if _, err := s.parser.Parse(e.Cron); err != nil {
		return infraerrors.WrapWithContextf(err, "schedule %q: parse cron %q", e.Name, e.Cron)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[e.Name]; exists {
		return fmt.Errorf("schedule %q: duplicate name", e.Name)
	}

	job := cron.NewChain(cron.SkipIfStillRunning(s.clog)).Then(cron.FuncJob(func() {
		s.fire(e)
	}))

	id, err := s.cron.AddJob(e.Cron, job)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", e.Name, err)
	}

	s.entries[e.Name] = &entry{cfg: e, id: id, job: job}
	s.log.Info("Schedule entry added",
		logger.String("entry", e.Name),
		logger.String("topic", e.Topic),
		logger.String("cron", e.Cron),
	)
	return nil
}

// Start begins firing entries.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started", logger.Int("entries", s.Len()))
}

// Stop cancels in-flight runs and waits for them to return or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.log.Info("Stopping scheduler")
	s.cancel()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

// Trigger fires the named entry now, through the same overlap guard as
// scheduled fires. It blocks until the run ends or is skipped.
func (s *Scheduler) Trigger(name string) error {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntry, name)
	}

	e.job.Run()
	return nil
}

// Len returns the number of registered entries.
func (s *Scheduler) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Entries lists registered entries by name with their next fire time. Next
// is zero until the scheduler is started.
func (s *Scheduler) Entries() []EntryInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]EntryInfo, 0, len(s.entries))
	for name, e := range s.entries {
		infos = append(infos, EntryInfo{
			Name: name,
			Cron: e.cfg.Cron,
			Next: s.cron.Entry(e.id).Next,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func (s *Scheduler) fire(e config.ScheduleEntry) {
	log := s.log.With(logger.String("entry", e.Name))
	log.Info("Scheduled run triggered", logger.String("topic", e.Topic))

	start := time.Now()
	report, err := s.runner.Run(s.ctx, analysis.Request{
		Query:    e.Topic,
		URL:      e.URL,
		Limit:    e.Limit,
		Schedule: e.Name,
	})
	elapsed := time.Since(start)

	if err != nil {
		outcome := analysis.KindOf(err).String()
		s.metrics.ObserveScheduledRun(e.Name, outcome)
		log.Error("Scheduled run failed",
			logger.String("outcome", outcome),
			logger.Duration("duration", elapsed),
			logger.Error(err),
		)
		return
	}

	s.metrics.ObserveScheduledRun(e.Name, "success")
	log.Info("Scheduled run completed",
		logger.String("run_id", report.RunID),
		logger.Int("videos", len(report.Videos)),
		logger.Strings("insights", report.Insights),
		logger.Duration("duration", elapsed),
	)
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, fields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(fields(keysAndValues), logger.Error(err))...)
}

func fields(keysAndValues []any) []logger.Field {
	out := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		out = append(out, logger.Any(key, keysAndValues[i+1]))
	}
	return out
}
