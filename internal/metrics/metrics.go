// Package metrics defines cooper's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsNamespace prefixes every cooper metric.
const MetricsNamespace = "cooper"

// Metrics holds the pipeline collectors. A nil *Metrics records nothing, so
// components can be built without a registry in tests.
type Metrics struct {
	// Scrape metrics
	ScrapeSubmissionsTotal *prometheus.CounterVec
	ScrapePollsTotal       *prometheus.CounterVec
	ScrapeJobDuration      *prometheus.HistogramVec

	// Classification and generation metrics
	ClassificationsTotal *prometheus.CounterVec
	GenerationsTotal     *prometheus.CounterVec
	LLMRequestsTotal     *prometheus.CounterVec
	LLMRequestDuration   *prometheus.HistogramVec

	// Pipeline metrics
	StageDuration      *prometheus.HistogramVec
	RunsTotal          *prometheus.CounterVec
	ScheduledRunsTotal *prometheus.CounterVec
	RunsInFlight       prometheus.Gauge
}

// New creates and registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	m := &Metrics{}

	m.initScrapeMetrics(factory)
	m.initModelMetrics(factory)
	m.initPipelineMetrics(factory)

	return m
}

func (m *Metrics) initScrapeMetrics(factory promauto.Factory) {
	m.ScrapeSubmissionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "scrape",
			Name:      "submissions_total",
			Help:      "Scrape job submissions by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	m.ScrapePollsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "scrape",
			Name:      "polls_total",
			Help:      "Scrape job status polls by backend and observed outcome",
		},
		[]string{"backend", "outcome"},
	)

	m.ScrapeJobDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: "scrape",
			Name:      "job_duration_seconds",
			Help:      "Time from first poll to terminal state",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~8.5min
		},
		[]string{"backend", "state"},
	)
}

func (m *Metrics) initModelMetrics(factory promauto.Factory) {
	m.ClassificationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "emotion",
			Name:      "classifications_total",
			Help:      "Emotion classifications by variant and outcome (live, offline, fallback)",
		},
		[]string{"variant", "outcome"},
	)

	m.GenerationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "insight",
			Name:      "generations_total",
			Help:      "Insight and hook generations by kind and outcome (live, offline, fallback)",
		},
		[]string{"kind", "outcome"},
	)

	m.LLMRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Model API requests by provider, operation and outcome",
		},
		[]string{"provider", "operation", "outcome"},
	)

	m.LLMRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "Model API request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)
}

func (m *Metrics) initPipelineMetrics(factory promauto.Factory) {
	m.StageDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 9), // 10ms to ~11min
		},
		[]string{"stage"},
	)

	m.RunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Analysis runs by outcome",
		},
		[]string{"outcome"},
	)

	m.ScheduledRunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "scheduler",
			Name:      "runs_total",
			Help:      "Scheduled analysis runs by entry and outcome",
		},
		[]string{"entry", "outcome"},
	)

	m.RunsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: "pipeline",
			Name:      "runs_in_flight",
			Help:      "Analysis runs currently executing",
		},
	)
}

// ObserveSubmission counts one scrape submission.
func (m *Metrics) ObserveSubmission(backend, outcome string) {
	if m == nil {
		return
	}
	m.ScrapeSubmissionsTotal.WithLabelValues(backend, outcome).Inc()
}

// ObservePoll counts one status poll.
func (m *Metrics) ObservePoll(backend, outcome string) {
	if m == nil {
		return
	}
	m.ScrapePollsTotal.WithLabelValues(backend, outcome).Inc()
}

// ObserveJob records how long a job took to reach state.
func (m *Metrics) ObserveJob(backend, state string, d time.Duration) {
	if m == nil {
		return
	}
	m.ScrapeJobDuration.WithLabelValues(backend, state).Observe(d.Seconds())
}

// ObserveClassification counts one emotion classification.
func (m *Metrics) ObserveClassification(variant, outcome string) {
	if m == nil {
		return
	}
	m.ClassificationsTotal.WithLabelValues(variant, outcome).Inc()
}

// ObserveGeneration counts one insight or hook generation.
func (m *Metrics) ObserveGeneration(kind, outcome string) {
	if m == nil {
		return
	}
	m.GenerationsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveLLMRequest records one model API call.
func (m *Metrics) ObserveLLMRequest(provider, operation string, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.LLMRequestsTotal.WithLabelValues(provider, operation, outcome).Inc()
	m.LLMRequestDuration.WithLabelValues(provider, operation).Observe(d.Seconds())
}

// ObserveStage records one stage duration.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveRun counts a finished run.
func (m *Metrics) ObserveRun(outcome string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
}

// ObserveScheduledRun counts a scheduled run.
func (m *Metrics) ObserveScheduledRun(entry, outcome string) {
	if m == nil {
		return
	}
	m.ScheduledRunsTotal.WithLabelValues(entry, outcome).Inc()
}

// RunStarted increments the in-flight gauge and returns its decrement.
func (m *Metrics) RunStarted() func() {
	if m == nil {
		return func() {}
	}
	m.RunsInFlight.Inc()
	return m.RunsInFlight.Dec
}
