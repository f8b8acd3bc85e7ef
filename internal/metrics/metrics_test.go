package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/cooper/internal/metrics"
)

func TestMetrics_Records(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())

	m.ObservePoll("apify", "running")
	m.ObservePoll("apify", "running")
	m.ObserveClassification("text", "fallback")
	m.ObserveLLMRequest("openai", "complete", errors.New("boom"), time.Second)
	done := m.RunStarted()

	assert.InDelta(t, 2, testutil.ToFloat64(m.ScrapePollsTotal.WithLabelValues("apify", "running")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ClassificationsTotal.WithLabelValues("text", "fallback")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("openai", "complete", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RunsInFlight), 0)

	done()
	assert.InDelta(t, 0, testutil.ToFloat64(m.RunsInFlight), 0)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.ObservePoll("webhook", "error")
		m.ObserveStage("scrape", time.Second)
		m.ObserveRun("ok")
		m.RunStarted()()
	})
}
