package llm

import (
	"context"
	"io"
	"time"

	"github.com/jonesrussell/cooper/infrastructure/circuitbreaker"
	"github.com/jonesrussell/cooper/internal/metrics"
)

// Operation labels for metrics.
const (
	OpComplete   = "complete"
	OpTranscribe = "transcribe"
	OpEmbed      = "embed"
)

// Guard runs provider calls through a circuit breaker and a per-call
// timeout, and records them in metrics. An open breaker fails fast with
// circuitbreaker.ErrCircuitOpen.
type Guard struct {
	provider string
	breaker  *circuitbreaker.Breaker
	timeout  time.Duration
	metrics  *metrics.Metrics
}

// NewGuard creates a Guard. breaker and m may be nil; timeout <= 0 disables
// the per-call timeout.
func NewGuard(provider string, breaker *circuitbreaker.Breaker, timeout time.Duration, m *metrics.Metrics) *Guard {
	return &Guard{provider: provider, breaker: breaker, timeout: timeout, metrics: m}
}

func (g *Guard) do(ctx context.Context, op string, fn func(context.Context) error) error {
	start := time.Now()

	call := func(ctx context.Context) error {
		if g.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		return fn(ctx)
	}

	var err error
	if g.breaker != nil {
		err = g.breaker.Execute(ctx, call)
	} else {
		err = call(ctx)
	}

	g.metrics.ObserveLLMRequest(g.provider, op, err, time.Since(start))
	return err
}

// Completer wraps c.
func (g *Guard) Completer(c Completer) Completer { return &guardedCompleter{g: g, next: c} }

// Transcriber wraps t.
func (g *Guard) Transcriber(t Transcriber) Transcriber { return &guardedTranscriber{g: g, next: t} }

// Embedder wraps e.
func (g *Guard) Embedder(e Embedder) Embedder { return &guardedEmbedder{g: g, next: e} }

type guardedCompleter struct {
	g    *Guard
	next Completer
}

func (c *guardedCompleter) Complete(ctx context.Context, req Request) (string, error) {
	var out string
	err := c.g.do(ctx, OpComplete, func(ctx context.Context) error {
		var callErr error
		out, callErr = c.next.Complete(ctx, req)
		return callErr
	})
	return out, err
}

type guardedTranscriber struct {
	g    *Guard
	next Transcriber
}

func (t *guardedTranscriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	var out string
	err := t.g.do(ctx, OpTranscribe, func(ctx context.Context) error {
		var callErr error
		out, callErr = t.next.Transcribe(ctx, audio, filename)
		return callErr
	})
	return out, err
}

type guardedEmbedder struct {
	g    *Guard
	next Embedder
}

func (e *guardedEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	var out [][]float64
	err := e.g.do(ctx, OpEmbed, func(ctx context.Context) error {
		var callErr error
		out, callErr = e.next.Embed(ctx, texts)
		return callErr
	})
	return out, err
}
