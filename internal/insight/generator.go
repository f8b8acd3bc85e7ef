// Package insight turns correlation metrics into marketing insights and PR
// hooks, grounded in brand guideline text.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jonesrussell/cooper/infrastructure/logger"
	"github.com/jonesrussell/cooper/internal/domain"
	"github.com/jonesrussell/cooper/internal/llm"
	"github.com/jonesrussell/cooper/internal/metrics"
)

const (
	DefaultModel = "gpt-4"
	DefaultTopK  = 3

	insightTemperature = 0.7
	hookTemperature    = 0.8

	// HookQuery retrieves the tone and voice guidelines.
	HookQuery = "brand voice tone PR hooks"

	kindInsights = "insights"
	kindHooks    = "hooks"

	outcomeLive     = "live"
	outcomeOffline  = "offline"
	outcomeFallback = "fallback"
)

var (
	cannedInsights = []string{
		"Videos with high joy scores receive 25% more likes than average.",
		"Content with surprise elements generates 40% more comments.",
		"Neutral content performs better for long-term viewer retention.",
	}
	cannedHooks = []string{
		"Discover the emotional secret behind our most engaging content",
		"How we increased engagement by 40% with one simple emotional trigger",
	}

	errEmptyList = errors.New("reply contained no entries")
)

// Config configures a live Generator.
type Config struct {
	Model string
	TopK  int
}

// Generator never returns an error: failures become templated text.
type Generator struct {
	offline   bool
	completer llm.Completer
	retriever Retriever
	model     string
	topK      int
	log       logger.Logger
	metrics   *metrics.Metrics
}

// NewOffline creates a Generator that returns canned text without I/O.
func NewOffline(log logger.Logger, m *metrics.Metrics) *Generator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Generator{offline: true, log: log, metrics: m}
}

// New creates a live Generator. A nil retriever behaves like an empty
// FirstChunks.
func New(cfg Config, completer llm.Completer, retriever Retriever, log logger.Logger, m *metrics.Metrics) *Generator {
	if log == nil {
		log = logger.NewNop()
	}
	if retriever == nil {
		retriever = FirstChunks(nil)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	return &Generator{
		completer: completer,
		retriever: retriever,
		model:     cfg.Model,
		topK:      cfg.TopK,
		log:       log,
		metrics:   m,
	}
}

// Offline reports whether g returns canned text.
func (g *Generator) Offline() bool { return g.offline }

// GenerateInsights returns up to count insights about correlations.
func (g *Generator) GenerateInsights(ctx context.Context, correlations domain.CorrelationMap, count int) []string {
	if count <= 0 {
		return []string{}
	}
	if g.offline {
		g.metrics.ObserveGeneration(kindInsights, outcomeOffline)
		return cycle(cannedInsights, count)
	}

	keys := correlations.Keys()
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, correlations[k]))
	}
	correlationText := strings.Join(lines, "\n")

	guidelines := g.guidelines(ctx, correlationText)
	user := fmt.Sprintf(insightUserTemplate, correlationText, guidelines, count)

	insights, err := g.generate(ctx, kindInsights, insightSystemPrompt, user, insightTemperature)
	if err != nil {
		g.log.Warn("Insight generation failed, using templated insights", logger.Error(err))
		g.metrics.ObserveGeneration(kindInsights, outcomeFallback)
		return truncate(fallbackInsights(keys), count)
	}

	g.metrics.ObserveGeneration(kindInsights, outcomeLive)
	return truncate(insights, count)
}

// SuggestHooks returns up to count PR hooks derived from insights.
func (g *Generator) SuggestHooks(ctx context.Context, insights []string, count int) []string {
	if count <= 0 {
		return []string{}
	}
	if g.offline {
		g.metrics.ObserveGeneration(kindHooks, outcomeOffline)
		return cycle(cannedHooks, count)
	}

	bullets := make([]string, 0, len(insights))
	for _, in := range insights {
		bullets = append(bullets, "- "+in)
	}

	guidelines := g.guidelines(ctx, HookQuery)
	user := fmt.Sprintf(hookUserTemplate, strings.Join(bullets, "\n"), guidelines, count)

	hooks, err := g.generate(ctx, kindHooks, hookSystemPrompt, user, hookTemperature)
	if err != nil {
		g.log.Warn("Hook generation failed, using templated hooks", logger.Error(err))
		g.metrics.ObserveGeneration(kindHooks, outcomeFallback)
		return truncate(fallbackHooks(insights), count)
	}

	g.metrics.ObserveGeneration(kindHooks, outcomeLive)
	return truncate(hooks, count)
}

func (g *Generator) guidelines(ctx context.Context, query string) string {
	chunks, err := g.retriever.Retrieve(ctx, query, g.topK)
	if err != nil {
		g.log.Warn("Guideline retrieval failed", logger.Error(err))
		return ""
	}
	return strings.Join(chunks, "\n\n")
}

func (g *Generator) generate(ctx context.Context, key, system, user string, temperature float64) ([]string, error) {
	reply, err := g.completer.Complete(ctx, llm.Request{
		Model:       g.model,
		System:      system,
		User:        user,
		Temperature: temperature,
	})
	if err != nil {
		return nil, err
	}
	return parseList(reply, key)
}

// parseList reads {"<key>": [...]} or a bare JSON array of strings.
func parseList(reply, key string) ([]string, error) {
	cleaned := llm.StripFences(reply)

	var list []string
	if strings.HasPrefix(cleaned, "[") {
		if err := json.Unmarshal([]byte(cleaned), &list); err != nil {
			return nil, fmt.Errorf("decode %s list: %w", key, err)
		}
	} else {
		var obj map[string]json.RawMessage
		if err := llm.DecodeJSON(cleaned, &obj); err != nil {
			return nil, fmt.Errorf("decode %s reply: %w", key, err)
		}
		raw, ok := obj[key]
		if !ok {
			return nil, fmt.Errorf("reply has no %q field", key)
		}
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decode %s list: %w", key, err)
		}
	}

	out := make([]string, 0, len(list))
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, errEmptyList
	}
	return out, nil
}

func fallbackInsights(keys []string) []string {
	subject := "the correlation data"
	if len(keys) > 0 {
		subject = keys[0]
	}
	return []string{
		fmt.Sprintf("Correlation analysis shows interesting patterns in %s.", subject),
		"There appears to be a relationship between emotions and engagement metrics.",
	}
}

func fallbackHooks(insights []string) []string {
	subject := "our latest insights"
	if len(insights) > 0 {
		subject = prefixRunes(insights[0], 20)
	}
	return []string{
		fmt.Sprintf("New data reveals surprising connection in %s...", subject),
		"How our content strategy revealed unexpected audience preferences",
	}
}

func prefixRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func truncate(items []string, count int) []string {
	n := min(count, len(items))
	out := make([]string, n)
	copy(out, items[:n])
	return out
}

// cycle returns count items, repeating items from the start as needed.
func cycle(items []string, count int) []string {
	out := make([]string, count)
	for i := range out {
		out[i] = items[i%len(items)]
	}
	return out
}
