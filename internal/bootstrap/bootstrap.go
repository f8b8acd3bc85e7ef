// Package bootstrap builds cooper's components from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/cooper/infrastructure/circuitbreaker"
	"github.com/jonesrussell/cooper/infrastructure/elasticsearch"
	infraerrors "github.com/jonesrussell/cooper/infrastructure/errors"
	infragin "github.com/jonesrussell/cooper/infrastructure/gin"
	infrahttp "github.com/jonesrussell/cooper/infrastructure/http"
	"github.com/jonesrussell/cooper/infrastructure/logger"
	infraredis "github.com/jonesrussell/cooper/infrastructure/redis"
	"github.com/jonesrussell/cooper/infrastructure/retry"
	"github.com/jonesrussell/cooper/infrastructure/sse"
	"github.com/jonesrussell/cooper/internal/analysis"
	"github.com/jonesrussell/cooper/internal/config"
	"github.com/jonesrussell/cooper/internal/domain"
	"github.com/jonesrussell/cooper/internal/emotion"
	"github.com/jonesrussell/cooper/internal/events"
	"github.com/jonesrussell/cooper/internal/insight"
	"github.com/jonesrussell/cooper/internal/llm"
	"github.com/jonesrussell/cooper/internal/locator"
	"github.com/jonesrussell/cooper/internal/metrics"
	"github.com/jonesrussell/cooper/internal/retrieval"
	"github.com/jonesrussell/cooper/internal/scrape"
)

const (
	// mediaDownloadTimeout bounds fetching audio for transcription.
	mediaDownloadTimeout = 2 * time.Minute
	indexTimeout         = 2 * time.Minute
)

// App holds the wired components. Close releases its connections.
type App struct {
	Config   *config.Config
	Log      logger.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Locator    *locator.Locator
	Scraper    *scrape.Client
	Classifier *emotion.Classifier
	Generator  *insight.Generator
	Publisher  *events.Publisher
	Service    *analysis.Service

	// Broker relays run events to live SSE clients of the serve command.
	Broker *sse.Broker

	// Redis and Elasticsearch are nil when their feature is off or
	// unreachable.
	Redis         *redis.Client
	Elasticsearch *es.Client

	closers []func() error
}

// providers holds the model clients available in live mode.
type providers struct {
	openai    *llm.OpenAI
	anthropic *llm.Anthropic
	guards    map[string]*llm.Guard
}

// New wires every component. Optional dependencies that cannot be reached
// degrade to their fallbacks with a warning instead of failing.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app := &App{
		Config:   cfg,
		Log:      log,
		Registry: reg,
		Metrics:  metrics.New(reg),
		Locator:  locator.New(),
	}

	log.Info("Building components", logger.String("mode", cfg.Mode))

	scraper, err := app.buildScraper()
	if err != nil {
		return nil, infraerrors.WrapWithContext(err, "build scraper")
	}
	app.Scraper = scraper

	p := app.buildProviders()
	app.Classifier = app.buildClassifier(p)
	app.Generator = app.buildGenerator(ctx, p)
	app.Publisher = app.buildPublisher(ctx)
	app.Broker = sse.NewBroker(log)
	app.closers = append(app.closers, app.Broker.Close)

	app.Service = analysis.NewService(analysis.Deps{
		Locator:    app.Locator,
		Scraper:    app.Scraper,
		Classifier: app.Classifier,
		Generator:  app.Generator,
		Events:     events.Fanout{app.Publisher, events.NewRelay(app.Broker)},
		Metrics:    app.Metrics,
	}, JobConfig(cfg.Scrape), log)

	return app, nil
}

// JobConfig converts the scrape settings into job input without URLs.
func JobConfig(s config.ScrapeConfig) domain.ScrapeJobConfig {
	exclude := true
	if s.ExcludePinnedPosts != nil {
		exclude = *s.ExcludePinnedPosts
	}
	return domain.ScrapeJobConfig{
		CommentsPerPost:      s.CommentsPerPost,
		ExcludePinnedPosts:   exclude,
		MaxRepliesPerComment: s.MaxRepliesPerComment,
		ResultsPerPage:       s.ResultsPerPage,
	}
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// HealthChecks returns readiness checks for the external dependencies in use.
func (a *App) HealthChecks() []infragin.Check {
	var checks []infragin.Check
	if a.Redis != nil {
		client := a.Redis
		checks = append(checks, infragin.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
	}
	if a.Elasticsearch != nil {
		client := a.Elasticsearch
		timeout := a.Config.Retrieval.Elasticsearch.PingTimeout
		checks = append(checks, infragin.Check{
			Name: "elasticsearch",
			Ping: func(ctx context.Context) error { return elasticsearch.Ping(ctx, client, timeout) },
		})
	}
	return checks
}

func (a *App) buildScraper() (*scrape.Client, error) {
	cfg := a.Config
	backend, err := a.scrapeBackend()
	if err != nil {
		return nil, err
	}

	submitRetry := retry.DefaultConfig()
	submitRetry.MaxAttempts = cfg.Scrape.SubmitAttempts

	a.Log.Info("Scrape backend selected", logger.String("backend", backend.Name()))
	return scrape.NewClient(backend, scrape.Config{
		PollInterval: cfg.Scrape.PollInterval,
		Timeout:      cfg.Scrape.Timeout,
		SubmitRetry:  submitRetry,
	}, a.Log, a.Metrics), nil
}

func (a *App) scrapeBackend() (scrape.Backend, error) {
	s := a.Config.Scrape
	client := infrahttp.NewClient(nil)

	if !a.Config.Offline() {
		hasApify := s.Apify.Token != "" && s.Apify.TaskID != ""
		switch {
		case s.Backend == config.BackendApify && !hasApify:
			return nil, errors.New("scrape backend apify needs a token and task ID in live mode")
		case s.Backend == config.BackendWebhook && s.WebhookURL == "":
			return nil, errors.New("scrape backend webhook needs a webhook URL in live mode")
		case s.Backend == config.BackendWebhook,
			s.Backend == config.BackendAuto && !hasApify && s.WebhookURL != "":
			return scrape.NewWebhookBackend(s.WebhookURL, client), nil
		case hasApify:
			return scrape.NewApifyBackend(scrape.ApifyConfig{
				BaseURL: s.Apify.BaseURL,
				Token:   s.Apify.Token,
				TaskID:  s.Apify.TaskID,
			}, client), nil
		default:
			a.Log.Warn("No scrape credentials configured, serving scrape fixtures")
		}
	}

	backend, err := scrape.NewFixtureBackend(s.FixturePath)
	if err != nil {
		return nil, fmt.Errorf("build fixture backend: %w", err)
	}
	return backend, nil
}

func (a *App) buildProviders() providers {
	p := providers{guards: make(map[string]*llm.Guard)}
	if a.Config.Offline() {
		return p
	}

	l := a.Config.LLM
	if l.OpenAIAPIKey != "" {
		p.openai = llm.NewOpenAI(llm.OpenAIConfig{
			APIKey:         l.OpenAIAPIKey,
			BaseURL:        l.OpenAIBaseURL,
			Model:          l.ClassifyModel,
			EmbeddingModel: l.EmbeddingModel,
		})
		p.guards[llm.ProviderOpenAI] = a.guard(llm.ProviderOpenAI)
	}
	if l.AnthropicAPIKey != "" {
		p.anthropic = llm.NewAnthropic(llm.AnthropicConfig{
			APIKey: l.AnthropicAPIKey,
			Model:  l.AnthropicModel,
		})
		p.guards[llm.ProviderAnthropic] = a.guard(llm.ProviderAnthropic)
	}
	return p
}

func (a *App) guard(provider string) *llm.Guard {
	l := a.Config.LLM
	log := a.Log.With(logger.String("provider", provider))

	breaker := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: l.BreakerFailures,
		SuccessThreshold: 1,
		Timeout:          l.BreakerCooldown,
		OnStateChange: func(from, to circuitbreaker.State) {
			log.Warn("Model circuit breaker state changed",
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	return llm.NewGuard(provider, breaker, l.RequestTimeout, a.Metrics)
}

// completer returns the guarded text generator for the configured
// provider, or nil when its credential is missing.
func (p providers) completer(provider string) llm.Completer {
	switch provider {
	case llm.ProviderAnthropic:
		if p.anthropic != nil {
			return p.guards[llm.ProviderAnthropic].Completer(p.anthropic)
		}
	default:
		if p.openai != nil {
			return p.guards[llm.ProviderOpenAI].Completer(p.openai)
		}
	}
	return nil
}

func (a *App) buildClassifier(p providers) *emotion.Classifier {
	if a.Config.Offline() {
		return emotion.NewOffline(a.Log, a.Metrics)
	}

	completer := p.completer(a.Config.LLM.Provider)
	if completer == nil {
		a.Log.Warn("No credential for the configured model provider, emotion classification runs offline",
			logger.String("provider", a.Config.LLM.Provider))
		return emotion.NewOffline(a.Log, a.Metrics)
	}

	var transcriber llm.Transcriber
	if p.openai != nil {
		transcriber = p.guards[llm.ProviderOpenAI].Transcriber(p.openai)
	} else {
		a.Log.Warn("OpenAI API key missing, audio is classified from a placeholder transcript")
	}

	return emotion.New(emotion.Config{
		Model:      a.Config.LLM.ClassifyModel,
		HTTPClient: infrahttp.NewClient(&infrahttp.ClientConfig{Timeout: mediaDownloadTimeout}),
	}, completer, transcriber, a.Log, a.Metrics)
}

func (a *App) buildGenerator(ctx context.Context, p providers) *insight.Generator {
	if a.Config.Offline() {
		return insight.NewOffline(a.Log, a.Metrics)
	}

	completer := p.completer(a.Config.LLM.Provider)
	if completer == nil {
		a.Log.Warn("No credential for the configured model provider, insights are canned",
			logger.String("provider", a.Config.LLM.Provider))
		return insight.NewOffline(a.Log, a.Metrics)
	}

	chunks := a.guidelineChunks()
	return insight.New(insight.Config{
		Model: a.Config.LLM.InsightModel,
		TopK:  a.Config.Retrieval.TopK,
	}, completer, a.buildRetriever(ctx, p, chunks), a.Log, a.Metrics)
}

func (a *App) guidelineChunks() []string {
	text := insight.DefaultGuidelines
	if path := a.Config.Guidelines.Path; path != "" {
		loaded, err := insight.LoadGuidelines(path)
		if err != nil {
			a.Log.Warn("Loading guidelines failed, using built-in guidelines",
				logger.String("path", path), logger.Error(err))
		} else {
			text = loaded
		}
	}
	return insight.SplitChunks(text)
}

// buildRetriever indexes the guideline chunks in Elasticsearch. Without
// retrieval, or when indexing fails, the first chunks are used as context.
func (a *App) buildRetriever(ctx context.Context, p providers, chunks []string) insight.Retriever {
	r := a.Config.Retrieval
	if !r.Enabled {
		return insight.FirstChunks(chunks)
	}
	if p.openai == nil {
		a.Log.Warn("Retrieval needs an OpenAI API key for embeddings, using leading guideline chunks")
		return insight.FirstChunks(chunks)
	}

	client, err := elasticsearch.NewClient(ctx, r.Elasticsearch, a.Log)
	if err != nil {
		a.Log.Warn("Elasticsearch unavailable, using leading guideline chunks", logger.Error(err))
		return insight.FirstChunks(chunks)
	}
	a.Elasticsearch = client

	indexCtx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	store := retrieval.NewStore(client, r.Index)
	embedder := p.guards[llm.ProviderOpenAI].Embedder(p.openai)
	retriever, err := retrieval.NewRetriever(indexCtx, store, embedder, chunks, a.Log)
	if err != nil {
		a.Log.Warn("Indexing guidelines failed, using leading guideline chunks", logger.Error(err))
		return insight.FirstChunks(chunks)
	}
	return retriever
}

func (a *App) buildPublisher(ctx context.Context) *events.Publisher {
	e := a.Config.Events
	if !e.Enabled {
		return nil
	}
	if a.Config.Offline() {
		a.Log.Info("Run events are disabled in offline mode")
		return nil
	}

	client, err := infraredis.NewClient(ctx, e.Redis)
	if err != nil {
		a.Log.Warn("Redis unavailable, run events are disabled", logger.Error(err))
		return nil
	}
	a.Redis = client
	a.closers = append(a.closers, client.Close)

	a.Log.Info("Publishing run events",
		logger.String("address", e.Redis.Address),
		logger.String("stream", e.Stream),
	)
	return events.NewPublisher(client, e.Stream, a.Log)
}
