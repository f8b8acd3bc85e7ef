// Package analysis runs the cooper pipeline: locate videos, scrape them,
// classify emotions, correlate with engagement and generate insights.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	infraevents "github.com/jonesrussell/cooper/infrastructure/events"
	"github.com/jonesrussell/cooper/infrastructure/logger"
	"github.com/jonesrussell/cooper/internal/correlate"
	"github.com/jonesrussell/cooper/internal/domain"
	"github.com/jonesrussell/cooper/internal/events"
	"github.com/jonesrussell/cooper/internal/metrics"
	"github.com/jonesrussell/cooper/internal/scrape"
)

const (
	DefaultLimit = 10
	MaxLimit     = 20

	insightCount = 3
	hookCount    = 2
)

// Stage names used in errors, metrics and events.
const (
	StageValidate  = "validate"
	StageLocate    = "locate"
	StageScrape    = "scrape"
	StageText      = "text_emotion"
	StageAudio     = "audio_emotion"
	StageCorrelate = "correlate"
	StageInsights  = "insights"
	StageHooks     = "hooks"
)

// mediaKeys are the metadata fields that may carry a downloadable media URL,
// in lookup order.
var mediaKeys = []string{
	"audioUrl", "musicUrl", "videoUrl", "video_url",
	"downloadUrl", "download_url", "videoPlayUrl",
}

// Locator resolves a topic or direct link into video URLs.
type Locator interface {
	Locate(topic, directURL string) []string
}

// Scraper runs a scrape job to completion.
type Scraper interface {
	Run(ctx context.Context, cfg domain.ScrapeJobConfig) ([]domain.VideoRecord, error)
}

// Classifier scores comment text and audio.
type Classifier interface {
	Classify(ctx context.Context, text string) domain.EmotionScores
	ClassifyAudio(ctx context.Context, source string) domain.EmotionScores
}

// Generator writes insights and PR hooks.
type Generator interface {
	GenerateInsights(ctx context.Context, correlations domain.CorrelationMap, count int) []string
	SuggestHooks(ctx context.Context, insights []string, count int) []string
}

// Request describes one run. Limit 0 means DefaultLimit.
type Request struct {
	Query string
	Limit int
	URL   string
	// Schedule names the scheduler entry that started the run, if any.
	Schedule string
}

// Deps are the pipeline components. Events and Metrics may be nil.
type Deps struct {
	Locator    Locator
	Scraper    Scraper
	Classifier Classifier
	Generator  Generator
	Events     events.Sink
	Metrics    *metrics.Metrics
}

// Service orchestrates analysis runs. It is safe for concurrent use.
type Service struct {
	deps Deps
	job  domain.ScrapeJobConfig
	log  logger.Logger
}

// NewService creates a Service. job supplies the scrape job settings; its
// PostURLs are replaced on every run.
func NewService(deps Deps, job domain.ScrapeJobConfig, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{deps: deps, job: job, log: log}
}

// Run executes the pipeline for req. Errors are *StageError.
func (s *Service) Run(ctx context.Context, req Request) (*domain.Report, error) {
	limit, err := req.validate()
	if err != nil {
		s.deps.Metrics.ObserveRun(KindInvalidRequest.String())
		return nil, &StageError{Stage: StageValidate, Kind: KindInvalidRequest, Err: err}
	}

	r := &run{
		svc:   s,
		id:    uuid.New(),
		req:   req,
		limit: limit,
	}
	r.log = s.log.With(
		logger.String("run_id", r.id.String()),
		logger.String("query", req.Query),
	)
	ctx = logger.WithContext(ctx, r.log)

	done := s.deps.Metrics.RunStarted()
	defer done()

	start := time.Now()
	r.log.Info("Analysis run started", logger.String("url", req.URL), logger.Int("limit", limit))
	r.publish(ctx, infraevents.RunStarted, infraevents.RunPayload{})

	report, err := r.execute(ctx)
	elapsed := time.Since(start)
	if err != nil {
		kind := KindOf(err)
		s.deps.Metrics.ObserveRun(kind.String())
		r.log.Error("Analysis run failed",
			logger.String("kind", kind.String()),
			logger.Duration("duration", elapsed),
			logger.Error(err),
		)
		r.publish(ctx, infraevents.RunFailed, infraevents.RunPayload{
			DurationMS: elapsed.Milliseconds(),
			Error:      err.Error(),
		})
		return nil, err
	}

	s.deps.Metrics.ObserveRun("success")
	r.log.Info("Analysis run completed",
		logger.Int("videos", len(report.Videos)),
		logger.Duration("duration", elapsed),
	)
	r.publish(ctx, infraevents.RunCompleted, infraevents.RunPayload{
		VideoCount: len(report.Videos),
		DurationMS: elapsed.Milliseconds(),
		Insights:   report.Insights,
	})
	return report, nil
}

func (req Request) validate() (int, error) {
	if strings.TrimSpace(req.Query) == "" && req.URL == "" {
		return 0, ErrMissingQuery
	}
	if req.Limit == 0 {
		return DefaultLimit, nil
	}
	if req.Limit < 1 || req.Limit > MaxLimit {
		return 0, ErrInvalidLimit
	}
	return req.Limit, nil
}

// run carries the state of one execution.
type run struct {
	svc   *Service
	id    uuid.UUID
	req   Request
	limit int
	log   logger.Logger
}

func (r *run) execute(ctx context.Context) (*domain.Report, error) {
	deps := r.svc.deps

	var videos []string
	_ = r.stage(ctx, StageLocate, func() (int, error) {
		videos = deps.Locator.Locate(r.req.Query, r.req.URL)
		if len(videos) > r.limit {
			videos = videos[:r.limit]
		}
		return len(videos), nil
	})
	if len(videos) == 0 {
		return nil, &StageError{Stage: StageLocate, Kind: KindNotFound, Err: ErrNoVideos}
	}

	var records []domain.VideoRecord
	err := r.stage(ctx, StageScrape, func() (int, error) {
		job := r.svc.job
		job.PostURLs = videos

		var err error
		records, err = deps.Scraper.Run(ctx, job)
		return len(records), err
	})
	if err != nil {
		return nil, scrapeError(err)
	}
	if len(records) == 0 {
		return nil, &StageError{Stage: StageScrape, Kind: KindNotFound, Err: ErrNoRecords}
	}

	var text, audio domain.EmotionScores
	_ = r.stage(ctx, StageText, func() (int, error) {
		text = deps.Classifier.Classify(ctx, joinComments(records))
		return 0, nil
	})
	_ = r.stage(ctx, StageAudio, func() (int, error) {
		source := MediaSource(records)
		r.log.Debug("Audio source selected", logger.String("source", source))
		audio = deps.Classifier.ClassifyAudio(ctx, source)
		return 0, nil
	})

	var correlations domain.CorrelationMap
	_ = r.stage(ctx, StageCorrelate, func() (int, error) {
		correlations = correlate.Correlate(records, text, audio)
		return len(correlations), nil
	})

	var insights, hooks []string
	_ = r.stage(ctx, StageInsights, func() (int, error) {
		insights = deps.Generator.GenerateInsights(ctx, correlations, insightCount)
		return len(insights), nil
	})
	_ = r.stage(ctx, StageHooks, func() (int, error) {
		hooks = deps.Generator.SuggestHooks(ctx, insights, hookCount)
		return len(hooks), nil
	})

	return &domain.Report{
		RunID:        r.id.String(),
		Videos:       videos,
		Emotions:     domain.EmotionPair{Text: text, Audio: audio},
		Correlations: correlations,
		Insights:     insights,
		PRHooks:      hooks,
	}, nil
}

// stage times fn, records the duration and announces the outcome. fn
// returns a count reported as video_count on the event.
func (r *run) stage(ctx context.Context, name string, fn func() (int, error)) error {
	start := time.Now()
	count, err := fn()
	elapsed := time.Since(start)

	r.svc.deps.Metrics.ObserveStage(name, elapsed)

	payload := infraevents.RunPayload{
		Stage:      name,
		VideoCount: count,
		DurationMS: elapsed.Milliseconds(),
	}
	if err != nil {
		payload.Error = err.Error()
		r.log.Warn("Stage failed", logger.String("stage", name), logger.Error(err))
		r.publish(ctx, infraevents.StageFailed, payload)
		return err
	}

	r.log.Debug("Stage completed",
		logger.String("stage", name),
		logger.Duration("duration", elapsed),
	)
	r.publish(ctx, infraevents.StageCompleted, payload)
	return nil
}

func (r *run) publish(ctx context.Context, eventType infraevents.EventType, payload infraevents.RunPayload) {
	payload.Query = r.req.Query
	payload.URL = r.req.URL
	payload.Schedule = r.req.Schedule

	if r.svc.deps.Events == nil {
		return
	}
	r.svc.deps.Events.Publish(ctx, infraevents.RunEvent{
		EventID:   uuid.New(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		RunID:     r.id,
		Payload:   payload,
	})
}

func scrapeError(err error) error {
	var timeout *scrape.JobTimeoutError
	if errors.As(err, &timeout) {
		return &StageError{Stage: StageScrape, Kind: KindGatewayTimeout, Err: err}
	}
	return &StageError{
		Stage: StageScrape,
		Kind:  KindBadGateway,
		Err:   fmt.Errorf("error during scraping: %w", err),
	}
}

func joinComments(records []domain.VideoRecord) string {
	var comments []string
	for _, rec := range records {
		comments = append(comments, rec.Comments...)
	}
	return strings.Join(comments, "\n")
}

// MediaSource picks the audio to transcribe: the first media URL found in
// any record's metadata, otherwise the first record's URL.
func MediaSource(records []domain.VideoRecord) string {
	for _, rec := range records {
		for _, key := range mediaKeys {
			if u, ok := rec.Metadata[key].(string); ok && strings.TrimSpace(u) != "" {
				return u
			}
		}
	}
	for _, rec := range records {
		if rec.URL != "" {
			return rec.URL
		}
	}
	return ""
}
