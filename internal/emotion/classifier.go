// Package emotion scores text and audio against the seven-label emotion set.
package emotion

import (
	"context"
	"net/http"

	"github.com/jonesrussell/cooper/infrastructure/logger"
	"github.com/jonesrussell/cooper/internal/domain"
	"github.com/jonesrussell/cooper/internal/llm"
	"github.com/jonesrussell/cooper/internal/metrics"
)

const (
	DefaultModel = "gpt-3.5-turbo"

	// OfflineTranscript stands in for speech-to-text when offline.
	OfflineTranscript = "I'm really excited about this project. It's going to be amazing!"
	// TranscriptionFallback replaces the transcript when transcription fails.
	TranscriptionFallback = "Error transcribing audio. Using fallback text for analysis."

	variantText  = "text"
	variantAudio = "audio"

	outcomeLive     = "live"
	outcomeOffline  = "offline"
	outcomeFallback = "fallback"
)

const systemPrompt = `You are an expert in emotion analysis. Analyze the following %s and determine the emotional content.
Return a JSON object with the following emotions and their corresponding confidence scores (0.0-1.0):
- joy
- sadness
- anger
- fear
- surprise
- disgust
- neutral

The scores should sum to 1.0.
Only return the JSON object, nothing else.`

// OfflineTextScores are returned for every text classification when offline.
func OfflineTextScores() domain.EmotionScores {
	return domain.EmotionScores{
		domain.Joy:      0.8,
		domain.Sadness:  0.1,
		domain.Anger:    0.05,
		domain.Fear:     0.03,
		domain.Surprise: 0.02,
		domain.Disgust:  0,
		domain.Neutral:  0,
	}
}

// OfflineAudioScores are returned for every audio classification when offline.
func OfflineAudioScores() domain.EmotionScores {
	return domain.EmotionScores{
		domain.Joy:      0.7,
		domain.Sadness:  0.1,
		domain.Anger:    0.1,
		domain.Fear:     0.05,
		domain.Surprise: 0.05,
		domain.Disgust:  0,
		domain.Neutral:  0,
	}
}

// Config configures a live Classifier.
type Config struct {
	Model string
	// MaxAudioBytes caps a downloaded or opened media file.
	MaxAudioBytes int64
	// HTTPClient fetches remote media; nil uses a default client.
	HTTPClient *http.Client
}

// Classifier never returns an error: failures become the neutral fallback.
type Classifier struct {
	offline     bool
	completer   llm.Completer
	transcriber llm.Transcriber
	model       string
	media       *mediaOpener
	log         logger.Logger
	metrics     *metrics.Metrics
}

// NewOffline creates a Classifier that returns canned scores without I/O.
func NewOffline(log logger.Logger, m *metrics.Metrics) *Classifier {
	if log == nil {
		log = logger.NewNop()
	}
	return &Classifier{offline: true, log: log, metrics: m}
}

// New creates a live Classifier. A nil transcriber makes every audio
// classification use TranscriptionFallback as its transcript.
func New(cfg Config, completer llm.Completer, transcriber llm.Transcriber, log logger.Logger, m *metrics.Metrics) *Classifier {
	if log == nil {
		log = logger.NewNop()
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Classifier{
		completer:   completer,
		transcriber: transcriber,
		model:       model,
		media:       newMediaOpener(cfg.HTTPClient, cfg.MaxAudioBytes),
		log:         log,
		metrics:     m,
	}
}

// Offline reports whether the classifier returns canned scores.
func (c *Classifier) Offline() bool { return c.offline }

// Classify scores text, typically all comments joined by newlines.
func (c *Classifier) Classify(ctx context.Context, text string) domain.EmotionScores {
	if c.offline {
		c.metrics.ObserveClassification(variantText, outcomeOffline)
		return OfflineTextScores()
	}
	return c.classify(ctx, variantText, "text", text)
}

// ClassifyAudio transcribes the media at source (an http(s) URL or a file
// path) and scores the transcript.
func (c *Classifier) ClassifyAudio(ctx context.Context, source string) domain.EmotionScores {
	if c.offline {
		c.log.Debug("Offline transcript used", logger.String("transcript", OfflineTranscript))
		c.metrics.ObserveClassification(variantAudio, outcomeOffline)
		return OfflineAudioScores()
	}

	transcript := c.transcribe(ctx, source)
	if transcript == "" {
		c.log.Info("Empty transcript, using neutral scores", logger.String("source", source))
		c.metrics.ObserveClassification(variantAudio, outcomeFallback)
		return domain.NeutralScores()
	}
	return c.classify(ctx, variantAudio, "audio transcript", "Audio transcript: "+transcript)
}

func (c *Classifier) transcribe(ctx context.Context, source string) string {
	if c.transcriber == nil {
		return TranscriptionFallback
	}

	media, err := c.media.open(ctx, source)
	if err != nil {
		c.log.Warn("Opening audio source failed", logger.String("source", source), logger.Error(err))
		return TranscriptionFallback
	}
	defer media.Close()

	transcript, err := c.transcriber.Transcribe(ctx, media, media.name)
	if err != nil {
		c.log.Warn("Transcription failed", logger.String("source", source), logger.Error(err))
		return TranscriptionFallback
	}
	return transcript
}

func (c *Classifier) classify(ctx context.Context, variant, subject, input string) domain.EmotionScores {
	reply, err := c.completer.Complete(ctx, llm.Request{
		Model:       c.model,
		System:      sprintfPrompt(subject),
		User:        input,
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		c.log.Warn("Emotion classification call failed", logger.String("variant", variant), logger.Error(err))
		c.metrics.ObserveClassification(variant, outcomeFallback)
		return domain.NeutralScores()
	}

	scores, err := ParseScores(reply)
	if err != nil {
		c.log.Warn("Emotion classification reply rejected",
			logger.String("variant", variant),
			logger.Error(err),
		)
		c.metrics.ObserveClassification(variant, outcomeFallback)
		return domain.NeutralScores()
	}

	c.metrics.ObserveClassification(variant, outcomeLive)
	return scores
}
