// Package llm holds the model-provider clients used for classification,
// transcription, embeddings and text generation.
package llm

import (
	"context"
	"errors"
	"io"
)

//go:generate mockgen -destination=mocks/llm_mock.go -package=mocks . Completer,Transcriber,Embedder

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ErrEmptyResponse is returned when a provider replies with no content.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Request is one chat-style completion.
type Request struct {
	// Model overrides the client's default model when set.
	Model       string
	System      string
	User        string
	Temperature float64
	// JSON asks the provider for a JSON object reply where it supports it.
	JSON      bool
	MaxTokens int
}

// Completer generates text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Transcriber turns audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}
