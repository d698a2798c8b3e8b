package ai

import (
	"context"
	"errors"
)

// ErrEmbeddingGenerationFailed indicates the embedding backend returned no
// usable vector data. Callers treat this as fatal for the node being
// embedded; there is no partial-success mode.
var ErrEmbeddingGenerationFailed = errors.New("embedding generation failed")

// Base64Image is a base64-encoded image with its data-URL prefix, suitable
// for vision model requests.
type Base64Image struct {
	Base64   string `json:"base64"`
	FileType string `json:"file_type"`
}

// GenerateOptions holds configuration for AI generation requests.
type GenerateOptions struct {
	Model         string   // Model identifier to use for generation
	SystemPrompts []string // System prompts prepended to the request
	Temperature   float64  // Sampling temperature (0.0-2.0)
}

// GenerateOption is a functional option for configuring AI generation requests.
type GenerateOption func(*GenerateOptions)

// WithModel returns a GenerateOption that sets the model to use for generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts returns a GenerateOption that sets the system prompts
// to prepend to the generation request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature returns a GenerateOption that sets the sampling temperature.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// Client defines the AI operations the ingestion pipeline consumes:
// text embedding, image transcription (OCR), and structured completion
// for concept extraction.
type Client interface {
	// GenerateEmbedding maps text to a fixed-length vector. The
	// dimensionality is constant per deployment. Returns
	// ErrEmbeddingGenerationFailed when the backend response carries no data.
	GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error)

	// GenerateImageDescription sends a vision request with a base64-encoded
	// image and returns the model's textual rendition of its content.
	GenerateImageDescription(ctx context.Context, prompt string, image Base64Image) (string, error)

	// GenerateCompletionWithFormat sends a prompt to the chat model and
	// unmarshals the structured JSON response into out. The JSON schema is
	// derived from out's type.
	GenerateCompletionWithFormat(
		ctx context.Context,
		name string,
		description string,
		prompt string,
		out any,
		opts ...GenerateOption,
	) error
}
