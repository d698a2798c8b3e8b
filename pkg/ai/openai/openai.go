package openai

import (
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

const defaultMaxConcurrentRequests = 4

// Client talks to OpenAI-compatible endpoints for embeddings, vision and
// structured chat completions. Separate endpoints may be configured per
// concern so that, for example, embeddings can run against a local server
// while chat goes to a hosted API.
type Client struct {
	embeddingModel string
	chatModel      string
	visionModel    string

	chatURL string

	reqLock *semaphore.Weighted

	EmbeddingClient *openai.Client
	ChatClient      *openai.Client
	VisionClient    *openai.Client
}

// NewClientParams defines the configuration for creating a Client.
type NewClientParams struct {
	EmbeddingModel string
	ChatModel      string
	VisionModel    string

	EmbeddingURL string
	EmbeddingKey string
	ChatURL      string
	ChatKey      string
	VisionURL    string
	VisionKey    string

	MaxConcurrentRequests int64
}

// NewClient creates a Client configured with the provided parameters.
func NewClient(params NewClientParams) *Client {
	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrentRequests
	}

	return &Client{
		embeddingModel: params.EmbeddingModel,
		chatModel:      params.ChatModel,
		visionModel:    params.VisionModel,

		chatURL: params.ChatURL,

		reqLock: semaphore.NewWeighted(maxConcurrent),

		EmbeddingClient: newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey),
		ChatClient:      newOpenaiClient(params.ChatURL, params.ChatKey),
		VisionClient:    newOpenaiClient(params.VisionURL, params.VisionKey),
	}
}

func newOpenaiClient(baseURL string, apiKey string) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}
