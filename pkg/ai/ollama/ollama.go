package ollama

import (
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// Client implements ai.Client against an Ollama server, for deployments
// that run embedding and vision models locally.
type Client struct {
	embeddingModel string
	chatModel      string
	visionModel    string

	reqLock *semaphore.Weighted

	Client *api.Client
}

// NewClientParams contains configuration for creating an Ollama-backed Client.
type NewClientParams struct {
	EmbeddingModel string
	ChatModel      string
	VisionModel    string

	BaseURL string
	APIKey  string

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so the original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewClient creates an Ollama-backed Client connected to the server at
// BaseURL (or the default if empty).
func NewClient(params NewClientParams) (*Client, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.APIKey,
			},
			rt: http.DefaultTransport,
		},
	}

	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}

	return &Client{
		embeddingModel: params.EmbeddingModel,
		chatModel:      params.ChatModel,
		visionModel:    params.VisionModel,

		reqLock: semaphore.NewWeighted(maxConcurrent),

		Client: api.NewClient(u, httpClient),
	}, nil
}
