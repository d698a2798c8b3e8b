package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"

	"github.com/corvid-labs/lodestone/internal/util"
	"github.com/corvid-labs/lodestone/pkg/ai"
)

const (
	defaultDimensions = 1536
	embeddingTimeout  = 2 * time.Minute
)

// GenerateEmbedding creates a vector embedding for the given input text
// using the configured embedding model.
//
// Empty input yields a zero vector of the configured dimensionality rather
// than a request to the backend. A response without data is reported as
// ai.ErrEmbeddingGenerationFailed.
func (c *Client) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	dim := int(util.GetEnvNumeric("AI_EMBED_DIM", defaultDimensions))
	if len(strings.TrimSpace(string(input))) == 0 {
		return make([]float32, dim), nil
	}

	rCtx, cancel := context.WithTimeout(ctx, embeddingTimeout)
	defer cancel()

	body := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(string(input))},
		Model: c.embeddingModel,
	}

	if err := c.reqLock.Acquire(rCtx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	response, err := c.EmbeddingClient.Embeddings.New(rCtx, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrEmbeddingGenerationFailed, err)
	}
	if len(response.Data) == 0 {
		return nil, fmt.Errorf("%w: response contains no data", ai.ErrEmbeddingGenerationFailed)
	}

	raw := response.Data[0].Embedding
	vec := make([]float32, 0, dim)
	for _, v := range raw {
		if len(vec) >= dim {
			break
		}
		vec = append(vec, float32(v))
	}
	if len(vec) < dim {
		padded := make([]float32, dim)
		copy(padded, vec)
		vec = padded
	}

	return vec, nil
}
