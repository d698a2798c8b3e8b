package ollama

import (
	"context"
	"encoding/base64"

	"github.com/ollama/ollama/api"

	"github.com/corvid-labs/lodestone/pkg/ai"
)

// GenerateImageDescription sends a vision chat request with a base64 image
// and returns the model's textual description.
func (c *Client) GenerateImageDescription(
	ctx context.Context,
	prompt string,
	image ai.Base64Image,
) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(image.Base64)
	if err != nil {
		return "", err
	}

	stream := false
	req := &api.ChatRequest{
		Model: c.visionModel,
		Messages: []api.Message{
			{Role: "system", Content: prompt},
			{
				Role:   "user",
				Images: []api.ImageData{raw},
			},
		},
		Stream: &stream,
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.reqLock.Release(1)

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final = cr
		return nil
	}); err != nil {
		return "", err
	}

	return final.Message.Content, nil
}
