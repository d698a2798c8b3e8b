package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"

	"github.com/corvid-labs/lodestone/pkg/ai"
)

// GenerateImageDescription sends a vision request with a base64-encoded image
// and returns the model's textual description based on the provided prompt.
func (c *Client) GenerateImageDescription(
	ctx context.Context,
	prompt string,
	image ai.Base64Image,
) (string, error) {
	url := fmt.Sprintf("%s%s", image.FileType, image.Base64)
	body := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.visionModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: url,
				}),
			}),
		},
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.reqLock.Release(1)

	response, err := c.VisionClient.Chat.Completions.New(ctx, body)
	if err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in vision response")
	}

	return response.Choices[0].Message.Content, nil
}
