package ollama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ollama/ollama/api"

	"github.com/corvid-labs/lodestone/pkg/ai"
)

// GenerateCompletionWithFormat runs a chat completion constrained to the JSON
// schema derived from out and unmarshals the response into out.
func (c *Client) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	options := ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.1,
	}
	for _, opt := range opts {
		opt(&options)
	}

	schema := ai.GenerateSchema(out)
	format, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("failed to marshal response schema: %w", err)
	}

	messages := make([]api.Message, 0, len(options.SystemPrompts)+1)
	for _, sys := range options.SystemPrompts {
		messages = append(messages, api.Message{Role: "system", Content: sys})
	}
	messages = append(messages, api.Message{Role: "user", Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: messages,
		Format:   json.RawMessage(format),
		Stream:   &stream,
		Options: map[string]any{
			"temperature": options.Temperature,
		},
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.reqLock.Release(1)

	var content string
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		content += cr.Message.Content
		return nil
	}); err != nil {
		return fmt.Errorf("chat request failed: %w", err)
	}

	if content == "" {
		return fmt.Errorf("received empty response for %s", name)
	}

	if err := ai.UnmarshalFlexible(content, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", name, err)
	}

	return nil
}
