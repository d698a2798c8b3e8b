package ollama

import (
	"testing"

	"github.com/corvid-labs/lodestone/pkg/ai"
)

var _ ai.Client = (*Client)(nil)

func TestNewClient(t *testing.T) {
	client, err := NewClient(NewClientParams{
		EmbeddingModel: "nomic-embed-text",
		ChatModel:      "llama3",
		VisionModel:    "llava",
		BaseURL:        "http://localhost:11434",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Client == nil {
		t.Fatal("expected api client to be set")
	}
	if client.chatModel != "llama3" {
		t.Errorf("expected chat model llama3, got %s", client.chatModel)
	}
}

func TestNewClientInvalidBaseURL(t *testing.T) {
	_, err := NewClient(NewClientParams{
		BaseURL: "://missing-scheme",
	})
	if err == nil {
		t.Fatal("expected error for invalid base URL")
	}
}
