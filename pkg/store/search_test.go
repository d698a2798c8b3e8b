package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/corvid-labs/lodestone/pkg/ai"
	"github.com/corvid-labs/lodestone/pkg/graph"
	"github.com/corvid-labs/lodestone/pkg/store"
	"github.com/corvid-labs/lodestone/pkg/store/memory"
)

type embedClient struct {
	err error
}

func (c *embedClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	if c.err != nil {
		return nil, c.err
	}
	return []float32{1, 0, 0}, nil
}

func (c *embedClient) GenerateImageDescription(ctx context.Context, prompt string, image ai.Base64Image) (string, error) {
	return "", errors.New("not implemented")
}

func (c *embedClient) GenerateCompletionWithFormat(ctx context.Context, name string, description string, prompt string, out any, opts ...ai.GenerateOption) error {
	return errors.New("not implemented")
}

func TestSearchNodesFallbackWithoutEmbeddings(t *testing.T) {
	// No node carries an embedding: similarity search finds nothing and
	// the substring tier must still produce results without erroring.
	s := memory.NewStore()
	ctx := context.Background()

	seed := []graph.KnowledgeNode{
		{Type: graph.NodeDocument, Name: "Quarterly Report", Content: "revenue numbers"},
		{Type: graph.NodeDocument, Name: "meeting notes", Content: "Revenue follow-up"},
		{Type: graph.NodeDocument, Name: "unrelated", Content: "nothing here"},
	}
	for _, node := range seed {
		if _, err := s.InsertNode(ctx, node); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	results, err := store.SearchNodes(ctx, s, &embedClient{}, "revenue", "", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 substring matches, got %d", len(results))
	}
	for _, node := range results {
		if node.Name == "unrelated" {
			t.Error("substring fallback returned a non-matching node")
		}
	}
}

func TestSearchNodesPrefersSimilarity(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	if _, err := s.InsertNode(ctx, graph.KnowledgeNode{
		Type:      graph.NodeDocumentChunk,
		Name:      "close match",
		Content:   "xyz",
		Embedding: []float32{1, 0, 0},
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if _, err := s.InsertNode(ctx, graph.KnowledgeNode{
		Type:      graph.NodeDocumentChunk,
		Name:      "far match",
		Content:   "xyz",
		Embedding: []float32{0, 1, 0},
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	results, err := store.SearchNodes(ctx, s, &embedClient{}, "anything", "", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Name != "close match" {
		t.Errorf("expected similarity ordering, got %q first", results[0].Name)
	}
}

func TestSearchNodesEmbedFailureFallsBack(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	if _, err := s.InsertNode(ctx, graph.KnowledgeNode{
		Type:    graph.NodeDocument,
		Name:    "handbook",
		Content: "policies and procedures",
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	results, err := store.SearchNodes(ctx, s, &embedClient{err: errors.New("embed down")}, "handbook", "", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result via substring fallback, got %d", len(results))
	}
}
