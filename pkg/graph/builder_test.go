package graph_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/corvid-labs/lodestone/pkg/ai"
	"github.com/corvid-labs/lodestone/pkg/extract"
	"github.com/corvid-labs/lodestone/pkg/graph"
	"github.com/corvid-labs/lodestone/pkg/store/memory"
)

// stubAIClient produces deterministic embeddings so similarity search in
// the memory store resolves identical texts to the same vector.
type stubAIClient struct {
	embedErr error
}

func (c *stubAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	if c.embedErr != nil {
		return nil, c.embedErr
	}
	vec := make([]float32, 8)
	for i, b := range input {
		vec[i%8] += float32(b) / 255
	}
	return vec, nil
}

func (c *stubAIClient) GenerateImageDescription(ctx context.Context, prompt string, image ai.Base64Image) (string, error) {
	return "", errors.New("not implemented")
}

func (c *stubAIClient) GenerateCompletionWithFormat(ctx context.Context, name string, description string, prompt string, out any, opts ...ai.GenerateOption) error {
	return errors.New("not implemented")
}

func newTestBuilder() (*graph.Builder, *memory.Store) {
	s := memory.NewStore()
	b := graph.NewBuilder(graph.NewBuilderParams{
		Store:    s,
		AIClient: &stubAIClient{},
	})
	return b, s
}

func TestProcessDocumentEndToEnd(t *testing.T) {
	b, s := newTestBuilder()
	content := buildText(2500)

	res, err := b.ProcessDocument(context.Background(), content, "report.txt", nil, graph.ProcessOptions{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		MaxChunks:    20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.ChunkNodes) != 3 {
		t.Fatalf("expected 3 chunk nodes, got %d", len(res.ChunkNodes))
	}

	// Preview invariant: 1000 chars + ellipsis.
	if n := len([]rune(res.DocumentNode.Content)); n != 1003 {
		t.Errorf("expected 1003-char preview, got %d", n)
	}
	if full, ok := res.DocumentNode.Metadata["fullContent"].(bool); !ok || full {
		t.Error("expected metadata.fullContent = false")
	}
	if length, ok := res.DocumentNode.Metadata["contentLength"].(int); !ok || length != 2500 {
		t.Errorf("expected metadata.contentLength = 2500, got %v",
			res.DocumentNode.Metadata["contentLength"])
	}

	for i, chunkNode := range res.ChunkNodes {
		wantName := "report.txt - Chunk " + string(rune('1'+i))
		if chunkNode.Name != wantName {
			t.Errorf("chunk %d name = %q, want %q", i, chunkNode.Name, wantName)
		}
		if chunkNode.Embedding == nil {
			t.Errorf("chunk %d has no embedding", i)
		}
		if idx, ok := chunkNode.Metadata["chunkIndex"].(int); !ok || idx != i {
			t.Errorf("chunk %d metadata chunkIndex = %v", i, chunkNode.Metadata["chunkIndex"])
		}
		if docID, ok := chunkNode.Metadata["documentId"].(string); !ok || docID != res.DocumentNode.Key {
			t.Errorf("chunk %d metadata documentId = %v", i, chunkNode.Metadata["documentId"])
		}
		if isChunk, ok := chunkNode.Metadata["isChunk"].(bool); !ok || !isChunk {
			t.Errorf("chunk %d metadata isChunk = %v", i, chunkNode.Metadata["isChunk"])
		}
	}

	// Edge symmetry: per chunk exactly one CONTAINS and one PART_OF edge,
	// both tagged with the chunk's index.
	edges := s.Edges()
	if len(edges) != 6 {
		t.Fatalf("expected 6 edges, got %d", len(edges))
	}
	for i, chunkNode := range res.ChunkNodes {
		contains, partOf := 0, 0
		for _, edge := range edges {
			idx, _ := edge.Metadata["chunkIndex"].(int)
			switch {
			case edge.Type == graph.EdgeContains &&
				edge.From == res.DocumentNode.Key && edge.To == chunkNode.Key:
				contains++
				if idx != i {
					t.Errorf("CONTAINS edge for chunk %d has chunkIndex %d", i, idx)
				}
			case edge.Type == graph.EdgePartOf &&
				edge.From == chunkNode.Key && edge.To == res.DocumentNode.Key:
				partOf++
				if idx != i {
					t.Errorf("PART_OF edge for chunk %d has chunkIndex %d", i, idx)
				}
			}
		}
		if contains != 1 || partOf != 1 {
			t.Errorf("chunk %d: %d CONTAINS / %d PART_OF edges, want 1/1", i, contains, partOf)
		}
	}
}

func TestProcessDocumentShortContent(t *testing.T) {
	b, _ := newTestBuilder()
	content := "a short document"

	res, err := b.ProcessDocument(context.Background(), content, "note.txt", nil, graph.ProcessOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.DocumentNode.Content != content {
		t.Errorf("expected verbatim content, got %q", res.DocumentNode.Content)
	}
	if _, ok := res.DocumentNode.Metadata["fullContent"]; ok {
		t.Error("fullContent must be absent for short content")
	}
}

func TestProcessDocumentEmbeddingFailureAborts(t *testing.T) {
	s := memory.NewStore()
	b := graph.NewBuilder(graph.NewBuilderParams{
		Store:    s,
		AIClient: &stubAIClient{embedErr: ai.ErrEmbeddingGenerationFailed},
	})

	_, err := b.ProcessDocument(context.Background(), "content", "doc.txt", nil, graph.ProcessOptions{})
	if !errors.Is(err, ai.ErrEmbeddingGenerationFailed) {
		t.Errorf("expected embedding failure to propagate, got %v", err)
	}
}

func TestFindOrCreateEntityIdempotent(t *testing.T) {
	b, s := newTestBuilder()
	ctx := context.Background()

	first, err := b.FindOrCreateEntity(ctx, "Ada Lovelace", "Person")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := b.FindOrCreateEntity(ctx, "Ada Lovelace", "Person")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Key != second.Key {
		t.Errorf("expected entity reuse, got keys %s and %s", first.Key, second.Key)
	}

	nodes, err := s.QueryNodes(ctx, graph.NodeQuery{Type: graph.NodeEntity})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 1 {
		t.Errorf("expected exactly one ENTITY node, got %d", len(nodes))
	}
	if category, _ := nodes[0].Metadata["category"].(string); category != "Person" {
		t.Errorf("expected category Person, got %q", category)
	}
}

func TestFindOrCreateEntityDefaultCategory(t *testing.T) {
	b, s := newTestBuilder()
	ctx := context.Background()

	doc, err := b.ProcessDocument(ctx, "text", "doc.txt", nil, graph.ProcessOptions{
		ExtractEntities: true,
		StructuredElements: []extract.Element{
			{Type: extract.ElementEntity, Text: "Acme Corp"},
			{Type: extract.ElementNarrativeText, Text: "text"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.EntityNodes) != 1 {
		t.Fatalf("expected 1 entity node, got %d", len(doc.EntityNodes))
	}
	if category, _ := doc.EntityNodes[0].Metadata["category"].(string); category != "Unknown" {
		t.Errorf("expected default category Unknown, got %q", category)
	}

	// The entity must be linked to the document by an EXTRACTED_FROM edge.
	found := false
	for _, edge := range s.Edges() {
		if edge.Type == graph.EdgeExtractedFrom &&
			edge.From == doc.EntityNodes[0].Key && edge.To == doc.DocumentNode.Key {
			found = true
		}
	}
	if !found {
		t.Error("missing EXTRACTED_FROM edge entity→document")
	}
}

func TestUpdateNodeContentReembeds(t *testing.T) {
	b, s := newTestBuilder()
	ctx := context.Background()

	res, err := b.ProcessDocument(ctx, "original text", "doc.txt", nil, graph.ProcessOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := b.UpdateNodeContent(ctx, res.DocumentNode.Key, "replacement text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Content != "replacement text" {
		t.Errorf("expected updated content, got %q", updated.Content)
	}

	// The stored vector must describe the new content, not the old.
	want, err := (&stubAIClient{}).GenerateEmbedding(ctx, []byte("replacement text"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(updated.Embedding, want) {
		t.Error("embedding was not regenerated from the new content")
	}
	if reflect.DeepEqual(updated.Embedding, res.DocumentNode.Embedding) {
		t.Error("embedding still matches the original content")
	}

	stored, err := s.GetNode(ctx, res.DocumentNode.Key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Content != "replacement text" || !reflect.DeepEqual(stored.Embedding, want) {
		t.Error("store holds stale content or embedding after update")
	}
}

func TestUpdateNodeContentEmbedFailureLeavesNodeUntouched(t *testing.T) {
	b, s := newTestBuilder()
	ctx := context.Background()

	res, err := b.ProcessDocument(ctx, "original text", "doc.txt", nil, graph.ProcessOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	failing := graph.NewBuilder(graph.NewBuilderParams{
		Store:    s,
		AIClient: &stubAIClient{embedErr: ai.ErrEmbeddingGenerationFailed},
	})
	if _, err := failing.UpdateNodeContent(ctx, res.DocumentNode.Key, "new text"); !errors.Is(err, ai.ErrEmbeddingGenerationFailed) {
		t.Fatalf("expected embedding failure to propagate, got %v", err)
	}

	stored, err := s.GetNode(ctx, res.DocumentNode.Key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Content != "original text" {
		t.Errorf("node content changed despite failed embedding: %q", stored.Content)
	}
	if !reflect.DeepEqual(stored.Embedding, res.DocumentNode.Embedding) {
		t.Error("node embedding changed despite failed embedding")
	}
}

func buildText(length int) string {
	var b strings.Builder
	words := []string{"system", "graph", "vector", "node", "query", "store"}
	for i := 0; b.Len() < length; i++ {
		b.WriteString(words[i%len(words)])
		b.WriteByte(' ')
	}
	return b.String()[:length]
}
