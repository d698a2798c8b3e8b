package memory

import (
	"context"
	"testing"

	"github.com/corvid-labs/lodestone/pkg/graph"
)

func seedDocWithChunks(t *testing.T, s *Store) (graph.KnowledgeNode, []graph.KnowledgeNode) {
	t.Helper()
	ctx := context.Background()

	doc, err := s.InsertNode(ctx, graph.KnowledgeNode{Type: graph.NodeDocument, Name: "doc"})
	if err != nil {
		t.Fatalf("insert doc: %v", err)
	}

	var chunks []graph.KnowledgeNode
	for i := 0; i < 2; i++ {
		chunkNode, err := s.InsertNode(ctx, graph.KnowledgeNode{
			Type: graph.NodeDocumentChunk,
			Name: "chunk",
		})
		if err != nil {
			t.Fatalf("insert chunk: %v", err)
		}
		chunks = append(chunks, chunkNode)

		if _, err := s.InsertEdge(ctx, graph.KnowledgeEdge{
			From: doc.Key, To: chunkNode.Key, Type: graph.EdgeContains,
		}); err != nil {
			t.Fatalf("insert edge: %v", err)
		}
		if _, err := s.InsertEdge(ctx, graph.KnowledgeEdge{
			From: chunkNode.Key, To: doc.Key, Type: graph.EdgePartOf,
		}); err != nil {
			t.Fatalf("insert edge: %v", err)
		}
	}
	return doc, chunks
}

func TestRemoveNodeCascade(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	doc, chunks := seedDocWithChunks(t, s)

	removed, err := s.RemoveNodeCascade(ctx, doc.Key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !removed {
		t.Fatal("expected node to be removed")
	}

	if node, _ := s.GetNode(ctx, doc.Key); node != nil {
		t.Error("document node still present after cascade")
	}
	if edges := s.Edges(); len(edges) != 0 {
		t.Errorf("expected all edges removed, %d remain", len(edges))
	}
	// Chunk nodes are not removed by the cascade, only their edges.
	if node, _ := s.GetNode(ctx, chunks[0].Key); node == nil {
		t.Error("chunk node should survive document cascade")
	}
}

func TestRemoveNodeCascadeMissing(t *testing.T) {
	s := NewStore()
	removed, err := s.RemoveNodeCascade(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed {
		t.Error("expected false for missing node")
	}
}

func TestTraverseOneHop(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	doc, chunks := seedDocWithChunks(t, s)

	outgoing, err := s.TraverseOneHop(ctx, doc.Key, graph.EdgeContains, graph.DirectionOutgoing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outgoing) != len(chunks) {
		t.Fatalf("expected %d outgoing neighbors, got %d", len(chunks), len(outgoing))
	}
	for _, n := range outgoing {
		if n.Node.Type != graph.NodeDocumentChunk {
			t.Errorf("unexpected neighbor type %v", n.Node.Type)
		}
		if n.Edge.Type != graph.EdgeContains {
			t.Errorf("unexpected edge type %v", n.Edge.Type)
		}
	}

	incoming, err := s.TraverseOneHop(ctx, doc.Key, graph.EdgePartOf, graph.DirectionIncoming)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(incoming) != len(chunks) {
		t.Errorf("expected %d incoming neighbors, got %d", len(chunks), len(incoming))
	}

	both, err := s.TraverseOneHop(ctx, doc.Key, "", graph.DirectionBoth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(both) != 2*len(chunks) {
		t.Errorf("expected %d neighbors in both directions, got %d", 2*len(chunks), len(both))
	}
}

func TestUpdateNode(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	node, err := s.InsertNode(ctx, graph.KnowledgeNode{Type: graph.NodeFact, Name: "before"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	updated, err := s.UpdateNode(ctx, node.Key, map[string]any{
		"name":    "after",
		"content": "new content",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != "after" || updated.Content != "new content" {
		t.Errorf("update not applied: %+v", updated)
	}

	missing, err := s.UpdateNode(ctx, "missing", map[string]any{"name": "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing node")
	}
}
