// Package memory implements the graph store on in-process maps. It backs
// tests and single-node development setups where no database is configured.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/corvid-labs/lodestone/pkg/graph"
)

// Store is a mutex-guarded in-memory graph store.
type Store struct {
	mu    sync.RWMutex
	nodes map[string]graph.KnowledgeNode
	edges map[string]graph.KnowledgeEdge
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		nodes: make(map[string]graph.KnowledgeNode),
		edges: make(map[string]graph.KnowledgeEdge),
	}
}

func (s *Store) InsertNode(ctx context.Context, node graph.KnowledgeNode) (graph.KnowledgeNode, error) {
	if node.Key == "" {
		key, err := gonanoid.New()
		if err != nil {
			return graph.KnowledgeNode{}, fmt.Errorf("failed to generate node key: %w", err)
		}
		node.Key = key
	}

	now := time.Now()
	node.CreatedAt = now
	node.UpdatedAt = now

	s.mu.Lock()
	s.nodes[node.Key] = node
	s.mu.Unlock()

	return node, nil
}

func (s *Store) InsertEdge(ctx context.Context, edge graph.KnowledgeEdge) (graph.KnowledgeEdge, error) {
	if edge.Key == "" {
		key, err := gonanoid.New()
		if err != nil {
			return graph.KnowledgeEdge{}, fmt.Errorf("failed to generate edge key: %w", err)
		}
		edge.Key = key
	}
	if edge.Weight == 0 {
		edge.Weight = graph.DefaultEdgeWeight
	}
	edge.CreatedAt = time.Now()

	s.mu.Lock()
	s.edges[edge.Key] = edge
	s.mu.Unlock()

	return edge, nil
}

func (s *Store) GetNode(ctx context.Context, key string) (*graph.KnowledgeNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[key]
	if !ok {
		return nil, nil
	}
	return &node, nil
}

func (s *Store) QueryNodes(ctx context.Context, query graph.NodeQuery) ([]graph.KnowledgeNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []graph.KnowledgeNode
	needle := strings.ToLower(query.Contains)
	for _, node := range s.nodes {
		if query.Type != "" && node.Type != query.Type {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(node.Content), needle) &&
			!strings.Contains(strings.ToLower(node.Name), needle) {
			continue
		}
		if query.Near != nil && node.Embedding == nil {
			continue
		}
		matches = append(matches, node)
	}

	if query.Near != nil {
		sort.Slice(matches, func(a, b int) bool {
			return cosineDistance(matches[a].Embedding, query.Near) <
				cosineDistance(matches[b].Embedding, query.Near)
		})
	} else {
		sort.Slice(matches, func(a, b int) bool {
			return matches[a].CreatedAt.Before(matches[b].CreatedAt)
		})
	}

	if query.Limit > 0 && len(matches) > query.Limit {
		matches = matches[:query.Limit]
	}
	return matches, nil
}

func (s *Store) UpdateNode(ctx context.Context, key string, fields map[string]any) (*graph.KnowledgeNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[key]
	if !ok {
		return nil, nil
	}

	for field, value := range fields {
		switch field {
		case "name":
			if v, ok := value.(string); ok {
				node.Name = v
			}
		case "content":
			if v, ok := value.(string); ok {
				node.Content = v
			}
		case "metadata":
			if v, ok := value.(map[string]any); ok {
				node.Metadata = v
			}
		case "embedding":
			if v, ok := value.([]float32); ok {
				node.Embedding = v
			}
		}
	}
	node.UpdatedAt = time.Now()
	s.nodes[key] = node

	return &node, nil
}

func (s *Store) RemoveEdge(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.edges[key]; !ok {
		return false, nil
	}
	delete(s.edges, key)
	return true, nil
}

func (s *Store) RemoveNodeCascade(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[key]; !ok {
		return false, nil
	}

	for edgeKey, edge := range s.edges {
		if edge.From == key || edge.To == key {
			delete(s.edges, edgeKey)
		}
	}
	delete(s.nodes, key)
	return true, nil
}

func (s *Store) TraverseOneHop(
	ctx context.Context,
	startKey string,
	edgeType graph.EdgeType,
	direction graph.Direction,
) ([]graph.Neighbor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var neighbors []graph.Neighbor
	for _, edge := range s.edges {
		if edgeType != "" && edge.Type != edgeType {
			continue
		}

		var neighborKey string
		switch {
		case edge.From == startKey && direction != graph.DirectionIncoming:
			neighborKey = edge.To
		case edge.To == startKey && direction != graph.DirectionOutgoing:
			neighborKey = edge.From
		default:
			continue
		}

		node, ok := s.nodes[neighborKey]
		if !ok {
			continue
		}
		neighbors = append(neighbors, graph.Neighbor{Node: node, Edge: edge})
	}

	sort.Slice(neighbors, func(a, b int) bool {
		return neighbors[a].Edge.CreatedAt.Before(neighbors[b].Edge.CreatedAt)
	})
	return neighbors, nil
}

// Edges returns a snapshot of all edges, for tests and diagnostics.
func (s *Store) Edges() []graph.KnowledgeEdge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]graph.KnowledgeEdge, 0, len(s.edges))
	for _, edge := range s.edges {
		out = append(out, edge)
	}
	return out
}

func cosineDistance(a []float32, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return math.MaxFloat64
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return math.MaxFloat64
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
