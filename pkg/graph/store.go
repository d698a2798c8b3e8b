package graph

import (
	"context"
	"errors"
)

// Direction selects which edges to follow during traversal.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
	DirectionBoth     Direction = "both"
)

// NodeQuery filters and orders a node lookup. Contains matches
// case-insensitively against content OR name. When Near is set, results are
// ordered by ascending vector distance to it; stores without vector support
// return ErrVectorSearchUnsupported.
type NodeQuery struct {
	Type     NodeType
	Contains string
	Near     []float32
	Limit    int
}

// Neighbor is one result of a one-hop traversal.
type Neighbor struct {
	Node KnowledgeNode
	Edge KnowledgeEdge
}

// ErrVectorSearchUnsupported is returned by stores that cannot order
// results by vector distance.
var ErrVectorSearchUnsupported = errors.New("vector search not supported by this store")

// ErrWriteFailed wraps store write failures so callers can classify them.
var ErrWriteFailed = errors.New("graph store write failed")

// GraphStore persists knowledge nodes and edges. Implementations assign a
// key on insert when the record has none.
type GraphStore interface {
	InsertNode(ctx context.Context, node KnowledgeNode) (KnowledgeNode, error)
	InsertEdge(ctx context.Context, edge KnowledgeEdge) (KnowledgeEdge, error)

	GetNode(ctx context.Context, key string) (*KnowledgeNode, error)
	QueryNodes(ctx context.Context, query NodeQuery) ([]KnowledgeNode, error)

	UpdateNode(ctx context.Context, key string, fields map[string]any) (*KnowledgeNode, error)

	RemoveEdge(ctx context.Context, key string) (bool, error)
	// RemoveNodeCascade removes every edge touching the node, then the
	// node itself.
	RemoveNodeCascade(ctx context.Context, key string) (bool, error)

	TraverseOneHop(ctx context.Context, startKey string, edgeType EdgeType, direction Direction) ([]Neighbor, error)
}
