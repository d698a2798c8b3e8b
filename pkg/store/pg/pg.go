// Package pg implements the graph store on PostgreSQL with pgvector.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pgvector/pgvector-go"

	"github.com/corvid-labs/lodestone/internal/util"
	"github.com/corvid-labs/lodestone/pkg/graph"
)

// Store persists nodes and edges in PostgreSQL. Similarity queries order by
// cosine distance through pgvector.
type Store struct {
	conn *pgxpool.Pool
}

// NewStore creates a store on the given connection pool.
func NewStore(conn *pgxpool.Pool) *Store {
	return &Store{conn: conn}
}

func (s *Store) InsertNode(ctx context.Context, node graph.KnowledgeNode) (graph.KnowledgeNode, error) {
	if node.Key == "" {
		key, err := gonanoid.New()
		if err != nil {
			return graph.KnowledgeNode{}, fmt.Errorf("failed to generate node key: %w", err)
		}
		node.Key = key
	}

	if node.Metadata == nil {
		node.Metadata = map[string]any{}
	}

	var embedding any
	if node.Embedding != nil {
		embedding = pgvector.NewVector(node.Embedding)
	}

	row := s.conn.QueryRow(ctx, `
		INSERT INTO knowledge_nodes (key, type, name, content, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		node.Key,
		string(node.Type),
		util.SanitizePostgresText(node.Name),
		util.SanitizePostgresText(node.Content),
		node.Metadata,
		embedding,
	)
	if err := row.Scan(&node.CreatedAt, &node.UpdatedAt); err != nil {
		return graph.KnowledgeNode{}, fmt.Errorf("%w: insert node: %w", graph.ErrWriteFailed, err)
	}

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
	if edge.Metadata == nil {
		edge.Metadata = map[string]any{}
	}

	row := s.conn.QueryRow(ctx, `
		INSERT INTO knowledge_edges (key, from_key, to_key, type, weight, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		edge.Key,
		edge.From,
		edge.To,
		string(edge.Type),
		edge.Weight,
		edge.Metadata,
	)
	if err := row.Scan(&edge.CreatedAt); err != nil {
		return graph.KnowledgeEdge{}, fmt.Errorf("%w: insert edge: %w", graph.ErrWriteFailed, err)
	}

	return edge, nil
}

func (s *Store) GetNode(ctx context.Context, key string) (*graph.KnowledgeNode, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT key, type, name, content, metadata, embedding, created_at, updated_at
		FROM knowledge_nodes
		WHERE key = $1`,
		key,
	)

	node, err := scanNode(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	return node, nil
}

func (s *Store) QueryNodes(ctx context.Context, query graph.NodeQuery) ([]graph.KnowledgeNode, error) {
	sql := `
		SELECT key, type, name, content, metadata, embedding, created_at, updated_at
		FROM knowledge_nodes
		WHERE 1=1`
	args := make([]any, 0, 4)

	if query.Type != "" {
		args = append(args, string(query.Type))
		sql += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if query.Contains != "" {
		args = append(args, "%"+query.Contains+"%")
		sql += fmt.Sprintf(" AND (content ILIKE $%d OR name ILIKE $%d)", len(args), len(args))
	}
	if query.Near != nil {
		args = append(args, pgvector.NewVector(query.Near))
		sql += fmt.Sprintf(" AND embedding IS NOT NULL ORDER BY embedding <=> $%d", len(args))
	} else {
		sql += " ORDER BY created_at"
	}
	if query.Limit > 0 {
		args = append(args, query.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []graph.KnowledgeNode
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodes = append(nodes, *node)
	}
	return nodes, rows.Err()
}

func (s *Store) UpdateNode(ctx context.Context, key string, fields map[string]any) (*graph.KnowledgeNode, error) {
	sql := "UPDATE knowledge_nodes SET updated_at = $1"
	args := []any{time.Now()}

	for field, value := range fields {
		switch field {
		case "name", "content":
			if v, ok := value.(string); ok {
				args = append(args, util.SanitizePostgresText(v))
				sql += fmt.Sprintf(", %s = $%d", field, len(args))
			}
		case "metadata":
			args = append(args, value)
			sql += fmt.Sprintf(", metadata = $%d", len(args))
		case "embedding":
			if v, ok := value.([]float32); ok {
				args = append(args, pgvector.NewVector(v))
				sql += fmt.Sprintf(", embedding = $%d", len(args))
			}
		}
	}

	args = append(args, key)
	sql += fmt.Sprintf(` WHERE key = $%d
		RETURNING key, type, name, content, metadata, embedding, created_at, updated_at`,
		len(args))

	row := s.conn.QueryRow(ctx, sql, args...)
	node, err := scanNode(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: update node: %w", graph.ErrWriteFailed, err)
	}
	return node, nil
}

func (s *Store) RemoveEdge(ctx context.Context, key string) (bool, error) {
	tag, err := s.conn.Exec(ctx, "DELETE FROM knowledge_edges WHERE key = $1", key)
	if err != nil {
		return false, fmt.Errorf("%w: remove edge: %w", graph.ErrWriteFailed, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) RemoveNodeCascade(ctx context.Context, key string) (bool, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"DELETE FROM knowledge_edges WHERE from_key = $1 OR to_key = $1", key,
	); err != nil {
		return false, fmt.Errorf("%w: remove node edges: %w", graph.ErrWriteFailed, err)
	}

	tag, err := tx.Exec(ctx, "DELETE FROM knowledge_nodes WHERE key = $1", key)
	if err != nil {
		return false, fmt.Errorf("%w: remove node: %w", graph.ErrWriteFailed, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit node removal: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) TraverseOneHop(
	ctx context.Context,
	startKey string,
	edgeType graph.EdgeType,
	direction graph.Direction,
) ([]graph.Neighbor, error) {
	sql := `
		SELECT n.key, n.type, n.name, n.content, n.metadata, n.embedding,
		       n.created_at, n.updated_at,
		       e.key, e.from_key, e.to_key, e.type, e.weight, e.metadata, e.created_at
		FROM knowledge_edges e
		JOIN knowledge_nodes n ON n.key = CASE
			WHEN e.from_key = $1 THEN e.to_key
			ELSE e.from_key
		END
		WHERE `
	args := []any{startKey}

	switch direction {
	case graph.DirectionOutgoing:
		sql += "e.from_key = $1"
	case graph.DirectionIncoming:
		sql += "e.to_key = $1"
	default:
		sql += "(e.from_key = $1 OR e.to_key = $1)"
	}

	if edgeType != "" {
		args = append(args, string(edgeType))
		sql += fmt.Sprintf(" AND e.type = $%d", len(args))
	}
	sql += " ORDER BY e.created_at"

	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to traverse: %w", err)
	}
	defer rows.Close()

	var neighbors []graph.Neighbor
	for rows.Next() {
		var (
			node      graph.KnowledgeNode
			edge      graph.KnowledgeEdge
			embedding *pgvector.Vector
			nodeType  string
			edgeType  string
		)
		if err := rows.Scan(
			&node.Key, &nodeType, &node.Name, &node.Content, &node.Metadata,
			&embedding, &node.CreatedAt, &node.UpdatedAt,
			&edge.Key, &edge.From, &edge.To, &edgeType, &edge.Weight,
			&edge.Metadata, &edge.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan neighbor: %w", err)
		}
		node.Type = graph.NodeType(nodeType)
		edge.Type = graph.EdgeType(edgeType)
		if embedding != nil {
			node.Embedding = embedding.Slice()
		}
		neighbors = append(neighbors, graph.Neighbor{Node: node, Edge: edge})
	}
	return neighbors, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*graph.KnowledgeNode, error) {
	var (
		node      graph.KnowledgeNode
		nodeType  string
		embedding *pgvector.Vector
	)
	if err := row.Scan(
		&node.Key, &nodeType, &node.Name, &node.Content, &node.Metadata,
		&embedding, &node.CreatedAt, &node.UpdatedAt,
	); err != nil {
		return nil, err
	}
	node.Type = graph.NodeType(nodeType)
	if embedding != nil {
		node.Embedding = embedding.Slice()
	}
	return &node, nil
}
