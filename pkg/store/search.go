// Package store provides the search policy over graph stores and hosts the
// store implementations in its subpackages.
package store

import (
	"context"

	"github.com/corvid-labs/lodestone/pkg/ai"
	"github.com/corvid-labs/lodestone/pkg/graph"
	"github.com/corvid-labs/lodestone/pkg/logger"
)

const defaultSearchLimit = 10

// SearchNodes finds nodes matching the query. It prefers similarity search
// over embedded nodes; when that yields nothing (or the store has no vector
// support, or the query cannot be embedded) it falls back to a
// case-insensitive substring match over content and name. The fallback
// trades relevance for availability: a degraded store never makes search
// return nothing at all.
func SearchNodes(
	ctx context.Context,
	graphStore graph.GraphStore,
	aiClient ai.Client,
	query string,
	nodeType graph.NodeType,
	limit int,
) ([]graph.KnowledgeNode, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	if aiClient != nil {
		embedding, err := aiClient.GenerateEmbedding(ctx, []byte(query))
		if err == nil {
			nodes, err := graphStore.QueryNodes(ctx, graph.NodeQuery{
				Type:  nodeType,
				Near:  embedding,
				Limit: limit,
			})
			if err == nil && len(nodes) > 0 {
				return nodes, nil
			}
			if err != nil {
				logger.Warn("[Store] Vector search unavailable, using substring match",
					"error", err)
			}
		} else {
			logger.Warn("[Store] Failed to embed search query, using substring match",
				"error", err)
		}
	}

	return graphStore.QueryNodes(ctx, graph.NodeQuery{
		Type:     nodeType,
		Contains: query,
		Limit:    limit,
	})
}
