package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/corvid-labs/lodestone/pkg/extract"
	"github.com/corvid-labs/lodestone/pkg/logger"
)

const defaultEntityCategory = "Unknown"

// EntityMatcher decides whether a candidate node found by search refers to
// the same entity as the given text. Pluggable so stricter matching can be
// substituted.
type EntityMatcher interface {
	IsSameEntity(candidate KnowledgeNode, text string) bool
}

// DefaultEntityMatcher matches on case-insensitive, whitespace-trimmed name
// equality.
type DefaultEntityMatcher struct{}

func (DefaultEntityMatcher) IsSameEntity(candidate KnowledgeNode, text string) bool {
	return strings.EqualFold(
		strings.TrimSpace(candidate.Name),
		strings.TrimSpace(text),
	)
}

// extractEntities creates or reuses ENTITY nodes for every structured
// element of type Entity and links each to the document.
func (b *Builder) extractEntities(
	ctx context.Context,
	docNode KnowledgeNode,
	elements []extract.Element,
) ([]KnowledgeNode, error) {
	var entities []KnowledgeNode
	for _, el := range elements {
		if el.Type != extract.ElementEntity {
			continue
		}
		text := strings.TrimSpace(el.Text)
		if text == "" {
			continue
		}

		category := defaultEntityCategory
		if raw, ok := el.Metadata["category"].(string); ok && raw != "" {
			category = raw
		}

		entity, err := b.FindOrCreateEntity(ctx, text, category)
		if err != nil {
			return nil, err
		}

		if _, err := b.createEdge(ctx, KnowledgeEdge{
			From: entity.Key,
			To:   docNode.Key,
			Type: EdgeExtractedFrom,
		}); err != nil {
			return nil, fmt.Errorf("failed to link entity %q: %w", text, err)
		}

		entities = append(entities, entity)
	}
	return entities, nil
}

// FindOrCreateEntity deduplicates entities by approximate text match: the
// best search hit (limit 1) is reused when the matcher accepts it, otherwise
// a new ENTITY node is created. Near-duplicate names may still produce
// separate nodes.
func (b *Builder) FindOrCreateEntity(ctx context.Context, text string, category string) (KnowledgeNode, error) {
	embedding, err := b.ai.GenerateEmbedding(ctx, []byte(text))
	if err != nil {
		return KnowledgeNode{}, fmt.Errorf("failed to embed entity %q: %w", text, err)
	}

	candidates, err := b.store.QueryNodes(ctx, NodeQuery{
		Type:  NodeEntity,
		Near:  embedding,
		Limit: 1,
	})
	if errors.Is(err, ErrVectorSearchUnsupported) {
		candidates, err = b.store.QueryNodes(ctx, NodeQuery{
			Type:     NodeEntity,
			Contains: text,
			Limit:    1,
		})
	}
	if err != nil {
		return KnowledgeNode{}, fmt.Errorf("failed to search for entity %q: %w", text, err)
	}

	if len(candidates) > 0 && b.matcher.IsSameEntity(candidates[0], text) {
		logger.Debug("[Graph] Reusing entity", "name", text, "key", candidates[0].Key)
		return candidates[0], nil
	}

	node := KnowledgeNode{
		Type:      NodeEntity,
		Name:      text,
		Content:   text,
		Metadata:  map[string]any{"category": category},
		Embedding: embedding,
	}
	return b.insertPreEmbedded(ctx, node)
}

// insertPreEmbedded inserts a node that already carries its embedding.
func (b *Builder) insertPreEmbedded(ctx context.Context, node KnowledgeNode) (KnowledgeNode, error) {
	if node.Key == "" {
		key, err := newKey()
		if err != nil {
			return KnowledgeNode{}, err
		}
		node.Key = key
	}
	return b.store.InsertNode(ctx, node)
}
