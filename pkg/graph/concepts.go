package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/corvid-labs/lodestone/pkg/ai"
	"github.com/corvid-labs/lodestone/pkg/logger"
)

type conceptItem struct {
	Name     string `json:"name" jsonschema_description:"Shortest unambiguous name of the concept"`
	Category string `json:"category" jsonschema_description:"Short category label, e.g. Person, Organization, Technology, Process"`
	Summary  string `json:"summary" jsonschema_description:"One-sentence summary of the concept as used in the passage"`
}

type conceptRelation struct {
	Source      string `json:"source" jsonschema_description:"Name of the source concept, as listed in concepts"`
	Target      string `json:"target" jsonschema_description:"Name of the target concept, as listed in concepts"`
	Description string `json:"description" jsonschema_description:"Brief description of how the two concepts relate"`
}

type conceptResponse struct {
	Concepts  []conceptItem     `json:"concepts" jsonschema_description:"Key concepts identified in the passage"`
	Relations []conceptRelation `json:"relations" jsonschema_description:"Relations between the identified concepts"`
}

// extractConcepts runs each chunk through the structured-completion endpoint
// and materializes CONCEPT nodes with RELATES_TO edges between related
// concepts and EXTRACTED_FROM edges back to the document. Concepts are
// deduplicated the same way as entities.
func (b *Builder) extractConcepts(
	ctx context.Context,
	docNode KnowledgeNode,
	chunkNodes []KnowledgeNode,
) ([]KnowledgeNode, error) {
	byName := make(map[string]KnowledgeNode)
	var concepts []KnowledgeNode

	for _, chunkNode := range chunkNodes {
		var res conceptResponse
		err := b.ai.GenerateCompletionWithFormat(
			ctx,
			"extract_concepts",
			"Extract key concepts and their relations from a text passage.",
			chunkNode.Content,
			&res,
			ai.WithSystemPrompts(ai.ConceptExtractionPrompt),
		)
		if err != nil {
			logger.Warn("[Graph] Concept extraction failed for chunk",
				"chunk", chunkNode.Key, "error", err)
			continue
		}

		for _, c := range res.Concepts {
			name := strings.TrimSpace(c.Name)
			if name == "" {
				continue
			}
			lowered := strings.ToLower(name)
			if _, seen := byName[lowered]; seen {
				continue
			}

			node, err := b.findOrCreateConcept(ctx, name, c.Category, c.Summary)
			if err != nil {
				return nil, err
			}
			byName[lowered] = node
			concepts = append(concepts, node)

			if _, err := b.createEdge(ctx, KnowledgeEdge{
				From: node.Key,
				To:   docNode.Key,
				Type: EdgeExtractedFrom,
			}); err != nil {
				return nil, fmt.Errorf("failed to link concept %q: %w", name, err)
			}
		}

		for _, rel := range res.Relations {
			source, okS := byName[strings.ToLower(strings.TrimSpace(rel.Source))]
			target, okT := byName[strings.ToLower(strings.TrimSpace(rel.Target))]
			if !okS || !okT || source.Key == target.Key {
				continue
			}
			if _, err := b.createEdge(ctx, KnowledgeEdge{
				From:     source.Key,
				To:       target.Key,
				Type:     EdgeRelatesTo,
				Metadata: map[string]any{"description": rel.Description},
			}); err != nil {
				return nil, fmt.Errorf("failed to relate concepts %q and %q: %w",
					rel.Source, rel.Target, err)
			}
		}
	}

	return concepts, nil
}

func (b *Builder) findOrCreateConcept(ctx context.Context, name string, category string, summary string) (KnowledgeNode, error) {
	content := name
	if summary != "" {
		content = summary
	}
	if category == "" {
		category = defaultEntityCategory
	}

	embedding, err := b.ai.GenerateEmbedding(ctx, []byte(content))
	if err != nil {
		return KnowledgeNode{}, fmt.Errorf("failed to embed concept %q: %w", name, err)
	}

	candidates, err := b.store.QueryNodes(ctx, NodeQuery{
		Type:  NodeConcept,
		Near:  embedding,
		Limit: 1,
	})
	if err == nil && len(candidates) > 0 && b.matcher.IsSameEntity(candidates[0], name) {
		return candidates[0], nil
	}

	return b.insertPreEmbedded(ctx, KnowledgeNode{
		Type:      NodeConcept,
		Name:      name,
		Content:   content,
		Metadata:  map[string]any{"category": category},
		Embedding: embedding,
	})
}
