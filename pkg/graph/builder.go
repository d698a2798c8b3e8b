package graph

import (
	"context"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/corvid-labs/lodestone/pkg/ai"
	"github.com/corvid-labs/lodestone/pkg/chunk"
	"github.com/corvid-labs/lodestone/pkg/extract"
	"github.com/corvid-labs/lodestone/pkg/logger"
)

const previewLength = 1000

// ProcessOptions control a single document-processing run.
type ProcessOptions struct {
	ChunkSize    int
	ChunkOverlap int
	MaxChunks    int

	ExtractEntities bool
	ExtractConcepts bool

	// DocumentKey presets the DOCUMENT node's key so callers can refer to
	// the document before processing finishes. Empty means generate one.
	DocumentKey string

	// StructuredElements, when present, drive structure-aware chunking and
	// entity extraction.
	StructuredElements []extract.Element

	// OnChunk is invoked after each chunk node and its edges are written.
	// May be nil.
	OnChunk func(index int, total int)
}

// ProcessResult holds every node created or reused by ProcessDocument.
type ProcessResult struct {
	DocumentNode KnowledgeNode
	ChunkNodes   []KnowledgeNode
	EntityNodes  []KnowledgeNode
	ConceptNodes []KnowledgeNode
}

// Builder turns documents into graph nodes and edges.
type Builder struct {
	store   GraphStore
	ai      ai.Client
	matcher EntityMatcher
}

// NewBuilderParams configures a Builder.
type NewBuilderParams struct {
	Store    GraphStore
	AIClient ai.Client
	// Matcher decides whether a found candidate is the same entity. Nil
	// selects case-insensitive name equality.
	Matcher EntityMatcher
}

// NewBuilder creates a graph builder.
func NewBuilder(params NewBuilderParams) *Builder {
	matcher := params.Matcher
	if matcher == nil {
		matcher = DefaultEntityMatcher{}
	}
	return &Builder{
		store:   params.Store,
		ai:      params.AIClient,
		matcher: matcher,
	}
}

// ProcessDocument chunks the content, embeds every node, and writes the
// document, its chunks and their linking edges to the store. Chunks are
// written sequentially in index order. Writes are not transactional: a
// failure mid-run leaves a partial document behind for the caller to clean
// up.
func (b *Builder) ProcessDocument(
	ctx context.Context,
	content string,
	name string,
	metadata map[string]any,
	options ProcessOptions,
) (*ProcessResult, error) {
	chunkOpts := chunk.Options{
		Size:      options.ChunkSize,
		Overlap:   options.ChunkOverlap,
		MaxChunks: options.MaxChunks,
	}

	var chunks []string
	if len(options.StructuredElements) > 0 {
		chunks = chunk.Elements(options.StructuredElements, chunkOpts)
	} else {
		chunks = chunk.Text(content, chunkOpts)
	}

	docMetadata := make(map[string]any, len(metadata)+2)
	for k, v := range metadata {
		docMetadata[k] = v
	}

	docContent := content
	if runes := []rune(content); len(runes) > previewLength {
		docContent = string(runes[:previewLength]) + "..."
		docMetadata["fullContent"] = false
		docMetadata["contentLength"] = len(runes)
	}

	docNode, err := b.createNode(ctx, KnowledgeNode{
		Key:      options.DocumentKey,
		Type:     NodeDocument,
		Name:     name,
		Content:  docContent,
		Metadata: docMetadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create document node: %w", err)
	}

	result := &ProcessResult{DocumentNode: docNode}

	for i, text := range chunks {
		chunkNode, err := b.createNode(ctx, KnowledgeNode{
			Type:    NodeDocumentChunk,
			Name:    fmt.Sprintf("%s - Chunk %d", name, i+1),
			Content: text,
			Metadata: map[string]any{
				"chunkIndex": i,
				"documentId": docNode.Key,
				"isChunk":    true,
				"tokenCount": chunk.TokenCount(text),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create chunk %d: %w", i, err)
		}
		result.ChunkNodes = append(result.ChunkNodes, chunkNode)

		edgeMetadata := map[string]any{"chunkIndex": i}
		if err := b.createEdgePair(ctx, docNode.Key, chunkNode.Key, edgeMetadata); err != nil {
			return nil, fmt.Errorf("failed to link chunk %d: %w", i, err)
		}

		if options.OnChunk != nil {
			options.OnChunk(i, len(chunks))
		}
	}

	if options.ExtractEntities {
		entities, err := b.extractEntities(ctx, docNode, options.StructuredElements)
		if err != nil {
			return nil, err
		}
		result.EntityNodes = entities
	}

	if options.ExtractConcepts {
		concepts, err := b.extractConcepts(ctx, docNode, result.ChunkNodes)
		if err != nil {
			return nil, err
		}
		result.ConceptNodes = concepts
	}

	logger.Info("[Graph] Document processed",
		"document", docNode.Key,
		"chunks", len(result.ChunkNodes),
		"entities", len(result.EntityNodes),
		"concepts", len(result.ConceptNodes))

	return result, nil
}

// createNode embeds the node content and inserts the node. An embedding
// failure aborts the operation; nodes without embeddings are never written.
func (b *Builder) createNode(ctx context.Context, node KnowledgeNode) (KnowledgeNode, error) {
	embedding, err := b.ai.GenerateEmbedding(ctx, []byte(node.Content))
	if err != nil {
		return KnowledgeNode{}, fmt.Errorf("failed to embed node %q: %w", node.Name, err)
	}
	node.Embedding = embedding

	return b.insertPreEmbedded(ctx, node)
}

// UpdateNodeContent replaces a node's content and regenerates its embedding
// in the same update. The stored vector must always describe the stored
// text; callers changing content go through here, never through a bare
// store update.
func (b *Builder) UpdateNodeContent(ctx context.Context, key string, content string) (*KnowledgeNode, error) {
	embedding, err := b.ai.GenerateEmbedding(ctx, []byte(content))
	if err != nil {
		return nil, fmt.Errorf("failed to embed updated content for %s: %w", key, err)
	}

	node, err := b.store.UpdateNode(ctx, key, map[string]any{
		"content":   content,
		"embedding": embedding,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update node %s: %w", key, err)
	}
	return node, nil
}

func newKey() (string, error) {
	key, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// createEdgePair writes the CONTAINS edge document→chunk and the reciprocal
// PART_OF edge chunk→document. Both or neither, best effort.
func (b *Builder) createEdgePair(ctx context.Context, docKey string, chunkKey string, metadata map[string]any) error {
	if _, err := b.createEdge(ctx, KnowledgeEdge{
		From:     docKey,
		To:       chunkKey,
		Type:     EdgeContains,
		Metadata: metadata,
	}); err != nil {
		return err
	}

	_, err := b.createEdge(ctx, KnowledgeEdge{
		From:     chunkKey,
		To:       docKey,
		Type:     EdgePartOf,
		Metadata: metadata,
	})
	return err
}

func (b *Builder) createEdge(ctx context.Context, edge KnowledgeEdge) (KnowledgeEdge, error) {
	if edge.Weight == 0 {
		edge.Weight = DefaultEdgeWeight
	}
	if edge.Key == "" {
		key, err := newKey()
		if err != nil {
			return KnowledgeEdge{}, err
		}
		edge.Key = key
	}
	return b.store.InsertEdge(ctx, edge)
}
