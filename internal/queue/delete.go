package queue

import (
	"context"
	"encoding/json"
	"fmt"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/corvid-labs/lodestone/internal/storage"
	"github.com/corvid-labs/lodestone/pkg/graph"
	"github.com/corvid-labs/lodestone/pkg/logger"
)

// ProcessDeleteMessage removes a document's remaining traces: any graph
// nodes still present (chunks and the document itself) and the stored file.
func ProcessDeleteMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	graphStore graph.GraphStore,
	msg []byte,
) error {
	data := new(DeleteMessage)
	if err := json.Unmarshal(msg, data); err != nil {
		return fmt.Errorf("failed to decode delete message: %w", err)
	}

	if err := RemoveDocumentGraph(ctx, graphStore, data.DocumentID); err != nil {
		return err
	}

	if data.FileKey != "" {
		if err := storage.DeleteFile(ctx, s3Client, data.FileKey); err != nil {
			return fmt.Errorf("failed to delete stored file %s: %w", data.FileKey, err)
		}
	}

	logger.Info("[Queue] Document deleted", "document", data.DocumentID)
	return nil
}

// RemoveDocumentGraph removes the document's chunk nodes and then the
// document node, each with its edges.
func RemoveDocumentGraph(ctx context.Context, graphStore graph.GraphStore, documentKey string) error {
	neighbors, err := graphStore.TraverseOneHop(ctx, documentKey, graph.EdgeContains, graph.DirectionOutgoing)
	if err != nil {
		return fmt.Errorf("failed to list document chunks: %w", err)
	}

	for _, n := range neighbors {
		if n.Node.Type != graph.NodeDocumentChunk {
			continue
		}
		if _, err := graphStore.RemoveNodeCascade(ctx, n.Node.Key); err != nil {
			return fmt.Errorf("failed to remove chunk %s: %w", n.Node.Key, err)
		}
	}

	if _, err := graphStore.RemoveNodeCascade(ctx, documentKey); err != nil {
		return fmt.Errorf("failed to remove document %s: %w", documentKey, err)
	}
	return nil
}
