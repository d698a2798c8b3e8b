package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/corvid-labs/lodestone/internal/notify"
	"github.com/corvid-labs/lodestone/internal/storage"
	"github.com/corvid-labs/lodestone/pkg/extract"
	"github.com/corvid-labs/lodestone/pkg/graph"
	"github.com/corvid-labs/lodestone/pkg/logger"
)

// ProcessIngestMessage runs the full ingestion pipeline for one document:
// fetch bytes, extract text, chunk, embed, and write the graph. Progress is
// published fire-and-forget; the returned error drives queue retry.
func ProcessIngestMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	extractor *extract.Extractor,
	builder *graph.Builder,
	notifier notify.Notifier,
	msg []byte,
) error {
	data := new(IngestMessage)
	if err := json.Unmarshal(msg, data); err != nil {
		return fmt.Errorf("failed to decode ingest message: %w", err)
	}

	progress := func(percent int, message string) {
		notifier.Notify(notify.Event{
			DocumentID: data.DocumentID,
			Status:     notify.StatusProcessing,
			Progress:   percent,
			Message:    message,
			Timestamp:  time.Now(),
		})
	}

	fail := func(err error) error {
		notifier.Notify(notify.Event{
			DocumentID: data.DocumentID,
			Status:     notify.StatusFailed,
			Progress:   100,
			Message:    err.Error(),
			Timestamp:  time.Now(),
		})
		return err
	}

	progress(0, "processing started")

	content, err := storage.GetFile(ctx, s3Client, data.FileKey)
	if err != nil {
		return fail(fmt.Errorf("failed to fetch document %s: %w", data.FileKey, err))
	}

	result, err := extractor.Extract(ctx, data.Name, content)
	if err != nil {
		return fail(fmt.Errorf("failed to extract document %s: %w", data.Name, err))
	}
	// A non-empty result error means the extraction path gave up on part of
	// the document. Treated like a thrown failure at this layer.
	if result.Error != "" {
		return fail(fmt.Errorf("extraction incomplete for %s: %s", data.Name, result.Error))
	}

	progress(25, "text extracted")

	metadata := data.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["fileKey"] = data.FileKey
	if result.Pages > 0 {
		metadata["pages"] = result.Pages
	}
	metadata["usedStructuredExtraction"] = result.UsedStructuredExtraction

	processed, err := builder.ProcessDocument(ctx, result.Text, data.Name, metadata, graph.ProcessOptions{
		DocumentKey:        data.DocumentID,
		ChunkSize:          data.Options.ChunkSize,
		ChunkOverlap:       data.Options.ChunkOverlap,
		MaxChunks:          data.Options.MaxChunks,
		ExtractEntities:    data.Options.ExtractEntities,
		ExtractConcepts:    data.Options.ExtractConcepts,
		StructuredElements: result.Elements,
		OnChunk: func(index int, total int) {
			// Chunk writes span the 25-95 range.
			percent := 25 + (index+1)*70/total
			progress(percent, fmt.Sprintf("chunk %d/%d written", index+1, total))
		},
	})
	if err != nil {
		return fail(fmt.Errorf("failed to build graph for %s: %w", data.Name, err))
	}

	notifier.Notify(notify.Event{
		DocumentID: data.DocumentID,
		Status:     notify.StatusCompleted,
		Progress:   100,
		Message:    fmt.Sprintf("document processed: %d chunks", len(processed.ChunkNodes)),
		Timestamp:  time.Now(),
	})

	logger.Info("[Queue] Document ingested",
		"document", data.DocumentID,
		"node", processed.DocumentNode.Key,
		"chunks", len(processed.ChunkNodes))

	return nil
}
