package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/corvid-labs/lodestone/internal/queue"
	"github.com/corvid-labs/lodestone/internal/server/middleware"
	"github.com/corvid-labs/lodestone/internal/storage"
	"github.com/corvid-labs/lodestone/pkg/extract"
)

// CreateDocumentHandler accepts a multipart file upload, stores the bytes,
// and queues the document for asynchronous ingestion.
func CreateDocumentHandler(c echo.Context) error {
	type createDocumentData struct {
		ChunkSize       int    `form:"chunk_size"`
		ChunkOverlap    int    `form:"chunk_overlap"`
		MaxChunks       int    `form:"max_chunks"`
		ExtractEntities bool   `form:"extract_entities"`
		ExtractConcepts bool   `form:"extract_concepts"`
		Metadata        string `form:"metadata"`
	}

	type createDocumentResponse struct {
		Message    string `json:"message"`
		DocumentID string `json:"document_id,omitempty"`
	}

	data := new(createDocumentData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createDocumentResponse{
			Message: "Invalid request params",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, createDocumentResponse{
			Message: "Missing file",
		})
	}

	if extract.TypeFromName(fileHeader.Filename) == extract.TypeUnknown {
		return c.JSON(http.StatusUnsupportedMediaType, createDocumentResponse{
			Message: "Unsupported document type",
		})
	}

	var metadata map[string]any
	if data.Metadata != "" {
		if err := json.Unmarshal([]byte(data.Metadata), &metadata); err != nil {
			return c.JSON(http.StatusBadRequest, createDocumentResponse{
				Message: "Invalid metadata",
			})
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createDocumentResponse{
			Message: "Internal server error",
		})
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createDocumentResponse{
			Message: "Internal server error",
		})
	}

	documentID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createDocumentResponse{
			Message: "Internal server error",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	fileKey, err := storage.PutFile(ctx, app.S3, fileHeader.Filename, documentID, bytes.NewReader(content))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createDocumentResponse{
			Message: "Failed to store file",
		})
	}

	msg := queue.IngestMessage{
		DocumentID: documentID,
		FileKey:    fileKey,
		Name:       fileHeader.Filename,
		Metadata:   metadata,
		Options: queue.IngestOptions{
			ChunkSize:       data.ChunkSize,
			ChunkOverlap:    data.ChunkOverlap,
			MaxChunks:       data.MaxChunks,
			ExtractEntities: data.ExtractEntities,
			ExtractConcepts: data.ExtractConcepts,
		},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createDocumentResponse{
			Message: "Internal server error",
		})
	}
	if err := queue.PublishFIFO(app.Queue, queue.IngestQueue, body); err != nil {
		return c.JSON(http.StatusInternalServerError, createDocumentResponse{
			Message: "Failed to queue document",
		})
	}

	return c.JSON(http.StatusAccepted, createDocumentResponse{
		Message:    "Document queued for processing",
		DocumentID: documentID,
	})
}
