package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/corvid-labs/lodestone/internal/server/middleware"
	"github.com/corvid-labs/lodestone/pkg/graph"
)

// CreateTextDocumentHandler ingests plain text synchronously, for callers
// that already hold the document's content.
func CreateTextDocumentHandler(c echo.Context) error {
	type createTextData struct {
		Name            string         `json:"name" validate:"required"`
		Content         string         `json:"content" validate:"required"`
		Metadata        map[string]any `json:"metadata"`
		ChunkSize       int            `json:"chunk_size"`
		ChunkOverlap    int            `json:"chunk_overlap"`
		MaxChunks       int            `json:"max_chunks"`
		ExtractConcepts bool           `json:"extract_concepts"`
	}

	type createTextResponse struct {
		Message    string `json:"message"`
		DocumentID string `json:"document_id,omitempty"`
		ChunkCount int    `json:"chunk_count,omitempty"`
	}

	data := new(createTextData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createTextResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createTextResponse{
			Message: "Invalid request params",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	result, err := app.Builder.ProcessDocument(ctx, data.Content, data.Name, data.Metadata, graph.ProcessOptions{
		ChunkSize:       data.ChunkSize,
		ChunkOverlap:    data.ChunkOverlap,
		MaxChunks:       data.MaxChunks,
		ExtractConcepts: data.ExtractConcepts,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createTextResponse{
			Message: "Failed to process document",
		})
	}

	return c.JSON(http.StatusCreated, createTextResponse{
		Message:    "Document processed",
		DocumentID: result.DocumentNode.Key,
		ChunkCount: len(result.ChunkNodes),
	})
}
