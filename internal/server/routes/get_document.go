package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/corvid-labs/lodestone/internal/server/middleware"
	"github.com/corvid-labs/lodestone/pkg/graph"
)

// GetDocumentHandler returns a document node and its chunk count.
func GetDocumentHandler(c echo.Context) error {
	type getDocumentData struct {
		Key string `param:"key" validate:"required"`
	}

	type getDocumentResponse struct {
		Message    string               `json:"message,omitempty"`
		Document   *graph.KnowledgeNode `json:"document,omitempty"`
		ChunkCount int                  `json:"chunk_count"`
	}

	data := new(getDocumentData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, getDocumentResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, getDocumentResponse{
			Message: "Invalid request params",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	node, err := app.GraphStore.GetNode(ctx, data.Key)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, getDocumentResponse{
			Message: "Internal server error",
		})
	}
	if node == nil || node.Type != graph.NodeDocument {
		return c.JSON(http.StatusNotFound, getDocumentResponse{
			Message: "Document not found",
		})
	}

	chunks, err := app.GraphStore.TraverseOneHop(ctx, node.Key, graph.EdgeContains, graph.DirectionOutgoing)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, getDocumentResponse{
			Message: "Internal server error",
		})
	}

	// Embeddings are internal; strip before returning.
	node.Embedding = nil

	return c.JSON(http.StatusOK, getDocumentResponse{
		Document:   node,
		ChunkCount: len(chunks),
	})
}
