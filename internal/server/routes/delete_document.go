package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/corvid-labs/lodestone/internal/queue"
	"github.com/corvid-labs/lodestone/internal/server/middleware"
	"github.com/corvid-labs/lodestone/pkg/graph"
	"github.com/corvid-labs/lodestone/pkg/logger"
)

// DeleteDocumentHandler removes a document with its chunks and edges from
// the graph, then queues removal of the stored file.
func DeleteDocumentHandler(c echo.Context) error {
	type deleteDocumentData struct {
		Key string `param:"key" validate:"required"`
	}

	type deleteDocumentResponse struct {
		Message string `json:"message"`
	}

	data := new(deleteDocumentData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, deleteDocumentResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, deleteDocumentResponse{
			Message: "Invalid request params",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	node, err := app.GraphStore.GetNode(ctx, data.Key)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, deleteDocumentResponse{
			Message: "Internal server error",
		})
	}
	if node == nil || node.Type != graph.NodeDocument {
		return c.JSON(http.StatusNotFound, deleteDocumentResponse{
			Message: "Document not found",
		})
	}

	fileKey, _ := node.Metadata["fileKey"].(string)

	if err := queue.RemoveDocumentGraph(ctx, app.GraphStore, node.Key); err != nil {
		return c.JSON(http.StatusInternalServerError, deleteDocumentResponse{
			Message: "Failed to delete document",
		})
	}

	if fileKey != "" {
		msg := queue.DeleteMessage{DocumentID: node.Key, FileKey: fileKey}
		body, err := json.Marshal(msg)
		if err == nil {
			err = queue.PublishFIFO(app.Queue, queue.DeleteQueue, body)
		}
		if err != nil {
			// The graph is already clean; the orphaned file is logged and
			// left for manual cleanup.
			logger.Warn("[Server] Failed to queue file deletion",
				"document", node.Key, "fileKey", fileKey, "err", err)
		}
	}

	return c.JSON(http.StatusOK, deleteDocumentResponse{
		Message: "Document deleted",
	})
}
