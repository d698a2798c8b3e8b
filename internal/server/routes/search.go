package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/corvid-labs/lodestone/internal/server/middleware"
	"github.com/corvid-labs/lodestone/pkg/graph"
	"github.com/corvid-labs/lodestone/pkg/store"
)

// SearchHandler finds graph nodes matching the query, preferring semantic
// similarity and falling back to substring matching.
func SearchHandler(c echo.Context) error {
	type searchData struct {
		Query string `query:"q" validate:"required"`
		Type  string `query:"type"`
		Limit int    `query:"limit"`
	}

	type searchResponse struct {
		Message string                `json:"message,omitempty"`
		Results []graph.KnowledgeNode `json:"results"`
	}

	data := new(searchData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchResponse{
			Message: "Invalid request params",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	results, err := store.SearchNodes(ctx, app.GraphStore, app.AIClient, data.Query, graph.NodeType(data.Type), data.Limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, searchResponse{
			Message: "Search failed",
		})
	}

	for i := range results {
		results[i].Embedding = nil
	}
	if results == nil {
		results = []graph.KnowledgeNode{}
	}

	return c.JSON(http.StatusOK, searchResponse{Results: results})
}
