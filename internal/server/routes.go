package server

import (
	"github.com/labstack/echo/v4"

	"github.com/corvid-labs/lodestone/internal/server/middleware"
	"github.com/corvid-labs/lodestone/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Document routes
	apiRoutes.POST("/documents", routes.CreateDocumentHandler)
	apiRoutes.POST("/documents/text", routes.CreateTextDocumentHandler)
	apiRoutes.GET("/documents/:key", routes.GetDocumentHandler)
	apiRoutes.DELETE("/documents/:key", routes.DeleteDocumentHandler)

	// Search routes
	apiRoutes.GET("/search", routes.SearchHandler)
}
