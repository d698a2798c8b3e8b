package middleware

import (
	"github.com/MicahParks/keyfunc/v3"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/corvid-labs/lodestone/pkg/ai"
	"github.com/corvid-labs/lodestone/pkg/graph"
)

// App bundles the long-lived collaborators handlers need.
type App struct {
	GraphStore   graph.GraphStore
	Builder      *graph.Builder
	AIClient     ai.Client
	Queue        *amqp091.Channel
	Key          *keyfunc.Keyfunc
	S3           *s3.Client
	MasterAPIKey string
}

// AppUser is the authenticated caller.
type AppUser struct {
	Subject string
	Role    string
}

// AppContext wraps the echo context with application state.
type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

// AppContextMiddleware attaches the App to every request context.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
