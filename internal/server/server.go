package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/corvid-labs/lodestone/internal/queue"
	mid "github.com/corvid-labs/lodestone/internal/server/middleware"
	"github.com/corvid-labs/lodestone/internal/storage"
	"github.com/corvid-labs/lodestone/internal/util"
	"github.com/corvid-labs/lodestone/pkg/ai"
	"github.com/corvid-labs/lodestone/pkg/ai/ollama"
	"github.com/corvid-labs/lodestone/pkg/ai/openai"
	"github.com/corvid-labs/lodestone/pkg/graph"
	"github.com/corvid-labs/lodestone/pkg/logger"
	"github.com/corvid-labs/lodestone/pkg/store/memory"
	"github.com/corvid-labs/lodestone/pkg/store/pg"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var key *keyfunc.Keyfunc
	if authURL := util.GetEnv("AUTH_URL"); authURL != "" {
		k, err := keyfunc.NewDefault([]string{authURL + "/jwks"})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		key = &k
	}

	graphStore, cleanup := initGraphStore(ctx)
	defer cleanup()

	aiClient := NewAIClient()

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	if err := queue.SetupQueues(ch); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	s3 := storage.NewS3Client(ctx)

	builder := graph.NewBuilder(graph.NewBuilderParams{
		Store:    graphStore,
		AIClient: aiClient,
	})

	app := &mid.App{
		GraphStore:   graphStore,
		Builder:      builder,
		AIClient:     aiClient,
		Queue:        ch,
		Key:          key,
		S3:           s3,
		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(echomw.CORS())
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("1G"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

// initGraphStore connects to PostgreSQL when DATABASE_URL is set and runs
// migrations; without one it serves from the in-memory store (dev mode).
func initGraphStore(ctx context.Context) (graph.GraphStore, func()) {
	databaseURL := util.GetEnv("DATABASE_URL")
	if databaseURL == "" {
		logger.Warn("No DATABASE_URL configured, using in-memory graph store")
		return memory.NewStore(), func() {}
	}

	migrationsURL := util.GetEnvString("MIGRATIONS_URL", "file://db/migrations")
	if err := pg.Migrate(migrationsURL, databaseURL); err != nil {
		logger.Fatal("Failed to run migrations", "err", err)
	}

	conn, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	conn.Config().AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	return pg.NewStore(conn), conn.Close
}

// NewAIClient builds the configured AI adapter from environment variables.
func NewAIClient() ai.Client {
	adapter := util.GetEnv("AI_ADAPTER")

	switch adapter {
	case "ollama":
		client, err := ollama.NewClient(ollama.NewClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			VisionModel:    util.GetEnv("AI_VISION_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			APIKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 2)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		return client
	default:
		return openai.NewClient(openai.NewClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			VisionModel:    util.GetEnv("AI_VISION_MODEL"),

			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),
			VisionURL:    util.GetEnv("AI_VISION_URL"),
			VisionKey:    util.GetEnv("AI_VISION_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 4)),
		})
	}
}
