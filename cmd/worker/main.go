package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/corvid-labs/lodestone/internal/notify"
	"github.com/corvid-labs/lodestone/internal/queue"
	"github.com/corvid-labs/lodestone/internal/server"
	"github.com/corvid-labs/lodestone/internal/storage"
	"github.com/corvid-labs/lodestone/internal/util"
	"github.com/corvid-labs/lodestone/pkg/extract"
	"github.com/corvid-labs/lodestone/pkg/graph"
	"github.com/corvid-labs/lodestone/pkg/logger"
	"github.com/corvid-labs/lodestone/pkg/logger/console"
	"github.com/corvid-labs/lodestone/pkg/store/memory"
	"github.com/corvid-labs/lodestone/pkg/store/pg"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	// Init s3 client
	s3Client := storage.NewS3Client(ctx)

	aiClient := server.NewAIClient()

	// Init graph store
	var graphStore graph.GraphStore
	if databaseURL := util.GetEnv("DATABASE_URL"); databaseURL != "" {
		pgConn, err := pgxpool.New(ctx, databaseURL)
		if err != nil {
			logger.Fatal("Unable to connect to database", "err", err)
		}
		defer pgConn.Close()
		pgConn.Config().AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			return pgxvec.RegisterTypes(ctx, conn)
		}
		graphStore = pg.NewStore(pgConn)
	} else {
		logger.Warn("No DATABASE_URL configured, using in-memory graph store")
		graphStore = memory.NewStore()
	}

	// Extraction chain: structured service first (when configured), then the
	// type-specific strategies in order.
	var structured *extract.StructuredClient
	if extractURL := util.GetEnv("EXTRACT_SERVICE_URL"); extractURL != "" {
		structured = extract.NewStructuredClient(extract.NewStructuredClientParams{
			BaseURL: extractURL,
			APIKey:  util.GetEnv("EXTRACT_SERVICE_KEY"),
		})
	}

	ocr := extract.NewOCRStrategy(extract.NewOCRStrategyParams{
		AIClient: aiClient,
		Parallel: int(util.GetEnvNumeric("OCR_PARALLEL", 4)),
	})

	extractor := extract.NewExtractor(extract.NewExtractorParams{
		Structured: structured,
		Strategies: []extract.Strategy{
			extract.NewPDFOcrStrategy(ocr),
			ocr,
			extract.NewHTMLStrategy(),
			extract.NewTextStrategy(),
		},
	})

	builder := graph.NewBuilder(graph.NewBuilderParams{
		Store:    graphStore,
		AIClient: aiClient,
	})

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	// Init rabbitmq queues if not exist
	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	notifier := notify.NewRabbitMQNotifier(ch)

	logger.Info("Listening for messages")

	// Create a single consumer channel with prefetch=1
	// This ensures only ONE message is delivered at a time across all queues
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	err = consumerCh.Qos(1, 0, true)
	if err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	type queuedMessage struct {
		msg       amqp.Delivery
		queueName string
	}

	messageChan := make(chan queuedMessage)

	for _, queueName := range queue.Queues {
		go func(qName string) {
			consumerTag := fmt.Sprintf("%s_consumer", qName)
			msgs, err := consumerCh.Consume(
				qName,
				consumerTag,
				false, // autoAck
				false, // exclusive
				false, // noLocal
				false, // noWait
				nil,   // args
			)
			if err != nil {
				logger.Fatal("Failed to start consuming", "queue", qName, "err", err)
			}

			for {
				select {
				case <-ctx.Done():
					logger.Info("Stopping consumer", "queue", qName)
					return
				case msg, ok := <-msgs:
					if !ok {
						logger.Info("Message channel closed", "queue", qName)
						return
					}
					messageChan <- queuedMessage{msg: msg, queueName: qName}
				}
			}
		}(queueName)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping message processor")
				return
			case qm := <-messageChan:
				startTime := time.Now()
				logger.Info("Received message", "queue", qm.queueName)

				var processingErr error
				switch qm.queueName {
				case queue.IngestQueue:
					processingErr = queue.ProcessIngestMessage(ctx, s3Client, extractor, builder, notifier, qm.msg.Body)
				case queue.DeleteQueue:
					processingErr = queue.ProcessDeleteMessage(ctx, s3Client, graphStore, qm.msg.Body)
				}

				// If there was an error send to retry or dead-letter, otherwise ack the message
				if processingErr != nil {
					logger.Error("Error processing message", "queue", qm.queueName, "err", processingErr)
					handleProcessingError(consumerCh, qm.msg, qm.queueName)
				} else {
					err = qm.msg.Ack(false)
					if err != nil {
						logger.Error("Failed to ack message", "err", err)
					}
					logger.Info("Message processed successfully", "queue", qm.queueName)
				}

				processingDuration := time.Since(startTime)
				hours := int(processingDuration.Hours())
				minutes := int(processingDuration.Minutes()) % 60
				seconds := int(processingDuration.Seconds()) % 60
				logger.Info(
					"Processing time",
					"duration", fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds),
				)
				logger.Info("Waiting for next message")
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")
}

func handleProcessingError(ch *amqp.Channel, msg amqp.Delivery, queueName string) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	// If message has been retried 10 times, send to dead-letter
	if retries >= 10 {
		dlqName := queueName + "_dlq"
		logger.Info("Sending message to DLQ", "dlq", dlqName)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers["x-retries"] = retries + 1

	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
