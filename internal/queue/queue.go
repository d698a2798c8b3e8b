package queue

import (
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/corvid-labs/lodestone/internal/util"
	"github.com/corvid-labs/lodestone/pkg/logger"
)

const (
	IngestQueue = "ingest_queue"
	DeleteQueue = "delete_queue"

	// PubsubExchange carries progress notifications.
	PubsubExchange = "pubsub"
)

// Queues lists every work queue the worker consumes.
var Queues = []string{IngestQueue, DeleteQueue}

// Init connects to RabbitMQ using the configured credentials.
func Init() *amqp091.Connection {
	user := util.GetEnv("RABBITMQ_USER")
	pass := util.GetEnv("RABBITMQ_PASSWORD")
	host := util.GetEnv("RABBITMQ_HOST")
	port := util.GetEnv("RABBITMQ_PORT")

	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		user,
		pass,
		host,
		port,
	)

	conn, err := amqp091.Dial(connURL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

// SetupQueues declares the pubsub exchange and every work queue together
// with its retry and dead-letter companions.
func SetupQueues(ch *amqp091.Channel) error {
	err := ch.ExchangeDeclare(
		PubsubExchange,
		"topic",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	for _, name := range Queues {
		if _, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", name, err)
		}

		if _, err := ch.QueueDeclare(
			name+"_dlq",
			true,
			false,
			false,
			false,
			nil,
		); err != nil {
			return fmt.Errorf("failed to declare queue %s_dlq: %w", name, err)
		}

		if _, err := ch.QueueDeclare(
			name+"_retry",
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(10000),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		); err != nil {
			return fmt.Errorf("failed to declare queue %s_retry: %w", name, err)
		}
	}

	return nil
}

// PublishFIFO publishes a persistent message directly to a work queue.
func PublishFIFO(ch *amqp091.Channel, queueName string, data []byte) error {
	q, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	return ch.Publish(
		"",
		q.Name,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         data,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	)
}
