package notify

import (
	"encoding/json"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/corvid-labs/lodestone/pkg/logger"
)

const progressExchange = "pubsub"

// RabbitMQNotifier publishes progress events to the pubsub topic exchange
// under documents.progress.<documentId>. Publish failures are logged and
// dropped.
type RabbitMQNotifier struct {
	ch *amqp091.Channel
}

// NewRabbitMQNotifier creates a notifier on an open channel.
func NewRabbitMQNotifier(ch *amqp091.Channel) *RabbitMQNotifier {
	return &RabbitMQNotifier{ch: ch}
}

func (n *RabbitMQNotifier) Notify(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	body, err := json.Marshal(event)
	if err != nil {
		logger.Warn("[Notify] Failed to encode progress event",
			"document", event.DocumentID, "error", err)
		return
	}

	err = n.ch.Publish(
		progressExchange,
		"documents.progress."+event.DocumentID,
		false,
		false,
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   event.Timestamp,
		},
	)
	if err != nil {
		logger.Warn("[Notify] Failed to publish progress event",
			"document", event.DocumentID, "error", err)
	}
}
