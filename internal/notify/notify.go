// Package notify delivers document-processing progress to interested
// subscribers. Delivery is fire-and-forget: a lost notification never fails
// the pipeline.
package notify

import "time"

// Status is the lifecycle state reported for a document.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Event is one progress update for a document.
type Event struct {
	DocumentID string    `json:"documentId"`
	Status     Status    `json:"status"`
	Progress   int       `json:"progress"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// Notifier publishes progress events. Implementations must never block the
// caller on delivery problems.
type Notifier interface {
	Notify(event Event)
}

// Noop discards all events.
type Noop struct{}

func (Noop) Notify(Event) {}
