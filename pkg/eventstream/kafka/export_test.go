package kafka

import (
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// MessageWriter exposes messageWriter to the external test package.
type MessageWriter = messageWriter

// NewPublisherWithWriter builds a Publisher around a test writer.
func NewPublisherWithWriter(w MessageWriter, timeout time.Duration) *Publisher {
	return newPublisher(w, timeout)
}

var _ MessageWriter = (*kafkago.Writer)(nil)
