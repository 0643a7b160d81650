package nop

import (
	"context"

	"github.com/papercomputeco/chameleon/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishAttack validates input and otherwise does nothing.
func (p *Publisher) PublishAttack(_ context.Context, event *eventstream.AttackRecordedEvent) error {
	if event == nil {
		return eventstream.ErrNilAttackEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
