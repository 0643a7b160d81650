package eventstream

import "context"

// Publisher publishes attack events to an event stream backend.
type Publisher interface {
	PublishAttack(ctx context.Context, event *AttackRecordedEvent) error
	Close() error
}
