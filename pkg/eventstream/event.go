package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/chameleon/pkg/storage"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeAttackRecorded is emitted after a trap request is persisted.
	EventTypeAttackRecorded = "chameleon.attack.recorded"
)

// AttackRecordedEvent is a transport-neutral payload for a recorded attack.
type AttackRecordedEvent struct {
	SchemaVersion int               `json:"schema_version"`
	EventType     string            `json:"event_type"`
	EventID       string            `json:"event_id"`
	EmittedAt     time.Time         `json:"emitted_at"`
	Source        EventSource       `json:"source"`
	Attack        storage.AttackLog `json:"attack"`
	SynthMeta     SynthMeta         `json:"synth"`
}

// EventSource identifies the trap instance that saw the request.
type EventSource struct {
	Service  string `json:"service"`
	Listener string `json:"listener,omitempty"`
}

// SynthMeta describes how the response body was produced.
type SynthMeta struct {
	Provider   string `json:"provider,omitempty"`
	Outcome    string `json:"outcome"`
	DurationMs int64  `json:"duration_ms"`
}

// NewAttackRecordedEvent wraps log in a v1 event stamped with now.
func NewAttackRecordedEvent(log storage.AttackLog, source EventSource, meta SynthMeta, now time.Time) *AttackRecordedEvent {
	return &AttackRecordedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeAttackRecorded,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     now.UTC(),
		Source:        source,
		Attack:        log,
		SynthMeta:     meta,
	}
}
