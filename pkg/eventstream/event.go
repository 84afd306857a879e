package eventstream

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/cliptape/pkg/clip"
	"github.com/papercomputeco/cliptape/pkg/kv"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeHistoryChanged is emitted after the clipboard history is written.
	EventTypeHistoryChanged = "cliptape.history.changed"

	// EventTypeSettingsChanged is emitted after the settings are written.
	EventTypeSettingsChanged = "cliptape.settings.changed"

	// EventTypeStoreChanged is emitted for any other key.
	EventTypeStoreChanged = "cliptape.store.changed"
)

// ChangeEvent is a transport-neutral payload for one changed store key.
type ChangeEvent struct {
	SchemaVersion int             `json:"schema_version"`
	EventType     string          `json:"event_type"`
	EventID       string          `json:"event_id"`
	EmittedAt     time.Time       `json:"emitted_at"`
	Source        EventSource     `json:"source"`
	Key           string          `json:"key"`
	OldValue      json.RawMessage `json:"old_value,omitempty"`
	NewValue      json.RawMessage `json:"new_value,omitempty"`
}

// EventSource identifies the daemon that observed the change.
type EventSource struct {
	Host   string `json:"host,omitempty"`
	Driver string `json:"driver"`
}

// NewChangeEvent builds the event for change.
func NewChangeEvent(change kv.Change, source EventSource, now time.Time) *ChangeEvent {
	return &ChangeEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeFor(change.Key),
		EventID:       uuid.NewString(),
		EmittedAt:     now.UTC(),
		Source:        source,
		Key:           change.Key,
		OldValue:      change.OldValue,
		NewValue:      change.NewValue,
	}
}

// EventTypeFor maps a store key to its event type.
func EventTypeFor(key string) string {
	switch key {
	case clip.HistoryKey:
		return EventTypeHistoryChanged
	case clip.SettingsKey:
		return EventTypeSettingsChanged
	default:
		return EventTypeStoreChanged
	}
}
