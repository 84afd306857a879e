// Package kv defines the key-value store the history lives in. Values are
// JSON documents addressed by string keys, and every driver reports writes
// that change a value to its subscribers.
package kv

import (
	"context"
	"encoding/json"
)

// Store is implemented by every storage backend.
type Store interface {
	// Get returns the stored values for keys. Keys that have never been
	// written are omitted from the result rather than reported as errors.
	Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)

	// Set writes every entry of values as a single unit: either all keys are
	// updated or none are.
	Set(ctx context.Context, values map[string]json.RawMessage) error

	// Subscribe registers for change notifications. buffer is the channel
	// capacity; notifications to a full subscriber are dropped.
	Subscribe(buffer int) *Subscription

	// Close closes the store and releases any resources.
	Close() error
}

// Change describes one key whose stored value was replaced.
// OldValue is nil when the key did not exist before the write.
type Change struct {
	Key      string          `json:"key"`
	OldValue json.RawMessage `json:"oldValue,omitempty"`
	NewValue json.RawMessage `json:"newValue,omitempty"`
}

// GetJSON reads key and decodes it into v. It reports false without error
// when the key is absent.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	values, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}

	raw, ok := values[key]
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return true, &DecodeError{Key: key, Err: err}
	}

	return true, nil
}

// Encode marshals each value in values into a map ready for Set.
func Encode(values map[string]any) (map[string]json.RawMessage, error) {
	encoded := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, &EncodeError{Key: k, Err: err}
		}
		encoded[k] = raw
	}

	return encoded, nil
}
