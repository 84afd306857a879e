// Package inmemory provides a kv.Store held entirely in process memory.
package inmemory

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"sync"

	"github.com/papercomputeco/cliptape/pkg/kv"
)

// Driver implements kv.Store using an in-memory map.
type Driver struct {
	*kv.Notifier

	// mu is a read write sync mutex for locking the mapping of values
	mu sync.RWMutex

	// values maps keys to their stored JSON documents
	values map[string]json.RawMessage

	closed bool
}

// NewDriver creates a new in-memory store.
func NewDriver() *Driver {
	return &Driver{
		Notifier: kv.NewNotifier(),
		values:   make(map[string]json.RawMessage),
	}
}

// Get returns copies of the stored values for keys.
func (d *Driver) Get(_ context.Context, keys ...string) (map[string]json.RawMessage, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return nil, kv.ErrClosed
	}

	result := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		if v, ok := d.values[key]; ok {
			result[key] = slices.Clone(v)
		}
	}

	return result, nil
}

// Set stores every value and notifies subscribers of the keys that changed.
func (d *Driver) Set(_ context.Context, values map[string]json.RawMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return kv.ErrClosed
	}

	before := make(map[string]json.RawMessage, len(values))
	after := make(map[string]json.RawMessage, len(values))
	for key, v := range values {
		if old, ok := d.values[key]; ok {
			before[key] = old
		}
		after[key] = slices.Clone(v)
	}

	maps.Copy(d.values, after)
	d.Publish(kv.Diff(before, after)...)

	return nil
}

// Close marks the driver closed and ends all subscriptions.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	d.Notifier.Close()
	return nil
}
