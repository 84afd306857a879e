// Package eventstream publishes clipboard store changes to an event stream
// backend.
package eventstream

import "context"

// Publisher publishes change events to an event stream backend.
type Publisher interface {
	PublishChange(ctx context.Context, event *ChangeEvent) error
	Close() error
}
