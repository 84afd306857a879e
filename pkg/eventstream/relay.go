package eventstream

import (
	"context"
	"log/slog"
	"time"

	"github.com/papercomputeco/cliptape/pkg/kv"
)

// Relay forwards store changes from a subscription to a Publisher.
type Relay struct {
	publisher Publisher
	source    EventSource
	logger    *slog.Logger
	now       func() time.Time
}

// NewRelay creates a Relay.
func NewRelay(publisher Publisher, source EventSource, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Relay{
		publisher: publisher,
		source:    source,
		logger:    logger,
		now:       time.Now,
	}
}

// Run publishes every change received on sub until ctx is done or the
// subscription is closed. Publish failures are logged and skipped.
func (r *Relay) Run(ctx context.Context, sub *kv.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-sub.C:
			if !ok {
				return
			}

			event := NewChangeEvent(change, r.source, r.now())
			if err := r.publisher.PublishChange(ctx, event); err != nil {
				r.logger.Warn("failed to publish change event",
					"key", change.Key,
					"event_id", event.EventID,
					"error", err,
				)
				continue
			}

			r.logger.Debug("published change event", "key", change.Key, "event_type", event.EventType)
		}
	}
}
