package capture

import (
	"log/slog"

	"github.com/papercomputeco/cliptape/pkg/coordinator"
)

// Agent extracts text from copy events and hands it to the capture queue.
type Agent struct {
	queue  *Queue
	logger *slog.Logger
}

// NewAgent creates an Agent that submits captures to queue.
func NewAgent(queue *Queue, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Agent{queue: queue, logger: logger}
}

// Capture records a copy event. It never blocks on delivery and never
// fails: empty text is ignored, as are captures the queue cannot take.
func (a *Agent) Capture(ev CopyEvent) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Debug("capture failed", "panic", r)
		}
	}()

	text := Extract(ev)
	if text == "" {
		return
	}

	req := coordinator.Capture{
		Text:  text,
		URL:   ev.URL,
		Title: ev.Title,
	}
	if !ev.TS.IsZero() {
		ts := ev.TS.UnixMilli()
		req.TS = &ts
	}

	a.queue.Enqueue(req)
}
