package capture

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
)

const defaultPollInterval = 500 * time.Millisecond

// ErrClipboardUnsupported is returned by Watcher.Run when the system
// clipboard cannot be read on this host.
var ErrClipboardUnsupported = errors.New("system clipboard is not supported on this host")

// ReadFunc reads the current clipboard text.
type ReadFunc func() (string, error)

// WatcherConfig is the configuration for a Watcher.
type WatcherConfig struct {
	// Interval between clipboard reads (defaults to 500ms).
	Interval time.Duration

	// SourceURL and SourceTitle are attached to every capture.
	SourceURL   string
	SourceTitle string

	// Read overrides the system clipboard reader.
	Read ReadFunc

	Now    func() time.Time
	Logger *slog.Logger
}

// Watcher polls the system clipboard and reports every change of content to
// an Agent as a copy event.
type Watcher struct {
	agent  *Agent
	config WatcherConfig
}

// NewWatcher creates a Watcher feeding agent.
func NewWatcher(agent *Agent, c WatcherConfig) *Watcher {
	if c.Interval <= 0 {
		c.Interval = defaultPollInterval
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}

	return &Watcher{agent: agent, config: c}
}

// Run polls until ctx is done. The first successful read is the baseline
// and is not captured. Read errors are skipped.
func (w *Watcher) Run(ctx context.Context) error {
	read := w.config.Read
	if read == nil {
		if clipboard.Unsupported {
			return ErrClipboardUnsupported
		}
		read = clipboard.ReadAll
	}

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	var (
		last     string
		baseline bool
	)

	poll := func() {
		text, err := read()
		if err != nil {
			w.config.Logger.Debug("clipboard read failed", "error", err)
			return
		}

		if !baseline {
			baseline = true
			last = text
			return
		}

		if text == last {
			return
		}
		last = text

		w.agent.Capture(CopyEvent{
			ClipboardText: text,
			URL:           w.config.SourceURL,
			Title:         w.config.SourceTitle,
			TS:            w.config.Now(),
		})
	}

	w.config.Logger.Debug("clipboard watcher started", "interval", w.config.Interval)
	poll()

	for {
		select {
		case <-ctx.Done():
			w.config.Logger.Debug("clipboard watcher stopped")
			return nil
		case <-ticker.C:
			poll()
		}
	}
}
