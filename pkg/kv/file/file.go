// Package file provides a kv.Store persisted as a single JSON document on
// disk. Edits made to the file by other processes are picked up through
// fsnotify and reported to subscribers like any other write.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/cliptape/pkg/kv"
)

// Driver implements kv.Store backed by a JSON file.
type Driver struct {
	*kv.Notifier

	path   string
	logger *slog.Logger

	mu     sync.Mutex
	values map[string]json.RawMessage
	closed bool

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

// NewDriver opens the store at path, creating parent directories as needed.
// A missing file is treated as an empty store.
func NewDriver(path string, logger *slog.Logger) (*Driver, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving store path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	values, err := readValues(abs)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating store watcher: %w", err)
	}

	// Watch the directory rather than the file: atomic renames replace the
	// inode and would silently drop a file watch.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching store directory: %w", err)
	}

	d := &Driver{
		Notifier: kv.NewNotifier(),
		path:     abs,
		logger:   logger,
		values:   values,
		watcher:  watcher,
	}

	d.wg.Add(1)
	go d.watch()

	return d, nil
}

// Path returns the absolute path of the backing file.
func (d *Driver) Path() string {
	return d.path
}

// Get returns copies of the stored values for keys.
func (d *Driver) Get(_ context.Context, keys ...string) (map[string]json.RawMessage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

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

// Set merges values into the document and rewrites the file atomically.
func (d *Driver) Set(_ context.Context, values map[string]json.RawMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return kv.ErrClosed
	}

	before := make(map[string]json.RawMessage, len(values))
	for key := range values {
		if old, ok := d.values[key]; ok {
			before[key] = old
		}
	}

	merged := maps.Clone(d.values)
	maps.Copy(merged, values)

	if err := writeValues(d.path, merged); err != nil {
		return err
	}

	d.values = merged
	d.Publish(kv.Diff(before, values)...)

	return nil
}

// Close stops watching the file and ends all subscriptions.
func (d *Driver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	err := d.watcher.Close()
	d.wg.Wait()
	d.Notifier.Close()

	return err
}

// watch reloads the document whenever the backing file is written or
// replaced, publishing the keys that differ from the cached copy.
func (d *Driver) watch() {
	defer d.wg.Done()

	for {
		select {
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != d.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			d.reload()

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.logger.Warn("store watcher error", "path", d.path, "error", err)
		}
	}
}

// reload holds mu across the read so a stale event cannot replace values
// written by a Set that completed after the event fired.
func (d *Driver) reload() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	loaded, err := readValues(d.path)
	if err != nil {
		// Editors commonly write in several steps; the next event retries.
		d.logger.Debug("skipping unreadable store file", "path", d.path, "error", err)
		return
	}

	changes := kv.Diff(d.values, loaded)
	if len(changes) == 0 {
		return
	}

	d.values = loaded
	d.logger.Debug("store file changed externally", "path", d.path, "keys", len(changes))
	d.Publish(changes...)
}

func readValues(path string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("reading store file: %w", err)
	}

	values := map[string]json.RawMessage{}
	if len(data) == 0 {
		return values, nil
	}

	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing store file: %w", err)
	}

	return values, nil
}

func writeValues(path string, values map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".kv-*.json")
	if err != nil {
		return fmt.Errorf("creating temp store file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp store file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing store file: %w", err)
	}

	return nil
}
