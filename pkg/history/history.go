// Package history owns the clipboard history and its settings. Every
// operation is a full read-modify-write of the two persisted keys against an
// injected kv.Store.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"github.com/papercomputeco/cliptape/pkg/clip"
	"github.com/papercomputeco/cliptape/pkg/kv"
)

// Store applies the history write, merge and trim policy.
//
// A Store is the single writer for the keys it manages within a process:
// read-modify-write cycles are serialized by mu. Separate processes sharing
// one backing kv.Store still race with last-write-wins semantics.
type Store struct {
	kv     kv.Store
	logger *slog.Logger

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store over store.
func New(store kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:     store,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Init writes an empty history and the default settings for whichever of the
// two keys is absent. Existing values are never overwritten.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.kv.Get(ctx, clip.HistoryKey, clip.SettingsKey)
	if err != nil {
		return fmt.Errorf("reading initial state: %w", err)
	}

	missing := map[string]any{}
	if _, ok := existing[clip.HistoryKey]; !ok {
		missing[clip.HistoryKey] = []clip.Item{}
	}
	if _, ok := existing[clip.SettingsKey]; !ok {
		missing[clip.SettingsKey] = clip.DefaultSettings()
	}

	if len(missing) == 0 {
		return nil
	}

	s.logger.Debug("initializing history store", "keys", len(missing))
	return s.write(ctx, missing)
}

// RecordCapture inserts item at the front of the history, removing any older
// item with identical text and trimming to the configured limit. Items whose
// text is blank are ignored.
func (s *Store) RecordCapture(ctx context.Context, item clip.Item) error {
	if clip.Blank(item.Text) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, settings, err := s.read(ctx)
	if err != nil {
		return err
	}

	deduped := lo.Reject(items, func(existing clip.Item, _ int) bool {
		return existing.Text == item.Text
	})

	next := append([]clip.Item{item}, deduped...)
	next = truncate(next, clip.EffectiveMaxItems(settings))

	s.logger.Debug("recording capture",
		"chars", len(item.Text),
		"replaced", len(items)-len(deduped),
		"size", len(next),
	)

	return s.write(ctx, map[string]any{clip.HistoryKey: next})
}

// List returns the full newest-first history. An uninitialized or unreadable
// history is reported as empty.
func (s *Store) List(ctx context.Context) ([]clip.Item, error) {
	values, err := s.kv.Get(ctx, clip.HistoryKey)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	return decodeItems(values[clip.HistoryKey]), nil
}

// Clear replaces the history with an empty list.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(ctx, map[string]any{clip.HistoryKey: []clip.Item{}})
}

// DeleteAt removes the item at index (0 is the newest). Out of range indexes
// are ignored.
func (s *Store) DeleteAt(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.kv.Get(ctx, clip.HistoryKey)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	items := decodeItems(values[clip.HistoryKey])
	if index < 0 || index >= len(items) {
		return nil
	}

	next := append(items[:index:index], items[index+1:]...)
	return s.write(ctx, map[string]any{clip.HistoryKey: next})
}

// Settings returns the stored settings, or the defaults when none are stored.
// A stored limit outside the allowed range is clamped.
func (s *Store) Settings(ctx context.Context) (clip.Settings, error) {
	var settings clip.Settings
	found, err := kv.GetJSON(ctx, s.kv, clip.SettingsKey, &settings)

	var decodeErr *kv.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		s.logger.Debug("ignoring malformed settings", "error", err)
		return clip.DefaultSettings(), nil
	case err != nil:
		return clip.Settings{}, fmt.Errorf("reading settings: %w", err)
	case !found:
		return clip.DefaultSettings(), nil
	}

	return normalizeSettings(settings), nil
}

// SetMaxItems clamps requested into the allowed range, stores it and trims
// the history to the new limit in the same write.
func (s *Store) SetMaxItems(ctx context.Context, requested any) (clip.Settings, error) {
	maxItems := clip.ClampMaxItems(requested)

	s.mu.Lock()
	defer s.mu.Unlock()

	items, settings, err := s.read(ctx)
	if err != nil {
		return clip.Settings{}, err
	}

	settings.MaxItems = maxItems
	err = s.write(ctx, map[string]any{
		clip.SettingsKey: settings,
		clip.HistoryKey:  truncate(items, maxItems),
	})
	if err != nil {
		return clip.Settings{}, err
	}

	return settings, nil
}

func (s *Store) read(ctx context.Context) ([]clip.Item, clip.Settings, error) {
	values, err := s.kv.Get(ctx, clip.HistoryKey, clip.SettingsKey)
	if err != nil {
		return nil, clip.Settings{}, fmt.Errorf("reading history: %w", err)
	}

	return decodeItems(values[clip.HistoryKey]), decodeSettings(values[clip.SettingsKey]), nil
}

func (s *Store) write(ctx context.Context, values map[string]any) error {
	encoded, err := kv.Encode(values)
	if err != nil {
		return err
	}

	if err := s.kv.Set(ctx, encoded); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}

	return nil
}

// decodeItems treats anything that is not a JSON array of items as empty.
func decodeItems(raw json.RawMessage) []clip.Item {
	items := []clip.Item{}
	if len(raw) == 0 {
		return items
	}

	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return []clip.Item{}
	}

	return items
}

// decodeSettings falls back to the defaults for absent, malformed or empty
// settings.
func decodeSettings(raw json.RawMessage) clip.Settings {
	if len(raw) == 0 {
		return clip.DefaultSettings()
	}

	var settings clip.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return clip.DefaultSettings()
	}

	return normalizeSettings(settings)
}

// normalizeSettings replaces an unset limit with the default and clamps the
// rest into range.
func normalizeSettings(settings clip.Settings) clip.Settings {
	settings.MaxItems = clip.EffectiveMaxItems(settings)
	return settings
}

func truncate(items []clip.Item, limit int) []clip.Item {
	if len(items) <= limit {
		return items
	}

	return items[:limit]
}
