// Package clip defines the captured clipboard item, the history settings and
// the small pure helpers (clamping, searching, formatting) shared by the
// history store, the coordinator and every client surface.
package clip

import (
	"strings"
)

const (
	// HistoryKey is the key-value store key holding the newest-first item list.
	HistoryKey = "clipboardHistory"

	// SettingsKey is the key-value store key holding the Settings object.
	SettingsKey = "clipboardSettings"

	// DefaultMaxItems is the retention limit used on first run and whenever a
	// requested limit is not a usable number.
	DefaultMaxItems = 100

	// MinMaxItems and MaxMaxItems bound the retention limit.
	MinMaxItems = 1
	MaxMaxItems = 1000
)

// Item is a single captured text with the context it was copied from.
// Dedup identity is Text; deletion identity is the (Text, TS) pair.
type Item struct {
	Text  string `json:"text"`
	URL   string `json:"url"`
	Title string `json:"title"`

	// TS is the capture time in epoch milliseconds.
	TS int64 `json:"ts"`
}

// Settings is the singleton, persisted history configuration.
type Settings struct {
	MaxItems int `json:"maxItems"`
}

// DefaultSettings returns the settings written on first initialization.
func DefaultSettings() Settings {
	return Settings{MaxItems: DefaultMaxItems}
}

// Blank reports whether text is empty after trimming whitespace.
func Blank(text string) bool {
	return strings.TrimSpace(text) == ""
}
