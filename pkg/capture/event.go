// Package capture turns copy and cut events into capture requests and
// delivers them to the coordinator without ever blocking the source of the
// event.
package capture

import (
	"strings"
	"time"
)

// Element is the focused element at the time of a copy or cut.
type Element struct {
	// Tag is the element tag name, for example "INPUT" or "TEXTAREA".
	Tag   string
	Value string

	// Range is the selected range within Value, in characters. Nil when the
	// element reports no selection.
	Range *Range

	ContentEditable bool
}

// Range is a selection range within an element value.
type Range struct {
	Start int
	End   int
}

// CopyEvent is a single copy or cut observed by a capture source.
type CopyEvent struct {
	// Active is the focused element, nil when nothing is focused.
	Active *Element

	// Selection is the document selection rendered as text.
	Selection string

	// ClipboardText is the text/plain payload carried by the event itself.
	ClipboardText string

	URL   string
	Title string
	TS    time.Time
}

// Extract returns the text a copy event captured, trimmed. Priority:
// the selected slice of a focused input or textarea (or its whole value when
// nothing is selected), then the document selection, then the event's own
// clipboard payload.
func Extract(ev CopyEvent) string {
	text := selectedText(ev)
	if text == "" {
		text = ev.ClipboardText
	}

	return strings.TrimSpace(text)
}

func selectedText(ev CopyEvent) string {
	el := ev.Active
	if el != nil && isTextField(el.Tag) {
		if el.Range != nil && el.Range.Start != el.Range.End {
			return slice(el.Value, el.Range.Start, el.Range.End)
		}
		return el.Value
	}

	// Contenteditable elements and everything else read the document
	// selection.
	return ev.Selection
}

func isTextField(tag string) bool {
	switch strings.ToUpper(tag) {
	case "INPUT", "TEXTAREA":
		return true
	default:
		return false
	}
}

// slice returns the characters of s in [start, end), with both bounds
// clamped to the value.
func slice(s string, start, end int) string {
	runes := []rune(s)
	start = min(max(start, 0), len(runes))
	end = min(max(end, 0), len(runes))
	if start >= end {
		return ""
	}

	return string(runes[start:end])
}
