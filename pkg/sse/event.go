// Package sse implements the subset of Server-Sent Events used by the
// cliptape change feed: the daemon writes one event per store change and
// clients parse them back, optionally copying the raw stream elsewhere.
//
// See https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import "time"

// Event is one dispatched SSE event.
type Event struct {
	// Type is the "event:" field; empty means "message".
	Type string

	// Data holds every "data:" line of the event joined with "\n".
	Data string

	// ID is the last event ID seen on the stream, which carries over to
	// later events that do not set their own.
	ID string

	// Retry is the reconnection delay from a "retry:" field, or zero.
	Retry time.Duration
}
