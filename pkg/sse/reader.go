package sse

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

const maxLineSize = 1 << 20

// Reader parses SSE events from a stream.
type Reader struct {
	scanner   *bufio.Scanner
	tee       io.Writer
	onComment func(string)

	lastID    string
	pending   Event
	dataLines int
	dirty     bool
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithTee copies every raw line, including comments and the blank
// delimiters, to w as it is read.
func WithTee(w io.Writer) ReaderOption {
	return func(r *Reader) {
		if w != nil {
			r.tee = w
		}
	}
}

// WithComments calls fn with the text of each comment line, without the
// leading colon and space.
func WithComments(fn func(text string)) ReaderOption {
	return func(r *Reader) {
		r.onComment = fn
	}
}

// NewReader returns a Reader over src.
func NewReader(src io.Reader, opts ...ReaderOption) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	r := &Reader{scanner: scanner, tee: io.Discard}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Next blocks until the next event is complete and returns it. It returns
// nil, nil once the stream ends; an event left unterminated at the end of
// the stream is still returned.
func (r *Reader) Next() (*Event, error) {
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if _, err := io.WriteString(r.tee, line+"\n"); err != nil {
			return nil, err
		}

		switch {
		case line == "":
			if ev := r.dispatch(); ev != nil {
				return ev, nil
			}
		case line[0] == ':':
			if r.onComment != nil {
				r.onComment(strings.TrimPrefix(line[1:], " "))
			}
		default:
			r.field(line)
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return r.dispatch(), nil
}

// LastEventID returns the most recent "id:" value seen on the stream.
func (r *Reader) LastEventID() string {
	return r.lastID
}

func (r *Reader) field(line string) {
	name, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")

	switch name {
	case "data":
		if r.dataLines > 0 {
			r.pending.Data += "\n"
		}
		r.pending.Data += value
		r.dataLines++
		r.dirty = true
	case "event":
		r.pending.Type = value
		r.dirty = true
	case "id":
		if !strings.ContainsRune(value, 0) {
			r.lastID = value
		}
		r.dirty = true
	case "retry":
		if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
			r.pending.Retry = time.Duration(ms) * time.Millisecond
		}
		r.dirty = true
	}
}

// dispatch returns the pending event, or nil when no field was set since
// the last one.
func (r *Reader) dispatch() *Event {
	if !r.dirty {
		return nil
	}

	ev := r.pending
	ev.ID = r.lastID
	r.pending = Event{}
	r.dataLines = 0
	r.dirty = false
	return &ev
}
