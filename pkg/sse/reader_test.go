package sse

import (
	"bytes"
	"errors"
	"strings"
	"testing/iotest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// readAll drains r and returns every event.
func readAll(r *Reader) []Event {
	var events []Event
	for {
		ev, err := r.Next()
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		if ev == nil {
			return events
		}
		events = append(events, *ev)
	}
}

var _ = Describe("Reader", func() {
	DescribeTable("parsing",
		func(stream string, want []Event) {
			Expect(readAll(NewReader(strings.NewReader(stream)))).To(Equal(want))
		},
		Entry("a single event", "data: hello world\n\n",
			[]Event{{Data: "hello world"}}),
		Entry("consecutive events", "data: first\n\ndata: second\n\n",
			[]Event{{Data: "first"}, {Data: "second"}}),
		Entry("a typed change event",
			"event: change\ndata: {\"key\":\"clipboardHistory\",\"newValue\":[]}\n\n",
			[]Event{{Type: "change", Data: `{"key":"clipboardHistory","newValue":[]}`}}),
		Entry("multi-line data", "data: line one\ndata: line two\ndata: line three\n\n",
			[]Event{{Data: "line one\nline two\nline three"}}),
		Entry("an empty first data line", "data:\ndata: x\n\n",
			[]Event{{Data: "\nx"}}),
		Entry("no space after the colon", "data:tight\n\n",
			[]Event{{Data: "tight"}}),
		Entry("only one leading space stripped", "data:  two spaces\n\n",
			[]Event{{Data: " two spaces"}}),
		Entry("an empty data field", "data:\n\n",
			[]Event{{Data: ""}}),
		Entry("a type without data", "event: ping\n\n",
			[]Event{{Type: "ping"}}),
		Entry("a field without a colon", "data\n\n",
			[]Event{{Data: ""}}),
		Entry("a retry field", "retry: 1500\ndata: x\n\n",
			[]Event{{Data: "x", Retry: 1500 * time.Millisecond}}),
		Entry("an invalid retry field", "retry: soon\ndata: x\n\n",
			[]Event{{Data: "x"}}),
		Entry("unknown fields", "foo: bar\ndata: x\n\n",
			[]Event{{Data: "x"}}),
		Entry("comments between fields", ": connected\n\nevent: change\n: heartbeat\ndata: x\n\n",
			[]Event{{Type: "change", Data: "x"}}),
		Entry("leading and repeated blank lines", "\n\n\ndata: x\n\n\n\n",
			[]Event{{Data: "x"}}),
		Entry("an unterminated final event", "data: tail",
			[]Event{{Data: "tail"}}),
		Entry("an empty stream", "",
			[]Event(nil)),
		Entry("CRLF line endings", "data: x\r\n\r\n",
			[]Event{{Data: "x"}}),
	)

	It("carries the last event ID to later events", func() {
		r := NewReader(strings.NewReader("id: 7\ndata: a\n\ndata: b\n\nid:\ndata: c\n\n"))

		events := readAll(r)
		Expect(events).To(HaveLen(3))
		Expect(events[0].ID).To(Equal("7"))
		Expect(events[1].ID).To(Equal("7"))
		Expect(events[2].ID).To(BeEmpty())
		Expect(r.LastEventID()).To(BeEmpty())
	})

	It("reports comments to the callback", func() {
		var comments []string
		r := NewReader(strings.NewReader(": connected\n\n:heartbeat\n\ndata: x\n\n"),
			WithComments(func(text string) { comments = append(comments, text) }))

		Expect(readAll(r)).To(HaveLen(1))
		Expect(comments).To(Equal([]string{"connected", "heartbeat"}))
	})

	It("copies the raw stream to the tee", func() {
		stream := ": connected\n\nevent: change\ndata: x\n\n"
		var raw bytes.Buffer
		r := NewReader(strings.NewReader(stream), WithTee(&raw))

		readAll(r)
		Expect(raw.String()).To(Equal(stream))
	})

	It("accepts a nil tee", func() {
		r := NewReader(strings.NewReader("data: x\n\n"), WithTee(nil))
		Expect(readAll(r)).To(HaveLen(1))
	})

	It("returns source errors", func() {
		r := NewReader(iotest.ErrReader(errors.New("connection reset")))
		_, err := r.Next()
		Expect(err).To(MatchError("connection reset"))
	})

	It("returns tee write errors", func() {
		r := NewReader(strings.NewReader("data: x\n\n"), WithTee(failingWriter{}))
		_, err := r.Next()
		Expect(err).To(MatchError("tee closed"))
	})
})

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("tee closed")
}
