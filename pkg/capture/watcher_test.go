package capture_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cliptape/pkg/capture"
)

// fakeClipboard replays a scripted sequence of reads, then repeats the last.
type fakeClipboard struct {
	mu    sync.Mutex
	reads []any
}

func (f *fakeClipboard) read() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := f.reads[0]
	if len(f.reads) > 1 {
		f.reads = f.reads[1:]
	}

	if err, ok := next.(error); ok {
		return "", err
	}
	return next.(string), nil
}

var _ = Describe("Watcher", func() {
	run := func(reads ...any) *recordingSender {
		sender := &recordingSender{}
		queue, err := capture.NewQueue(&capture.QueueConfig{Sender: sender})
		Expect(err).NotTo(HaveOccurred())

		fake := &fakeClipboard{reads: reads}
		watcher := capture.NewWatcher(capture.NewAgent(queue, nil), capture.WatcherConfig{
			Interval:    time.Millisecond,
			SourceURL:   "cliptape://watcher",
			SourceTitle: "Clipboard",
			Read:        fake.read,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		Expect(watcher.Run(ctx)).To(Succeed())

		queue.Close()
		return sender
	}

	It("treats the first read as a baseline", func() {
		sender := run("already there")
		Expect(sender.captures()).To(BeEmpty())
	})

	It("captures each change once", func() {
		sender := run("baseline", "first", "first", "second")
		Expect(sender.texts()).To(Equal([]string{"first", "second"}))

		c := sender.captures()[0]
		Expect(c.URL).To(Equal("cliptape://watcher"))
		Expect(c.Title).To(Equal("Clipboard"))
		Expect(c.TS).NotTo(BeNil())
	})

	It("skips read errors", func() {
		sender := run(errors.New("no clipboard owner"), "baseline", errors.New("busy"), "changed")
		Expect(sender.texts()).To(Equal([]string{"changed"}))
	})

	It("does not capture blank clipboard content", func() {
		sender := run("baseline", "   ", "real")
		Expect(sender.texts()).To(Equal([]string{"real"}))
	})
})
