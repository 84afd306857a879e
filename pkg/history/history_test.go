package history_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cliptape/pkg/clip"
	"github.com/papercomputeco/cliptape/pkg/history"
	"github.com/papercomputeco/cliptape/pkg/kv"
	"github.com/papercomputeco/cliptape/pkg/kv/inmemory"
)

// failingStore is a kv.Store whose reads and writes always fail.
type failingStore struct {
	*kv.Notifier
}

var errUnavailable = errors.New("storage unavailable")

func (failingStore) Get(context.Context, ...string) (map[string]json.RawMessage, error) {
	return nil, errUnavailable
}

func (failingStore) Set(context.Context, map[string]json.RawMessage) error {
	return errUnavailable
}

func (failingStore) Close() error { return nil }

func item(text string, ts int64) clip.Item {
	return clip.Item{Text: text, URL: "https://example.com", Title: "Example", TS: ts}
}

func texts(items []clip.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Text
	}
	return out
}

var _ = Describe("Store", func() {
	var (
		ctx    context.Context
		driver *inmemory.Driver
		store  *history.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = inmemory.NewDriver()
		store = history.New(driver)
	})

	list := func() []clip.Item {
		items, err := store.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		return items
	}

	record := func(items ...clip.Item) {
		for _, it := range items {
			Expect(store.RecordCapture(ctx, it)).To(Succeed())
		}
	}

	Describe("Init", func() {
		It("writes an empty history and default settings", func() {
			Expect(store.Init(ctx)).To(Succeed())

			values, err := driver.Get(ctx, clip.HistoryKey, clip.SettingsKey)
			Expect(err).NotTo(HaveOccurred())
			Expect(values[clip.HistoryKey]).To(MatchJSON(`[]`))
			Expect(values[clip.SettingsKey]).To(MatchJSON(`{"maxItems":100}`))
		})

		It("never overwrites existing values", func() {
			Expect(driver.Set(ctx, map[string]json.RawMessage{
				clip.HistoryKey:  json.RawMessage(`[{"text":"kept","url":"","title":"","ts":1}]`),
				clip.SettingsKey: json.RawMessage(`{"maxItems":3}`),
			})).To(Succeed())

			Expect(store.Init(ctx)).To(Succeed())

			Expect(texts(list())).To(Equal([]string{"kept"}))
			settings, err := store.Settings(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(settings.MaxItems).To(Equal(3))
		})

		It("initializes only the missing key", func() {
			Expect(driver.Set(ctx, map[string]json.RawMessage{
				clip.SettingsKey: json.RawMessage(`{"maxItems":3}`),
			})).To(Succeed())

			Expect(store.Init(ctx)).To(Succeed())

			values, err := driver.Get(ctx, clip.HistoryKey, clip.SettingsKey)
			Expect(err).NotTo(HaveOccurred())
			Expect(values[clip.HistoryKey]).To(MatchJSON(`[]`))
			Expect(values[clip.SettingsKey]).To(MatchJSON(`{"maxItems":3}`))
		})
	})

	Describe("RecordCapture", func() {
		It("orders items newest-first", func() {
			record(item("A", 1), item("B", 2))
			Expect(texts(list())).To(Equal([]string{"B", "A"}))
		})

		It("moves a repeated text to the front with the newest metadata", func() {
			record(item("T", 1), item("other", 2))
			record(clip.Item{Text: "T", URL: "https://second.example", Title: "Second", TS: 3})

			items := list()
			Expect(texts(items)).To(Equal([]string{"T", "other"}))
			Expect(items[0].URL).To(Equal("https://second.example"))
			Expect(items[0].Title).To(Equal("Second"))
			Expect(items[0].TS).To(Equal(int64(3)))
		})

		It("deduplicates case-sensitively", func() {
			record(item("Hello", 1), item("hello", 2))
			Expect(texts(list())).To(Equal([]string{"hello", "Hello"}))
		})

		It("evicts the oldest item beyond maxItems", func() {
			_, err := store.SetMaxItems(ctx, 3)
			Expect(err).NotTo(HaveOccurred())

			record(item("1", 1), item("2", 2), item("3", 3), item("4", 4))
			Expect(texts(list())).To(Equal([]string{"4", "3", "2"}))
		})

		It("uses the default limit when settings are missing", func() {
			for i := range 105 {
				record(item(fmt.Sprintf("text-%d", i), int64(i)))
			}

			items := list()
			Expect(items).To(HaveLen(clip.DefaultMaxItems))
			Expect(items[0].Text).To(Equal("text-104"))
		})

		It("ignores whitespace-only text", func() {
			record(item("A", 1))
			record(item("   ", 2), item("", 3), item("\n\t", 4))
			Expect(texts(list())).To(Equal([]string{"A"}))
		})

		It("serializes concurrent captures without losing updates", func() {
			var wg sync.WaitGroup
			for i := range 50 {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()
					Expect(store.RecordCapture(ctx, item(fmt.Sprintf("c-%d", i), int64(i)))).To(Succeed())
				}(i)
			}
			wg.Wait()

			Expect(list()).To(HaveLen(50))
		})
	})

	Describe("List", func() {
		It("returns an empty list when uninitialized", func() {
			items := list()
			Expect(items).NotTo(BeNil())
			Expect(items).To(BeEmpty())
		})

		It("treats a non-array history as empty", func() {
			Expect(driver.Set(ctx, map[string]json.RawMessage{
				clip.HistoryKey: json.RawMessage(`{"oops":true}`),
			})).To(Succeed())
			Expect(list()).To(BeEmpty())
		})
	})

	Describe("Clear", func() {
		It("empties the history regardless of prior state", func() {
			record(item("A", 1), item("B", 2))
			Expect(store.Clear(ctx)).To(Succeed())
			Expect(list()).To(BeEmpty())
		})

		It("works on an uninitialized store", func() {
			Expect(store.Clear(ctx)).To(Succeed())
			Expect(list()).To(BeEmpty())
		})
	})

	Describe("DeleteAt", func() {
		BeforeEach(func() {
			record(item("A", 1), item("B", 2), item("C", 3))
		})

		It("removes exactly the item at a valid index", func() {
			Expect(store.DeleteAt(ctx, 1)).To(Succeed())
			Expect(texts(list())).To(Equal([]string{"C", "A"}))
		})

		It("removes the first and last positions", func() {
			Expect(store.DeleteAt(ctx, 0)).To(Succeed())
			Expect(store.DeleteAt(ctx, 1)).To(Succeed())
			Expect(texts(list())).To(Equal([]string{"B"}))
		})

		DescribeTable("ignores out of range indexes",
			func(index int) {
				Expect(store.DeleteAt(ctx, index)).To(Succeed())
				Expect(texts(list())).To(Equal([]string{"C", "B", "A"}))
			},
			Entry("negative", -1),
			Entry("equal to length", 3),
			Entry("beyond length", 42),
		)
	})

	Describe("Settings", func() {
		It("returns the defaults when unset", func() {
			settings, err := store.Settings(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(settings).To(Equal(clip.DefaultSettings()))
		})

		It("returns the defaults for malformed settings", func() {
			Expect(driver.Set(ctx, map[string]json.RawMessage{
				clip.SettingsKey: json.RawMessage(`"broken"`),
			})).To(Succeed())

			settings, err := store.Settings(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(settings).To(Equal(clip.DefaultSettings()))
		})

		DescribeTable("clamps a stored limit edited out of range",
			func(stored string, expected int) {
				Expect(driver.Set(ctx, map[string]json.RawMessage{
					clip.SettingsKey: json.RawMessage(stored),
				})).To(Succeed())

				settings, err := store.Settings(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(settings.MaxItems).To(Equal(expected))
			},
			Entry("above the maximum", `{"maxItems":5000}`, clip.MaxMaxItems),
			Entry("negative", `{"maxItems":-3}`, clip.MinMaxItems),
			Entry("unset", `{"maxItems":0}`, clip.DefaultMaxItems),
		)
	})

	Describe("SetMaxItems", func() {
		DescribeTable("clamps the requested limit",
			func(requested any, expected int) {
				settings, err := store.SetMaxItems(ctx, requested)
				Expect(err).NotTo(HaveOccurred())
				Expect(settings.MaxItems).To(Equal(expected))

				stored, err := store.Settings(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(stored.MaxItems).To(Equal(expected))
			},
			Entry("zero", 0, 1),
			Entry("too large", 5000, 1000),
			Entry("not a number", "nonsense", 100),
			Entry("valid", 20, 20),
		)

		It("truncates the history to the new limit in one call", func() {
			record(item("A", 1), item("B", 2), item("C", 3), item("D", 4))

			sub := driver.Subscribe(8)
			defer sub.Close()

			_, err := store.SetMaxItems(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(texts(list())).To(Equal([]string{"D", "C"}))

			var keys []string
			for range 2 {
				var change kv.Change
				Expect(sub.C).To(Receive(&change))
				keys = append(keys, change.Key)
			}
			Expect(keys).To(ConsistOf(clip.HistoryKey, clip.SettingsKey))
		})

		It("keeps the history when it fits", func() {
			record(item("A", 1), item("B", 2))

			_, err := store.SetMaxItems(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(texts(list())).To(Equal([]string{"B", "A"}))
		})
	})

	Context("when the backing store is unavailable", func() {
		BeforeEach(func() {
			store = history.New(failingStore{Notifier: kv.NewNotifier()})
		})

		It("wraps errors from every operation", func() {
			Expect(store.Init(ctx)).To(MatchError(errUnavailable))
			Expect(store.RecordCapture(ctx, item("A", 1))).To(MatchError(errUnavailable))
			Expect(store.Clear(ctx)).To(MatchError(errUnavailable))
			Expect(store.DeleteAt(ctx, 0)).To(MatchError(errUnavailable))

			_, err := store.List(ctx)
			Expect(err).To(MatchError(errUnavailable))
			_, err = store.Settings(ctx)
			Expect(err).To(MatchError(errUnavailable))
			_, err = store.SetMaxItems(ctx, 10)
			Expect(err).To(MatchError(errUnavailable))
		})

		It("still treats blank captures as a no-op", func() {
			Expect(store.RecordCapture(ctx, item(" ", 1))).To(Succeed())
		})
	})
})
