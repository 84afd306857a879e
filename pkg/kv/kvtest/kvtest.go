// Package kvtest holds the behaviour every kv.Store driver must share,
// written as ginkgo specs that driver suites include.
package kvtest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cliptape/pkg/clip"
	"github.com/papercomputeco/cliptape/pkg/history"
	"github.com/papercomputeco/cliptape/pkg/kv"
)

// StoreBehaviour declares the tests every driver must pass. newStore is called
// before each test and the returned store is closed after it. Keys are
// namespaced per test so drivers backed by shared databases stay isolated.
func StoreBehaviour(newStore func() kv.Store) {
	var (
		store kv.Store
		ctx   context.Context
		key   func(string) string
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newStore()
		prefix := uuid.NewString()
		key = func(name string) string { return prefix + "/" + name }
	})

	AfterEach(func() {
		if store != nil {
			Expect(store.Close()).To(Succeed())
		}
	})

	It("omits keys that were never written", func() {
		values, err := store.Get(ctx, key("missing"))
		Expect(err).NotTo(HaveOccurred())
		Expect(values).To(BeEmpty())
	})

	It("round-trips documents", func() {
		Expect(store.Set(ctx, map[string]json.RawMessage{
			key("a"): json.RawMessage(`[{"text":"x","url":"","title":"","ts":1}]`),
			key("b"): json.RawMessage(`{"maxItems":5}`),
		})).To(Succeed())

		values, err := store.Get(ctx, key("a"), key("b"), key("c"))
		Expect(err).NotTo(HaveOccurred())
		Expect(values).To(HaveLen(2))
		Expect(values[key("a")]).To(MatchJSON(`[{"text":"x","url":"","title":"","ts":1}]`))
		Expect(values[key("b")]).To(MatchJSON(`{"maxItems":5}`))
	})

	It("overwrites existing values", func() {
		Expect(store.Set(ctx, map[string]json.RawMessage{key("a"): json.RawMessage(`1`)})).To(Succeed())
		Expect(store.Set(ctx, map[string]json.RawMessage{key("a"): json.RawMessage(`2`)})).To(Succeed())

		values, err := store.Get(ctx, key("a"))
		Expect(err).NotTo(HaveOccurred())
		Expect(values[key("a")]).To(MatchJSON(`2`))
	})

	It("notifies subscribers of changed keys", func() {
		sub := store.Subscribe(8)
		defer sub.Close()

		Expect(store.Set(ctx, map[string]json.RawMessage{key("a"): json.RawMessage(`"one"`)})).To(Succeed())

		var change kv.Change
		Eventually(sub.C, time.Second).Should(Receive(&change))
		Expect(change.Key).To(Equal(key("a")))
		Expect(change.OldValue).To(BeNil())
		Expect(change.NewValue).To(MatchJSON(`"one"`))

		Expect(store.Set(ctx, map[string]json.RawMessage{key("a"): json.RawMessage(`"two"`)})).To(Succeed())
		Eventually(sub.C, time.Second).Should(Receive(&change))
		Expect(change.OldValue).To(MatchJSON(`"one"`))
		Expect(change.NewValue).To(MatchJSON(`"two"`))
	})

	It("does not notify when a value is rewritten unchanged", func() {
		Expect(store.Set(ctx, map[string]json.RawMessage{key("a"): json.RawMessage(`[]`)})).To(Succeed())

		sub := store.Subscribe(8)
		defer sub.Close()

		Expect(store.Set(ctx, map[string]json.RawMessage{key("a"): json.RawMessage(`[]`)})).To(Succeed())
		Consistently(sub.C, 100*time.Millisecond).ShouldNot(Receive())
	})

	It("stops delivering after the subscription is closed", func() {
		sub := store.Subscribe(8)
		sub.Close()

		Expect(store.Set(ctx, map[string]json.RawMessage{key("a"): json.RawMessage(`true`)})).To(Succeed())
		Eventually(sub.C).Should(BeClosed())
	})

	It("keeps every capture recorded in sequence", func() {
		const captures = 90

		recorder := history.New(store)
		_, err := recorder.SetMaxItems(ctx, clip.MaxMaxItems)
		Expect(err).NotTo(HaveOccurred())
		Expect(recorder.Clear(ctx)).To(Succeed())

		for i := range captures {
			Expect(recorder.RecordCapture(ctx, clip.Item{
				Text: fmt.Sprintf("capture %d", i),
				TS:   int64(i + 1),
			})).To(Succeed())
		}

		items, err := recorder.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(captures))
		Expect(items[0].Text).To(Equal(fmt.Sprintf("capture %d", captures-1)))
	})
}
