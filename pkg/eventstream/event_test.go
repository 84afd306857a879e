package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cliptape/pkg/clip"
	"github.com/papercomputeco/cliptape/pkg/eventstream"
	"github.com/papercomputeco/cliptape/pkg/kv"
)

var _ = Describe("ChangeEvent", func() {
	It("marshals with the expected top-level keys", func() {
		now := time.Unix(1735689600, 0)
		event := eventstream.NewChangeEvent(kv.Change{
			Key:      clip.HistoryKey,
			NewValue: json.RawMessage(`[{"text":"hi","url":"","title":"","ts":1}]`),
		}, eventstream.EventSource{Host: "laptop", Driver: "sqlite"}, now)

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKeyWithValue("schema_version", BeNumerically("==", eventstream.SchemaVersionV1)))
		Expect(got).To(HaveKeyWithValue("event_type", eventstream.EventTypeHistoryChanged))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("source"))
		Expect(got).To(HaveKeyWithValue("key", clip.HistoryKey))
		Expect(got).To(HaveKey("new_value"))
		Expect(got).NotTo(HaveKey("old_value"))
	})

	It("assigns unique event ids", func() {
		a := eventstream.NewChangeEvent(kv.Change{Key: "k"}, eventstream.EventSource{}, time.Now())
		b := eventstream.NewChangeEvent(kv.Change{Key: "k"}, eventstream.EventSource{}, time.Now())
		Expect(a.EventID).NotTo(BeEmpty())
		Expect(a.EventID).NotTo(Equal(b.EventID))
	})

	DescribeTable("maps keys to event types",
		func(key, expected string) {
			Expect(eventstream.EventTypeFor(key)).To(Equal(expected))
		},
		Entry("history", clip.HistoryKey, "cliptape.history.changed"),
		Entry("settings", clip.SettingsKey, "cliptape.settings.changed"),
		Entry("anything else", "other", "cliptape.store.changed"),
	)
})
