package clip_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cliptape/pkg/clip"
)

var _ = Describe("Search helpers", func() {
	items := []clip.Item{
		{Text: "Hello World", URL: "https://example.com/a", Title: "Greeting", TS: 3},
		{Text: "go test ./...", URL: "https://pkg.go.dev", Title: "Docs", TS: 2},
		{Text: "Hello World", URL: "", Title: "", TS: 1},
	}

	Describe("Filter", func() {
		It("returns every item for a blank query", func() {
			Expect(clip.Filter(items, "   ")).To(HaveLen(3))
		})

		It("matches text case-insensitively", func() {
			Expect(clip.Filter(items, "hello")).To(HaveLen(2))
		})

		It("matches titles and urls", func() {
			Expect(clip.Filter(items, "DOCS")).To(ConsistOf(items[1]))
			Expect(clip.Filter(items, "example.com")).To(ConsistOf(items[0]))
		})

		It("returns an empty result when nothing matches", func() {
			Expect(clip.Filter(items, "absent")).To(BeEmpty())
		})
	})

	Describe("IndexOf", func() {
		It("finds items by text and timestamp", func() {
			Expect(clip.IndexOf(items, "Hello World", 1)).To(Equal(2))
			Expect(clip.IndexOf(items, "Hello World", 3)).To(Equal(0))
		})

		It("returns -1 for unknown identities", func() {
			Expect(clip.IndexOf(items, "Hello World", 99)).To(Equal(-1))
		})
	})

	Describe("Meta", func() {
		It("includes the host and title when present", func() {
			meta := clip.Meta(items[0])
			Expect(meta).To(ContainSubstring(" • example.com • Greeting"))
		})

		It("omits empty parts", func() {
			meta := clip.Meta(items[2])
			Expect(meta).NotTo(ContainSubstring("•"))
		})

		It("ignores unparsable urls", func() {
			Expect(clip.Item{URL: "://bad"}.Host()).To(BeEmpty())
		})
	})
})
