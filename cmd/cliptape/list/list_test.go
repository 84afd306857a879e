package listcmder_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	listcmder "github.com/papercomputeco/cliptape/cmd/cliptape/list"
	"github.com/papercomputeco/cliptape/pkg/clip"
)

var _ = Describe("Select", func() {
	items := []clip.Item{
		{Text: "go test ./...", URL: "https://github.com/a", Title: "CI", TS: 4},
		{Text: "hello", URL: "https://example.com", Title: "Example", TS: 3},
		{Text: "git push", URL: "https://github.com/b", Title: "Repo", TS: 2},
		{Text: "bye", TS: 1},
	}

	It("keeps every entry with its position for a blank query", func() {
		entries := listcmder.Select(items, "", 0)
		Expect(entries).To(HaveLen(4))
		for i, e := range entries {
			Expect(e.Index).To(Equal(i))
		}
	})

	It("keeps absolute positions when filtering", func() {
		entries := listcmder.Select(items, "GITHUB", 0)
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Index).To(Equal(0))
		Expect(entries[1].Index).To(Equal(2))
		Expect(entries[1].Text).To(Equal("git push"))
	})

	It("applies the limit after filtering", func() {
		entries := listcmder.Select(items, "github", 1)
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Index).To(Equal(0))
	})

	It("returns nothing when no entry matches", func() {
		Expect(listcmder.Select(items, "absent", 0)).To(BeEmpty())
	})
})

var _ = Describe("WriteTable", func() {
	It("distinguishes an empty history from an empty match", func() {
		var empty, none bytes.Buffer
		Expect(listcmder.WriteTable(&empty, nil, 0, false)).To(Succeed())
		Expect(listcmder.WriteTable(&none, nil, 3, false)).To(Succeed())

		Expect(empty.String()).To(ContainSubstring("No clipboard history yet."))
		Expect(none.String()).To(ContainSubstring("No entries match."))
	})

	It("prints the position, host and footer", func() {
		entries := []listcmder.Entry{{Index: 2, Item: clip.Item{Text: "git push", URL: "https://github.com/b", TS: time.Now().UnixMilli()}}}

		var out bytes.Buffer
		Expect(listcmder.WriteTable(&out, entries, 5, false)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("git push"))
		Expect(out.String()).To(ContainSubstring("github.com"))
		Expect(out.String()).To(ContainSubstring("just now"))
		Expect(out.String()).To(ContainSubstring("1 of 5 entries"))
	})

	It("truncates long text unless asked for the full text", func() {
		long := strings.Repeat("x", 200)
		entries := []listcmder.Entry{{Index: 0, Item: clip.Item{Text: long, TS: time.Now().UnixMilli()}}}

		var short, full bytes.Buffer
		Expect(listcmder.WriteTable(&short, entries, 1, false)).To(Succeed())
		Expect(listcmder.WriteTable(&full, entries, 1, true)).To(Succeed())

		Expect(short.String()).NotTo(ContainSubstring(long))
		Expect(full.String()).To(ContainSubstring(long))
	})
})

var _ = Describe("WriteJSON", func() {
	It("prints absolute indexes next to the item fields", func() {
		entries := []listcmder.Entry{
			{Index: 2, Item: clip.Item{Text: "git push", URL: "https://github.com/b", Title: "Repo", TS: 2}},
		}

		var out bytes.Buffer
		Expect(listcmder.WriteJSON(&out, entries)).To(Succeed())
		Expect(out.String()).To(MatchJSON(`[{"index":2,"text":"git push","url":"https://github.com/b","title":"Repo","ts":2}]`))

		var decoded []listcmder.Entry
		Expect(json.Unmarshal(out.Bytes(), &decoded)).To(Succeed())
		Expect(decoded).To(Equal(entries))
	})
})

var _ = Describe("Since", func() {
	DescribeTable("formats coarse relative times",
		func(ago time.Duration, want string) {
			Expect(listcmder.Since(time.Now().Add(-ago))).To(Equal(want))
		},
		Entry("seconds", 10*time.Second, "just now"),
		Entry("minutes", 5*time.Minute+time.Second, "5m ago"),
		Entry("hours", 3*time.Hour+time.Minute, "3h ago"),
	)

	It("prints a date for older entries", func() {
		t := time.Date(2020, 1, 2, 12, 0, 0, 0, time.Local)
		Expect(listcmder.Since(t)).To(Equal("2020-01-02"))
	})
})
