package uicmder

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	bubbletea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cliptape/pkg/clip"
	"github.com/papercomputeco/cliptape/pkg/kv"
)

type fakeClient struct {
	mu       sync.Mutex
	items    []clip.Item
	settings clip.Settings
	deleted  []int
	cleared  bool
	err      error
}

func (f *fakeClient) History(context.Context, string) ([]clip.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]clip.Item{}, f.items...), f.err
}

func (f *fakeClient) DeleteAt(_ context.Context, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, index)
	f.items = append(f.items[:index], f.items[index+1:]...)
	return nil
}

func (f *fakeClient) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = true
	f.items = nil
	return f.err
}

func (f *fakeClient) Settings(context.Context) (clip.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings, f.err
}

func (f *fakeClient) SetMaxItems(_ context.Context, maxItems any) (clip.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = clip.Settings{MaxItems: clip.ClampMaxItems(maxItems)}
	return f.settings, f.err
}

func keyMsg(s string) bubbletea.KeyMsg {
	switch s {
	case "enter":
		return bubbletea.KeyMsg{Type: bubbletea.KeyEnter}
	case "esc":
		return bubbletea.KeyMsg{Type: bubbletea.KeyEsc}
	}
	return bubbletea.KeyMsg{Type: bubbletea.KeyRunes, Runes: []rune(s)}
}

func update(m uiModel, msg bubbletea.Msg) (uiModel, bubbletea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(uiModel), cmd
}

// run executes cmd and feeds every message it produces back into the model,
// skipping toast timers.
func run(m uiModel, cmd bubbletea.Cmd) uiModel {
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case nil, toastExpiredMsg:
		return m
	case bubbletea.BatchMsg:
		for _, c := range msg {
			m = run(m, c)
		}
		return m
	default:
		next, cmd := update(m, msg)
		return run(next, cmd)
	}
}

var _ = Describe("UI model", func() {
	var (
		fake   *fakeClient
		copied []string
		model  uiModel
	)

	BeforeEach(func() {
		fake = &fakeClient{
			items: []clip.Item{
				{Text: "gamma", URL: "https://c.example/", Title: "C", TS: 3},
				{Text: "beta", URL: "https://b.example/", Title: "B", TS: 2},
				{Text: "alpha", URL: "https://a.example/", Title: "A", TS: 1},
			},
			settings: clip.Settings{MaxItems: 100},
		}
		copied = nil
		model = newUIModel(context.Background(), fake, func(text string) error {
			copied = append(copied, text)
			return nil
		})
		model.toastFor = time.Millisecond
		model = run(model, model.Init())
	})

	It("loads history and settings on init", func() {
		Expect(model.loaded).To(BeTrue())
		Expect(model.items).To(HaveLen(3))
		Expect(model.settings.MaxItems).To(Equal(100))
		Expect(model.View()).To(ContainSubstring("3 entries"))
	})

	It("keeps the cursor within the list", func() {
		model, _ = update(model, keyMsg("k"))
		Expect(model.cursor).To(Equal(0))
		for range 5 {
			model, _ = update(model, keyMsg("j"))
		}
		Expect(model.cursor).To(Equal(2))
	})

	It("copies the selected entry", func() {
		model, _ = update(model, keyMsg("j"))
		model, _ = update(model, keyMsg("enter"))
		Expect(copied).To(Equal([]string{"beta"}))
		Expect(model.toast).To(Equal("copied"))
	})

	It("reports copy failures in the toast", func() {
		model.copyText = func(string) error { return errors.New("no clipboard") }
		model, _ = update(model, keyMsg("enter"))
		Expect(model.toast).To(ContainSubstring("no clipboard"))
	})

	It("deletes by absolute index while a search is active", func() {
		model, _ = update(model, keyMsg("/"))
		Expect(model.searching).To(BeTrue())
		for _, r := range "alp" {
			model, _ = update(model, keyMsg(string(r)))
		}
		model, _ = update(model, keyMsg("enter"))
		Expect(model.searching).To(BeFalse())
		Expect(model.visible()).To(HaveLen(1))

		model, cmd := update(model, keyMsg("d"))
		model = run(model, cmd)

		Expect(fake.deleted).To(Equal([]int{2}))
		Expect(model.items).To(HaveLen(2))
		Expect(model.toast).To(Equal("deleted"))
	})

	It("clears the search with esc", func() {
		model, _ = update(model, keyMsg("/"))
		model, _ = update(model, keyMsg("b"))
		Expect(model.visible()).To(HaveLen(1))
		model, _ = update(model, keyMsg("esc"))
		Expect(model.searching).To(BeFalse())
		Expect(model.visible()).To(HaveLen(3))
	})

	It("asks before clearing", func() {
		model, _ = update(model, keyMsg("C"))
		Expect(model.confirmClear).To(BeTrue())
		Expect(model.View()).To(ContainSubstring("(y/N)"))

		model, cmd := update(model, keyMsg("n"))
		model = run(model, cmd)
		Expect(fake.cleared).To(BeFalse())
		Expect(model.toast).To(Equal("clear cancelled"))

		model, _ = update(model, keyMsg("C"))
		model, cmd = update(model, keyMsg("y"))
		model = run(model, cmd)
		Expect(fake.cleared).To(BeTrue())
		Expect(model.items).To(BeEmpty())
		Expect(model.View()).To(ContainSubstring("No clipboard history yet."))
	})

	It("cycles the retention limit", func() {
		model, cmd := update(model, keyMsg("m"))
		model = run(model, cmd)
		Expect(model.settings.MaxItems).To(Equal(250))
		Expect(model.toast).To(Equal("max items 250"))

		model.settings.MaxItems = 1000
		model, cmd = update(model, keyMsg("m"))
		model = run(model, cmd)
		Expect(model.settings.MaxItems).To(Equal(50))
	})

	It("refetches when the history key changes", func() {
		fake.mu.Lock()
		fake.items = append([]clip.Item{{Text: "delta", TS: 4}}, fake.items...)
		fake.mu.Unlock()

		model, cmd := update(model, changeMsg{change: kv.Change{Key: clip.HistoryKey, NewValue: json.RawMessage(`[]`)}})
		model = run(model, cmd)
		Expect(model.items).To(HaveLen(4))
		Expect(model.items[0].Text).To(Equal("delta"))
	})

	It("ignores changes to unrelated keys", func() {
		_, cmd := update(model, changeMsg{change: kv.Change{Key: "other"}})
		Expect(cmd).To(BeNil())
	})

	It("tracks whether the change feed is live", func() {
		Expect(model.View()).NotTo(ContainSubstring("● live"))

		model, _ = update(model, connectedMsg{})
		Expect(model.View()).To(ContainSubstring("● live"))

		model, _ = update(model, feedClosedMsg{})
		Expect(model.View()).NotTo(ContainSubstring("● live"))
		Expect(model.View()).To(ContainSubstring("live updates stopped"))
	})

	It("expires only the latest toast", func() {
		model, _ = update(model, keyMsg("enter"))
		id := model.toastID
		model, _ = update(model, toastExpiredMsg{id: id - 1})
		Expect(model.toast).To(Equal("copied"))
		model, _ = update(model, toastExpiredMsg{id: id})
		Expect(model.toast).To(BeEmpty())
	})
})

var _ = Describe("nextMaxItems", func() {
	DescribeTable("steps through the cycle",
		func(current, want int) {
			Expect(nextMaxItems(current)).To(Equal(want))
		},
		Entry("below the first step", 10, 50),
		Entry("on a step", 100, 250),
		Entry("between steps", 300, 500),
		Entry("at the top", 1000, 50),
	)
})
