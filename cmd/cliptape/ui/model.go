package uicmder

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/papercomputeco/cliptape/pkg/clip"
	"github.com/papercomputeco/cliptape/pkg/cliui"
	"github.com/papercomputeco/cliptape/pkg/kv"
)

func init() {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)
}

const toastDuration = 1200 * time.Millisecond

// maxItemsCycle are the retention limits the m key steps through.
var maxItemsCycle = []int{50, 100, 250, 500, 1000}

// historyClient is the part of the daemon client the view drives.
type historyClient interface {
	History(ctx context.Context, query string) ([]clip.Item, error)
	DeleteAt(ctx context.Context, index int) error
	Clear(ctx context.Context) error
	Settings(ctx context.Context) (clip.Settings, error)
	SetMaxItems(ctx context.Context, maxItems any) (clip.Settings, error)
}

type uiModel struct {
	ctx      context.Context
	client   historyClient
	copyText func(string) error

	items    []clip.Item
	settings clip.Settings
	loaded   bool
	cursor   int

	search    textinput.Model
	searching bool

	confirmClear bool
	toast        string
	toastID      int
	toastFor     time.Duration
	feedErr      error
	live         bool

	width  int
	height int
	keys   uiKeyMap
	help   help.Model
}

var (
	uiTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	uiHighlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("235")).Background(lipgloss.Color("214")).Bold(true)
	uiToastStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	uiWarnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

type uiKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Copy    key.Binding
	Delete  key.Binding
	Clear   key.Binding
	Max     key.Binding
	Search  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func (k uiKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Copy, k.Delete, k.Search, k.Clear, k.Max, k.Quit}
}

func (k uiKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Down, k.Up, k.Copy, k.Delete}, {k.Search, k.Clear, k.Max, k.Refresh, k.Quit}}
}

func defaultKeyMap() uiKeyMap {
	return uiKeyMap{
		Up:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Copy:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "copy")),
		Delete:  key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "delete")),
		Clear:   key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear")),
		Max:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "max items")),
		Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type historyLoadedMsg struct {
	items []clip.Item
	err   error
}

type settingsLoadedMsg struct {
	settings clip.Settings
	err      error
}

type changeMsg struct {
	change kv.Change
}

// connectedMsg reports that the change feed subscription is registered.
type connectedMsg struct{}

type feedClosedMsg struct {
	err error
}

// actionDoneMsg reports a finished mutation; the history is reloaded after it.
type actionDoneMsg struct {
	toast string
	err   error
}

type maxItemsSetMsg struct {
	settings clip.Settings
	err      error
}

type toastExpiredMsg struct {
	id int
}

func newUIModel(ctx context.Context, cl historyClient, copyText func(string) error) uiModel {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search text, title or url"

	return uiModel{
		ctx:      ctx,
		client:   cl,
		copyText: copyText,
		settings: clip.DefaultSettings(),
		toastFor: toastDuration,
		search:   search,
		keys:     defaultKeyMap(),
		help:     help.New(),
	}
}

func (m uiModel) Init() bubbletea.Cmd {
	return bubbletea.Batch(loadHistoryCmd(m.ctx, m.client), loadSettingsCmd(m.ctx, m.client))
}

func loadHistoryCmd(ctx context.Context, cl historyClient) bubbletea.Cmd {
	return func() bubbletea.Msg {
		items, err := cl.History(ctx, "")
		return historyLoadedMsg{items: items, err: err}
	}
}

func loadSettingsCmd(ctx context.Context, cl historyClient) bubbletea.Cmd {
	return func() bubbletea.Msg {
		settings, err := cl.Settings(ctx)
		return settingsLoadedMsg{settings: settings, err: err}
	}
}

func toastCmd(id int, d time.Duration) bubbletea.Cmd {
	return bubbletea.Tick(d, func(time.Time) bubbletea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (m uiModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case historyLoadedMsg:
		if msg.err != nil {
			return m.showToast(fmt.Sprintf("load failed: %v", msg.err))
		}
		m.items = msg.items
		m.loaded = true
		m.cursor = clampCursor(m.cursor, len(m.visible()))
		return m, nil
	case settingsLoadedMsg:
		if msg.err == nil {
			m.settings = msg.settings
		}
		return m, nil
	case changeMsg:
		switch msg.change.Key {
		case clip.HistoryKey:
			return m, loadHistoryCmd(m.ctx, m.client)
		case clip.SettingsKey:
			return m, loadSettingsCmd(m.ctx, m.client)
		}
		return m, nil
	case connectedMsg:
		m.live = true
		m.feedErr = nil
		return m, nil
	case feedClosedMsg:
		m.live = false
		m.feedErr = msg.err
		if m.feedErr == nil {
			m.feedErr = fmt.Errorf("change feed closed")
		}
		return m, nil
	case actionDoneMsg:
		if msg.err != nil {
			return m.showToast(fmt.Sprintf("failed: %v", msg.err))
		}
		next, cmd := m.showToast(msg.toast)
		return next, bubbletea.Batch(cmd, loadHistoryCmd(m.ctx, m.client))
	case maxItemsSetMsg:
		if msg.err != nil {
			return m.showToast(fmt.Sprintf("failed: %v", msg.err))
		}
		m.settings = msg.settings
		next, cmd := m.showToast(fmt.Sprintf("max items %d", msg.settings.MaxItems))
		return next, bubbletea.Batch(cmd, loadHistoryCmd(m.ctx, m.client))
	case toastExpiredMsg:
		if msg.id == m.toastID {
			m.toast = ""
		}
		return m, nil
	case bubbletea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m uiModel) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	if m.confirmClear {
		m.confirmClear = false
		if msg.String() == "y" || msg.String() == "Y" {
			return m, m.clearCmd()
		}
		return m.showToast("clear cancelled")
	}

	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, bubbletea.Quit
	case key.Matches(msg, m.keys.Down):
		m.cursor = clampCursor(m.cursor+1, len(m.visible()))
	case key.Matches(msg, m.keys.Up):
		m.cursor = clampCursor(m.cursor-1, len(m.visible()))
	case key.Matches(msg, m.keys.Copy):
		return m.copySelected()
	case key.Matches(msg, m.keys.Delete):
		return m.deleteSelected()
	case key.Matches(msg, m.keys.Clear):
		if len(m.items) > 0 {
			m.confirmClear = true
		}
	case key.Matches(msg, m.keys.Max):
		return m, m.cycleMaxCmd()
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Refresh):
		return m, bubbletea.Batch(loadHistoryCmd(m.ctx, m.client), loadSettingsCmd(m.ctx, m.client))
	case msg.String() == "esc":
		m.search.SetValue("")
		m.cursor = 0
	}

	return m, nil
}

func (m uiModel) handleSearchKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, bubbletea.Quit
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.cursor = 0
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd bubbletea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.cursor = 0
	return m, cmd
}

func (m uiModel) showToast(text string) (uiModel, bubbletea.Cmd) {
	m.toastID++
	m.toast = text
	return m, toastCmd(m.toastID, m.toastFor)
}

// visible returns the items matching the current search, newest first.
func (m uiModel) visible() []clip.Item {
	return clip.Filter(m.items, m.search.Value())
}

func (m uiModel) selected() (clip.Item, bool) {
	items := m.visible()
	if m.cursor < 0 || m.cursor >= len(items) {
		return clip.Item{}, false
	}
	return items[m.cursor], true
}

func (m uiModel) copySelected() (bubbletea.Model, bubbletea.Cmd) {
	item, ok := m.selected()
	if !ok {
		return m, nil
	}
	if err := m.copyText(item.Text); err != nil {
		return m.showToast(fmt.Sprintf("copy failed: %v", err))
	}
	return m.showToast("copied")
}

// deleteSelected resolves the selection to its absolute index in the full
// history, since the cursor indexes the filtered view.
func (m uiModel) deleteSelected() (bubbletea.Model, bubbletea.Cmd) {
	item, ok := m.selected()
	if !ok {
		return m, nil
	}

	index := clip.IndexOf(m.items, item.Text, item.TS)
	if index < 0 {
		return m, nil
	}

	ctx, cl := m.ctx, m.client
	return m, func() bubbletea.Msg {
		return actionDoneMsg{toast: "deleted", err: cl.DeleteAt(ctx, index)}
	}
}

func (m uiModel) clearCmd() bubbletea.Cmd {
	ctx, cl := m.ctx, m.client
	return func() bubbletea.Msg {
		return actionDoneMsg{toast: "history cleared", err: cl.Clear(ctx)}
	}
}

func (m uiModel) cycleMaxCmd() bubbletea.Cmd {
	next := nextMaxItems(m.settings.MaxItems)
	ctx, cl := m.ctx, m.client
	return func() bubbletea.Msg {
		settings, err := cl.SetMaxItems(ctx, next)
		return maxItemsSetMsg{settings: settings, err: err}
	}
}

// nextMaxItems returns the first cycle step above current, wrapping around.
func nextMaxItems(current int) int {
	for _, n := range maxItemsCycle {
		if n > current {
			return n
		}
	}
	return maxItemsCycle[0]
}

func clampCursor(cursor, length int) int {
	if length == 0 || cursor < 0 {
		return 0
	}
	if cursor >= length {
		return length - 1
	}
	return cursor
}

func (m uiModel) View() string {
	var b strings.Builder

	width := m.width
	if width <= 0 {
		width = 80
	}

	items := m.visible()
	header := uiTitleStyle.Render("cliptape")
	count := fmt.Sprintf("%d entries", len(m.items))
	if m.search.Value() != "" {
		count = fmt.Sprintf("%d of %d entries", len(items), len(m.items))
	}
	header += "  " + cliui.DimStyle.Render(fmt.Sprintf("%s • max %d", count, m.settings.MaxItems))
	if m.live {
		header += "  " + uiToastStyle.Render("● live")
	}
	b.WriteString(header + "\n")

	if m.searching || m.search.Value() != "" {
		b.WriteString(m.search.View() + "\n")
	}
	b.WriteString("\n")

	switch {
	case !m.loaded:
		b.WriteString(cliui.DimStyle.Render("Loading…") + "\n")
	case len(m.items) == 0:
		b.WriteString(cliui.DimStyle.Render("No clipboard history yet.") + "\n")
	case len(items) == 0:
		b.WriteString(cliui.DimStyle.Render("No entries match.") + "\n")
	default:
		start, end := m.window(len(items))
		for i := start; i < end; i++ {
			b.WriteString(m.renderItem(items[i], i == m.cursor, width))
		}
	}

	b.WriteString("\n")
	switch {
	case m.confirmClear:
		b.WriteString(uiWarnStyle.Render("Clear the entire clipboard history? (y/N)") + "\n")
	case m.toast != "":
		b.WriteString(uiToastStyle.Render(m.toast) + "\n")
	case m.feedErr != nil:
		b.WriteString(uiWarnStyle.Render(fmt.Sprintf("live updates stopped: %v", m.feedErr)) + "\n")
	default:
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m uiModel) renderItem(item clip.Item, selected bool, width int) string {
	preview := cliui.Preview(item.Text, width-4)
	if selected {
		preview = uiHighlightStyle.Render(preview)
	} else {
		preview = cliui.PreviewStyle.Render(preview)
	}

	marker := "  "
	if selected {
		marker = "> "
	}

	return marker + preview + "\n" + "  " + cliui.DimStyle.Render(cliui.Preview(clip.Meta(item), width-4)) + "\n"
}

// window returns the range of items that fits the terminal, keeping the
// cursor in view. Each item takes two lines.
func (m uiModel) window(length int) (int, int) {
	rows := length
	if m.height > 0 {
		rows = max((m.height-8)/2, 1)
	}
	if rows >= length {
		return 0, length
	}

	start := max(m.cursor-rows+1, 0)
	return start, min(start+rows, length)
}
