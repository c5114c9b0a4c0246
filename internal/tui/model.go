// Package tui is the terminal kiosk: a bubbletea front end over a
// browser.Controller.
package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/banux/tcg-kiosk/internal/browser"
	"github.com/banux/tcg-kiosk/internal/catalog"
	"github.com/banux/tcg-kiosk/internal/i18n"
	"github.com/banux/tcg-kiosk/internal/images"
	"github.com/banux/tcg-kiosk/internal/query"
)

// Options configures the terminal kiosk.
type Options struct {
	Engine     query.Engine
	Translator *i18n.Translator
	PageSize   int
	ImageProxy images.Proxy
}

type picker int

const (
	pickNone picker = iota
	pickGame
	pickSet
	pickType
)

// choice is one line of a picker.
type choice struct {
	value string
	label string
}

// copyResultMsg reports the outcome of a clipboard copy.
type copyResultMsg struct {
	id  string
	err error
}

// session is the state shared by every copy of the Model. The controller
// renders into it.
type session struct {
	ctrl    *browser.Controller
	tracker *browser.ImageTracker
	view    browser.View
	cursor  int
}

// Render implements browser.Renderer.
func (s *session) Render(v browser.View) {
	s.view = v
	if s.cursor >= len(v.Result.Items) {
		s.cursor = max(len(v.Result.Items)-1, 0)
	}
}

// Model is the root bubbletea model.
type Model struct {
	s  *session
	tr *i18n.Translator

	search textinput.Model
	detail viewport.Model

	picker      picker
	choices     []choice
	pickCursor  int
	flash       string
	width       int
	height      int
	showDetails bool
}

// New returns a Model browsing cat.
func New(cat *catalog.Catalog, opts Options) Model {
	tr := opts.Translator
	if tr == nil {
		tr = i18n.New("")
	}
	s := &session{tracker: browser.NewImageTracker(opts.ImageProxy)}
	s.ctrl = browser.New(cat, browser.Options{
		Engine:     opts.Engine,
		Translator: tr,
		Renderer:   s,
		PageSize:   opts.PageSize,
	})

	ti := textinput.New()
	ti.Placeholder = tr.Table()["search"]
	ti.Prompt = "/ "
	ti.CharLimit = 64

	return Model{
		s:           s,
		tr:          tr,
		search:      ti,
		detail:      viewport.New(60, 12),
		showDetails: true,
	}
}

// Run starts the kiosk on the terminal and blocks until the user quits.
func Run(cat *catalog.Catalog, opts Options) error {
	_, err := tea.NewProgram(New(cat, opts), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

// selected returns the card under the cursor.
func (m Model) selected() (catalog.CardView, bool) {
	items := m.s.view.Result.Items
	if m.s.cursor < 0 || m.s.cursor >= len(items) {
		return catalog.CardView{}, false
	}
	return items[m.s.cursor], true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail.Width = max(msg.Width/2-4, 20)
		m.detail.Height = max(msg.Height-8, 5)
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			m.flash = fmt.Sprintf("copy failed: %v", msg.err)
		} else {
			m.flash = "copied " + msg.id
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.search.Focused() {
			return m.updateSearch(msg)
		}
		if m.picker != pickNone {
			return m.updatePicker(msg), nil
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.search.Blur()
		m.s.ctrl.Search(strings.TrimSpace(m.search.Value()))
		return m, nil
	case tea.KeyEsc:
		m.search.Blur()
		m.search.SetValue(m.s.view.Query.SearchText)
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) updatePicker(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc", "q":
		m.picker = pickNone
	case "up", "k":
		if m.pickCursor > 0 {
			m.pickCursor--
		}
	case "down", "j":
		if m.pickCursor < len(m.choices)-1 {
			m.pickCursor++
		}
	case "enter":
		if m.pickCursor < len(m.choices) {
			m.apply(m.picker, m.choices[m.pickCursor].value)
		}
		m.picker = pickNone
	}
	return m
}

func (m Model) apply(p picker, value string) {
	m.s.tracker.Reset()
	m.s.cursor = 0
	switch p {
	case pickGame:
		m.s.ctrl.SelectGame(value)
	case pickSet:
		m.s.ctrl.SelectSet(value)
	case pickType:
		m.s.ctrl.SelectType(value)
	}
}

// openPicker lists the choices of p with the current selection highlighted.
func (m Model) openPicker(p picker) Model {
	v := m.s.view
	table := m.tr.Table()
	var choices []choice
	var current string
	switch p {
	case pickGame:
		choices = append(choices, choice{"", table["allGames"]})
		for _, g := range v.Games {
			choices = append(choices, choice{g.Slug, fmt.Sprintf("%s (%d)", g.Label, g.Cards)})
		}
		current = v.Query.GameSlug
	case pickSet:
		if v.Group == nil {
			return m
		}
		choices = append(choices, choice{"", table["allSets"]})
		for _, name := range v.SetOptions {
			choices = append(choices, choice{name, name})
		}
		current = v.Query.SetName
	case pickType:
		if v.Group == nil {
			return m
		}
		choices = append(choices, choice{"", table["allTypes"]})
		for _, o := range v.TypeOptions {
			choices = append(choices, choice{o.Value, o.Label})
		}
		current = v.Query.TypeValue
	}
	m.picker = p
	m.choices = choices
	m.pickCursor = 0
	for i, c := range choices {
		if strings.EqualFold(c.value, current) {
			m.pickCursor = i
		}
	}
	return m
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.flash = ""
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.search.SetValue(m.s.view.Query.SearchText)
		m.search.CursorEnd()
		cmd := m.search.Focus()
		return m, cmd
	case "g":
		return m.openPicker(pickGame), nil
	case "s":
		return m.openPicker(pickSet), nil
	case "t":
		return m.openPicker(pickType), nil
	case "up", "k":
		if m.s.cursor > 0 {
			m.s.cursor--
		}
	case "down", "j":
		if m.s.cursor < len(m.s.view.Result.Items)-1 {
			m.s.cursor++
		}
	case "right", "n", "pgdown":
		m.s.cursor = 0
		m.s.ctrl.NextPage()
	case "left", "p", "pgup":
		m.s.cursor = 0
		m.s.ctrl.PrevPage()
	case "home":
		m.s.cursor = 0
		m.s.ctrl.GoToPage(1)
	case "end":
		m.s.cursor = 0
		m.s.ctrl.GoToPage(m.s.view.Result.TotalPages)
	case "d", "enter":
		m.showDetails = !m.showDetails
	case "x":
		// The operator reports the shown image as broken.
		if c, ok := m.selected(); ok {
			if _, ok := m.s.tracker.Fail(c); !ok {
				m.flash = "no more image sources for " + c.ID
			}
		}
	case "c":
		if c, ok := m.selected(); ok {
			id := c.ID
			return m, func() tea.Msg {
				return copyResultMsg{id: id, err: clipboard.WriteAll(id)}
			}
		}
	}
	return m, nil
}

func (m Model) View() string {
	v := m.s.view
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.tr.T("Trading Card Game")))
	b.WriteString("  ")
	b.WriteString(filterStyle.Render(m.filterLine()))
	b.WriteString("\n")
	b.WriteString(m.search.View())
	b.WriteString("\n\n")

	if m.picker != pickNone {
		b.WriteString(m.renderPicker())
	} else {
		list := m.renderList()
		if c, ok := m.selected(); ok && m.showDetails {
			m.detail.SetContent(m.renderDetail(c))
			list = lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", detailBox.Render(m.detail.View()))
		}
		b.WriteString(list)
	}

	b.WriteString("\n")
	b.WriteString(statusStyle.Render(v.Status))
	if m.flash != "" {
		b.WriteString("  ")
		b.WriteString(m.flash)
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("g game · s set · t type · / search · ←/→ page · c copy id · x broken image · q quit"))
	return b.String()
}

func (m Model) filterLine() string {
	v := m.s.view
	table := m.tr.Table()
	game, set, typ := table["allGames"], table["allSets"], table["allTypes"]
	if v.Group != nil {
		game = v.Group.Label
	}
	if v.Query.SetName != "" {
		set = v.Query.SetName
	}
	if v.Query.TypeValue != "" {
		typ = v.Query.TypeValue
		for _, o := range v.TypeOptions {
			if o.Value == v.Query.TypeValue {
				typ = o.Label
			}
		}
	}
	return strings.Join([]string{game, set, typ}, " / ")
}

func (m Model) renderList() string {
	items := m.s.view.Result.Items
	lines := make([]string, 0, len(items))
	for i, c := range items {
		line := c.Name + " " + setStyle.Render(c.Set)
		if i == m.s.cursor {
			lines = append(lines, cursorStyle.Render("> ")+line)
			continue
		}
		lines = append(lines, itemStyle.Render(line))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderDetail(c catalog.CardView) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(c.Name))
	b.WriteString("\n")
	if u := m.s.tracker.Current(c); u != "" {
		b.WriteString(u)
	} else {
		b.WriteString(failedStyle.Render("image unavailable"))
		if g := m.s.view.Group; g != nil && g.OverlayImage != "" {
			b.WriteString(" " + setStyle.Render(g.OverlayImage))
		}
	}
	b.WriteString("\n\n")
	for _, d := range c.Details {
		value := strings.ReplaceAll(d.Value, "\n", "\n"+strings.Repeat(" ", 14))
		b.WriteString(labelStyle.Render(d.Label) + value + "\n")
	}
	return b.String()
}

func (m Model) renderPicker() string {
	lines := make([]string, 0, len(m.choices))
	for i, c := range m.choices {
		if i == m.pickCursor {
			lines = append(lines, cursorStyle.Render("> "+c.label))
			continue
		}
		lines = append(lines, itemStyle.Render(c.label))
	}
	return pickerBox.Render(strings.Join(lines, "\n"))
}
