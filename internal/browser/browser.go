// Package browser holds the kiosk browsing state machine. A Controller owns
// the current query, re-runs the query engine after every change and hands
// the resulting View to a Renderer.
package browser

import (
	"github.com/banux/tcg-kiosk/internal/catalog"
	"github.com/banux/tcg-kiosk/internal/i18n"
	"github.com/banux/tcg-kiosk/internal/query"
)

// State is the browsing state of a Controller.
type State int

const (
	NoGameSelected State = iota
	Browsing
)

func (s State) String() string {
	if s == Browsing {
		return "browsing"
	}
	return "no-game-selected"
}

// GameOption is an entry of the game selector.
type GameOption struct {
	Slug  string
	Label string
	Cards int
}

// View is everything a renderer needs to draw the current screen.
type View struct {
	State  State
	Query  catalog.Query
	Result catalog.ResultPage

	Games []GameOption

	// Group is the selected game, nil when none is selected or the slug is
	// unknown.
	Group *catalog.GameGroup

	SetOptions  []string
	TypeOptions []catalog.TypeOption

	// Status is the localized status line ("Page 1 of 3", "No cards match
	// your filters.", ...).
	Status string
}

// Renderer draws views.
type Renderer interface {
	Render(View)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(View)

// Render calls f(v).
func (f RendererFunc) Render(v View) { f(v) }

// Options configures a Controller.
type Options struct {
	Engine     query.Engine
	Translator *i18n.Translator

	// Renderer is called after every state change. May be nil.
	Renderer Renderer

	// PageSize is the initial page size (<= 0 = query.DefaultPageSize).
	PageSize int
}

// Controller is the browsing state machine. It is not safe for concurrent
// use; a UI event loop drives it one event at a time.
type Controller struct {
	cat      *catalog.Catalog
	engine   query.Engine
	tr       *i18n.Translator
	renderer Renderer

	state State
	q     catalog.Query
	view  View
}

// New returns a Controller over cat in the NoGameSelected state. The
// initial view is rendered immediately.
func New(cat *catalog.Catalog, opts Options) *Controller {
	tr := opts.Translator
	if tr == nil {
		tr = i18n.New("")
	}
	size := opts.PageSize
	if size <= 0 {
		size = query.DefaultPageSize
	}
	c := &Controller{
		cat:      cat,
		engine:   opts.Engine,
		tr:       tr,
		renderer: opts.Renderer,
		q:        catalog.Query{Page: 1, PageSize: size},
	}
	c.refresh()
	return c
}

// View returns the current view.
func (c *Controller) View() View { return c.view }

// State returns the current state.
func (c *Controller) State() State { return c.state }

// SelectGame switches to slug and clears the set and type filters. An empty
// slug returns to NoGameSelected.
func (c *Controller) SelectGame(slug string) {
	c.q.GameSlug = slug
	c.q.SetName = ""
	c.q.TypeValue = ""
	c.q.Page = 1
	if slug == "" {
		c.state = NoGameSelected
	} else {
		c.state = Browsing
	}
	c.refresh()
}

// SelectSet filters by set name and returns to the first page.
func (c *Controller) SelectSet(name string) {
	c.q.SetName = name
	c.q.Page = 1
	c.refresh()
}

// SelectType filters by type value and returns to the first page.
func (c *Controller) SelectType(value string) {
	c.q.TypeValue = value
	c.q.Page = 1
	c.refresh()
}

// Search filters by card name and returns to the first page.
func (c *Controller) Search(text string) {
	c.q.SearchText = text
	c.q.Page = 1
	c.refresh()
}

// SetPageSize changes the page size and returns to the first page.
func (c *Controller) SetPageSize(n int) {
	if n <= 0 {
		n = query.DefaultPageSize
	}
	c.q.PageSize = n
	c.q.Page = 1
	c.refresh()
}

// NextPage moves forward one page. The last page stays put.
func (c *Controller) NextPage() { c.GoToPage(c.q.Page + 1) }

// PrevPage moves back one page. The first page stays put.
func (c *Controller) PrevPage() { c.GoToPage(c.q.Page - 1) }

// GoToPage jumps to page n, clamped into range.
func (c *Controller) GoToPage(n int) {
	c.q.Page = n
	c.refresh()
}

func (c *Controller) refresh() {
	res := c.engine.Evaluate(c.cat, c.q)
	c.q.Page = res.Page

	v := View{
		State:  c.state,
		Query:  c.q,
		Result: res,
		Games:  c.games(),
	}
	if g, err := c.cat.Group(c.q.GameSlug); err == nil {
		v.Group = g
		v.SetOptions = query.SetOptions(g)
		v.TypeOptions = query.TypeOptions(g)
	}
	switch {
	case res.Total > 0:
		v.Status = c.tr.T("Page %d of %d", res.Page, res.TotalPages)
	case c.state == NoGameSelected:
		v.Status = c.tr.T("Select a game to start browsing.")
	default:
		v.Status = c.tr.T("No cards match your filters.")
	}
	c.view = v
	if c.renderer != nil {
		c.renderer.Render(v)
	}
}

func (c *Controller) games() []GameOption {
	if c.cat == nil {
		return nil
	}
	out := make([]GameOption, 0, len(c.cat.Groups))
	for _, g := range c.cat.Groups {
		out = append(out, GameOption{Slug: g.Slug, Label: g.Label, Cards: len(g.Cards)})
	}
	return out
}
