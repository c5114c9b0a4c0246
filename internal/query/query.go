// Package query filters and paginates a catalog snapshot. Evaluation is a
// pure function of the catalog and the query; nothing is cached or mutated.
package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/banux/tcg-kiosk/internal/catalog"
	"github.com/banux/tcg-kiosk/internal/textutil"
)

// DefaultPageSize is used when a query has no positive page size.
const DefaultPageSize = 20

// Mode selects what an empty game selection means.
type Mode int

const (
	// EmptyGameNone returns no cards until a game is selected.
	EmptyGameNone Mode = iota

	// EmptyGameAll returns the cards of every game, in catalog order.
	EmptyGameAll
)

// ParseMode parses the empty_game_mode setting ("none" or "all").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return EmptyGameNone, nil
	case "all":
		return EmptyGameAll, nil
	}
	return EmptyGameNone, fmt.Errorf("unknown empty game mode %q", s)
}

func (m Mode) String() string {
	if m == EmptyGameAll {
		return "all"
	}
	return "none"
}

// Engine evaluates queries under a Mode.
type Engine struct {
	Mode Mode
}

// Evaluate runs q against cat with the default mode.
func Evaluate(cat *catalog.Catalog, q catalog.Query) catalog.ResultPage {
	return Engine{}.Evaluate(cat, q)
}

// Evaluate filters cat by q and returns the requested page. Cards keep
// their load order. The page number is clamped into range.
func (e Engine) Evaluate(cat *catalog.Catalog, q catalog.Query) catalog.ResultPage {
	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}

	var matches []catalog.CardView
	switch {
	case q.GameSlug != "":
		if g, err := cat.Group(q.GameSlug); err == nil {
			matches = filter(matches, g, q)
		}
	case e.Mode == EmptyGameAll && cat != nil:
		for i := range cat.Groups {
			matches = filter(matches, &cat.Groups[i], q)
		}
	}
	return paginate(matches, q.Page, size)
}

func filter(dst []catalog.CardView, g *catalog.GameGroup, q catalog.Query) []catalog.CardView {
	typeValue := strings.TrimSpace(q.TypeValue)
	needle := textutil.Fold(strings.TrimSpace(q.SearchText))
	for _, c := range g.Cards {
		if q.SetName != "" && c.Set != q.SetName {
			continue
		}
		if typeValue != "" && !MatchType(c.TypeValues, typeValue, g.TypeMatchMode, g.TypeCaseInsensitive) {
			continue
		}
		if needle != "" && !strings.Contains(textutil.Fold(c.Name), needle) {
			continue
		}
		dst = append(dst, c)
	}
	return dst
}

// MatchType reports whether any of values matches selected under mode and
// the case policy. Empty values never match.
func MatchType(values []string, selected string, mode catalog.MatchMode, caseInsensitive bool) bool {
	if caseInsensitive {
		selected = textutil.Fold(selected)
	}
	for _, v := range values {
		if caseInsensitive {
			v = textutil.Fold(v)
		}
		if mode == catalog.MatchContains {
			if strings.Contains(v, selected) {
				return true
			}
			continue
		}
		if v == selected {
			return true
		}
	}
	return false
}

func paginate(matches []catalog.CardView, page, size int) catalog.ResultPage {
	total := len(matches)
	totalPages := (total + size - 1) / size
	switch {
	case totalPages == 0 || page < 1:
		page = 1
	case page > totalPages:
		page = totalPages
	}

	items := []catalog.CardView{}
	if total > 0 {
		start := (page - 1) * size
		end := min(start+size, total)
		items = append(items, matches[start:end]...)
	}
	return catalog.ResultPage{Items: items, TotalPages: totalPages, Page: page, Total: total}
}

// SetOptions returns the distinct set names of g's cards. Names listed in
// g.SetOrder come first in that order; the rest follow alphabetically.
func SetOptions(g *catalog.GameGroup) []string {
	present := make(map[string]bool)
	for _, c := range g.Cards {
		if c.Set != "" {
			present[c.Set] = true
		}
	}

	out := make([]string, 0, len(present))
	placed := make(map[string]bool, len(present))
	for _, name := range g.SetOrder {
		if present[name] && !placed[name] {
			placed[name] = true
			out = append(out, name)
		}
	}
	var rest []string
	for name := range present {
		if !placed[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// TypeOptions returns the type filter choices of g: the configured options
// when there are any, else the distinct card type values sorted without
// regard to case.
func TypeOptions(g *catalog.GameGroup) []catalog.TypeOption {
	if len(g.TypeOptions) > 0 {
		return g.TypeOptions
	}
	seen := make(map[string]bool)
	var values []string
	for _, c := range g.Cards {
		for _, v := range c.TypeValues {
			key := v
			if g.TypeCaseInsensitive {
				key = textutil.Fold(v)
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			values = append(values, v)
		}
	}
	sort.SliceStable(values, func(i, j int) bool {
		a, b := textutil.Fold(values[i]), textutil.Fold(values[j])
		if a == b {
			return values[i] < values[j]
		}
		return a < b
	})
	out := make([]catalog.TypeOption, len(values))
	for i, v := range values {
		out[i] = catalog.TypeOption{Value: v, Label: v}
	}
	return out
}
