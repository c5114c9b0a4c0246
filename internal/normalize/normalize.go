// Package normalize turns raw card records into display-ready CardViews.
package normalize

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/banux/tcg-kiosk/internal/catalog"
	"github.com/banux/tcg-kiosk/internal/i18n"
	"github.com/banux/tcg-kiosk/internal/images"
	"github.com/banux/tcg-kiosk/internal/schema"
	"github.com/banux/tcg-kiosk/internal/textutil"
)

// SetLookup resolves set ids to display names and codes.
// *sets.Resolver implements it.
type SetLookup interface {
	Label(slug, setID, fallback string) string
	Code(slug, setID string) string
}

// Context describes where a record was found.
type Context struct {
	// Slug is the game directory name.
	Slug string

	// Game is the humanized game label.
	Game string

	// SetName is the display name of the set file.
	SetName string

	Schema schema.Schema
}

// Normalizer builds CardViews. It holds no per-card state and is safe for
// concurrent use.
type Normalizer struct {
	sets SetLookup
	tr   *i18n.Translator
}

// New returns a Normalizer. A nil translator renders English.
func New(sets SetLookup, tr *i18n.Translator) *Normalizer {
	if tr == nil {
		tr = i18n.New("")
	}
	return &Normalizer{sets: sets, tr: tr}
}

// Normalize converts raw into a CardView. It reports false when the record
// has no usable image.
func (n *Normalizer) Normalize(raw catalog.RawCard, ctx Context) (catalog.CardView, bool) {
	imgs, _ := raw["images"].(map[string]any)
	if len(imgs) == 0 {
		return catalog.CardView{}, false
	}
	src := images.Resolve(imgs)
	if src.Primary == "" {
		return catalog.CardView{}, false
	}
	return catalog.CardView{
		ID:           text(raw["id"]),
		Name:         text(raw["name"]),
		Game:         ctx.Game,
		Set:          ctx.SetName,
		ImageURL:     src.Primary,
		ImageFullURL: src.Full,
		ImageSrcset:  src.Srcset,
		ImageSizes:   src.Sizes,
		TypeValues:   TypeValues(raw, ctx.Schema.Filter),
		Details:      n.details(raw, ctx),
	}, true
}

// TypeValues extracts the filter values of a record. The field may hold a
// scalar or a list; strings and numbers are kept. Values are deduplicated by
// their fold key under f's case policy, keeping the first spelling seen.
func TypeValues(raw catalog.RawCard, f schema.TypeFilter) []string {
	out := []string{}
	if f.Field == "" {
		return out
	}
	var values []any
	switch v := raw[f.Field].(type) {
	case nil:
		return out
	case []any:
		values = v
	default:
		values = []any{v}
	}

	seen := make(map[string]bool, len(values))
	for _, v := range values {
		var s string
		switch x := v.(type) {
		case string:
			s = x
		case json.Number:
			s = x.String()
		default:
			continue
		}
		s = textutil.CollapseSpace(s)
		if s == "" {
			continue
		}
		key := s
		if f.CaseInsensitive {
			key = textutil.Fold(s)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func (n *Normalizer) details(raw catalog.RawCard, ctx Context) []catalog.Detail {
	out := []catalog.Detail{}
	for _, def := range ctx.Schema.Details {
		label := strings.TrimSpace(n.tr.T(def.Label))
		if label == "" {
			continue
		}
		value := strings.TrimSpace(n.resolve(raw, ctx, def))
		if value == "" {
			continue
		}
		out = append(out, catalog.Detail{Label: label, Value: value})
	}
	return out
}

func (n *Normalizer) resolve(raw catalog.RawCard, ctx Context, def schema.DetailField) string {
	switch def.Source {
	case schema.SourceGame:
		return ctx.Game
	case schema.SourceSetName:
		return ctx.SetName
	case schema.SourceCardSetName:
		set, _ := raw["set"].(map[string]any)
		if set == nil {
			return ""
		}
		if name := n.render(set["name"]); name != "" {
			return name
		}
		if id := text(set["id"]); id != "" {
			return n.render(n.sets.Label(ctx.Slug, id, id))
		}
		return ""
	case schema.SourceCard:
		if def.Key == "" {
			return ""
		}
		v, ok := lookup(raw, def.Key)
		if !ok || v == nil {
			return ""
		}
		if def.Format == schema.FormatSetCodeID {
			if id := n.setCodeID(v, raw, ctx.Slug); id != "" {
				return id
			}
		}
		if list, ok := v.([]any); ok {
			return n.join(list, ", ")
		}
		return n.render(v)
	}
	return ""
}

// setCodeID rewrites a "<set>-<number>" identifier as "<code>-<number>".
// An explicit number field wins over the parsed suffix. Without a known
// code the set part is upper-cased.
func (n *Normalizer) setCodeID(v any, raw catalog.RawCard, slug string) string {
	id := text(v)
	if id == "" {
		return ""
	}
	var set, number string
	if before, after, ok := strings.Cut(id, "-"); ok {
		set = before
		number = strings.TrimSpace(after)
	}
	if num := text(raw["number"]); num != "" {
		number = num
	}
	if set == "" {
		if s, ok := raw["set"].(map[string]any); ok {
			set = text(s["id"])
		}
	}
	if set == "" {
		if number == "" {
			return id
		}
		return number
	}

	code := n.sets.Code(slug, set)
	if code == "" {
		code = strings.ToUpper(set)
	}
	if number == "" {
		return code
	}
	return code + "-" + number
}

// render converts a decoded JSON value into display text. Objects become
// "Key: value; Key: value" with humanized keys in key order and lists are
// joined by newlines.
func (n *Normalizer) render(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case bool:
		return n.tr.Bool(x)
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64, int:
		return text(x)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			s := n.render(x[k])
			if s == "" {
				continue
			}
			if label := textutil.Humanize(k); label != "" {
				s = label + ": " + s
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, "; ")
	case []any:
		return n.join(x, "\n")
	}
	return ""
}

func (n *Normalizer) join(list []any, sep string) string {
	parts := make([]string, 0, len(list))
	for _, item := range list {
		if s := n.render(item); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}

// lookup finds key in raw, falling back to a case-insensitive match over the
// keys in sorted order.
func lookup(raw catalog.RawCard, key string) (any, bool) {
	if v, ok := raw[key]; ok {
		return v, true
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.EqualFold(k, key) {
			return raw[k], true
		}
	}
	return nil, false
}

// text coerces a scalar to a trimmed string. Lists and objects yield "".
func text(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		if x {
			return "1"
		}
	}
	return ""
}
