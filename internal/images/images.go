// Package images selects the primary and full-size image of a card and
// builds the responsive srcset handed to renderers.
package images

import (
	"net/url"
	"sort"
	"strings"
	"unicode"
)

// Sizes is the responsive width hint paired with every non-empty srcset.
const Sizes = "(max-width: 600px) 80vw, (max-width: 900px) 40vw, 220px"

// sizeKey describes one recognized key of a card's image map.
type sizeKey struct {
	name       string
	descriptor string
	priority   int
}

// sizeKeys lists the recognized keys in declaration order.
var sizeKeys = []sizeKey{
	{name: "small", descriptor: "1x", priority: 10},
	{name: "normal", descriptor: "1.5x", priority: 20},
	{name: "large", descriptor: "2x", priority: 30},
	{name: "image", descriptor: "3x", priority: 40},
}

// Sources is the resolved image set of a card.
type Sources struct {
	Primary string
	Full    string
	Srcset  string
	Sizes   string
}

type candidate struct {
	url        string
	descriptor string
	priority   int
}

// Resolve picks the image URLs out of a card's image map. Values that are not
// strings are ignored. An empty Primary means the card has no usable image.
func Resolve(images map[string]any) Sources {
	var src Sources
	if len(images) == 0 {
		return src
	}

	var candidates []candidate
	for _, k := range sizeKeys {
		u := stringValue(images[k.name])
		if u == "" {
			continue
		}
		if src.Primary == "" {
			src.Primary = u
		}
		if k.name == "large" || k.name == "image" {
			src.Full = u
		}
		candidates = append(candidates, candidate{url: u, descriptor: k.descriptor, priority: k.priority})
	}

	if src.Primary == "" {
		keys := make([]string, 0, len(images))
		for k := range images {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if u := stringValue(images[k]); u != "" {
				src.Primary = u
				break
			}
		}
	}
	if src.Full == "" {
		src.Full = src.Primary
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].priority < candidates[j].priority
	})
	seen := make(map[string]bool, len(candidates))
	parts := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.descriptor] {
			continue
		}
		clean := Sanitize(c.url)
		if clean == "" {
			continue
		}
		seen[c.descriptor] = true
		parts = append(parts, clean+" "+c.descriptor)
	}
	// A single candidate carries no choice for the browser.
	if len(parts) > 1 {
		src.Srcset = strings.Join(parts, ", ")
		src.Sizes = Sizes
	}

	src.Primary = Sanitize(src.Primary)
	src.Full = Sanitize(src.Full)
	if src.Full == "" {
		src.Full = src.Primary
	}
	return src
}

// Sanitize returns raw trimmed, with inner spaces encoded as %20, when it
// is a well-formed http(s), protocol relative or relative URL, and ""
// otherwise.
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return ""
		}
	}
	s = strings.ReplaceAll(s, " ", "%20")
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "":
		if u.Opaque != "" {
			return ""
		}
	case "http", "https":
		if u.Host == "" {
			return ""
		}
	default:
		return ""
	}
	return s
}

func stringValue(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
