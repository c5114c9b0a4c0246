package browser

import (
	"sync"

	"github.com/banux/tcg-kiosk/internal/catalog"
	"github.com/banux/tcg-kiosk/internal/images"
)

// ImageTracker follows image load failures per card and decides which URL
// to try next. No URL is handed out twice for the same card.
type ImageTracker struct {
	proxy images.Proxy

	mu    sync.Mutex
	cards map[string]*attempt
}

type attempt struct {
	current string
	tried   map[string]bool
	failed  bool
}

// NewImageTracker returns a tracker using proxy for allow-listed hosts.
func NewImageTracker(proxy images.Proxy) *ImageTracker {
	return &ImageTracker{proxy: proxy, cards: make(map[string]*attempt)}
}

func trackKey(c catalog.CardView) string {
	return c.Game + "\x00" + c.ID + "\x00" + c.ImageURL
}

func (t *ImageTracker) attempt(c catalog.CardView) *attempt {
	key := trackKey(c)
	a, ok := t.cards[key]
	if !ok {
		a = &attempt{current: c.ImageURL, tried: map[string]bool{c.ImageURL: true}}
		t.cards[key] = a
	}
	return a
}

// Current returns the URL to display for c, or "" once it has failed.
func (t *ImageTracker) Current(c catalog.CardView) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	a := t.attempt(c)
	if a.failed {
		return ""
	}
	return a.current
}

// Fail records that the current URL of c failed to load and returns the
// next URL to try. Candidates are, in order: the full-size URL, the proxied
// current URL when its host is allow-listed, and the origin URL when the
// current one is proxied. ok is false once every candidate is spent; the
// card then stays failed.
func (t *ImageTracker) Fail(c catalog.CardView) (next string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a := t.attempt(c)
	if a.failed {
		return "", false
	}

	cur := a.current
	var candidates []string
	if c.ImageFullURL != "" && c.ImageFullURL != cur {
		candidates = append(candidates, c.ImageFullURL)
	}
	if t.proxy.Applies(cur) {
		candidates = append(candidates, t.proxy.Rewrite(cur))
	}
	if t.proxy.IsProxied(cur) {
		if origin := t.proxy.Origin(cur); origin != "" {
			candidates = append(candidates, origin)
		}
	}
	for _, u := range candidates {
		if a.tried[u] {
			continue
		}
		a.tried[u] = true
		a.current = u
		return u, true
	}
	a.failed = true
	return "", false
}

// Failed reports whether c ended in the failed state.
func (t *ImageTracker) Failed(c catalog.CardView) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.cards[trackKey(c)]
	return ok && a.failed
}

// Reset forgets every card.
func (t *ImageTracker) Reset() {
	t.mu.Lock()
	t.cards = make(map[string]*attempt)
	t.mu.Unlock()
}
