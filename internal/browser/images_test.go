package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banux/tcg-kiosk/internal/catalog"
	"github.com/banux/tcg-kiosk/internal/images"
)

var testProxy = images.Proxy{BaseURL: "https://proxy.test/?url=", Hosts: []string{"images.pokemontcg.io"}}

// drain fails c until the tracker gives up and returns every URL shown.
func drain(tr *ImageTracker, c catalog.CardView) []string {
	shown := []string{tr.Current(c)}
	for i := 0; i < 10; i++ {
		next, ok := tr.Fail(c)
		if !ok {
			break
		}
		shown = append(shown, next)
	}
	return shown
}

func TestImageTracker_FullThenProxyThenOrigin(t *testing.T) {
	c := catalog.CardView{
		ID:           "base1-4",
		ImageURL:     "https://images.pokemontcg.io/base1/4.png",
		ImageFullURL: "https://images.pokemontcg.io/base1/4_hires.png",
	}
	tr := NewImageTracker(testProxy)
	shown := drain(tr, c)

	assert.Equal(t, []string{
		c.ImageURL,
		c.ImageFullURL,
		testProxy.Rewrite(c.ImageFullURL),
	}, shown, "origin of the proxied URL was already tried")
	assert.True(t, tr.Failed(c))
	assert.Empty(t, tr.Current(c))

	_, ok := tr.Fail(c)
	assert.False(t, ok, "failed is terminal")
}

func TestImageTracker_ProxiedStartFallsBackToOrigin(t *testing.T) {
	origin := "https://images.pokemontcg.io/swsh1/1.png"
	c := catalog.CardView{ID: "swsh1-1", ImageURL: testProxy.Rewrite(origin)}
	tr := NewImageTracker(testProxy)

	assert.Equal(t, []string{c.ImageURL, origin}, drain(tr, c))
	assert.True(t, tr.Failed(c))
}

func TestImageTracker_NeverRepeatsURL(t *testing.T) {
	cards := []catalog.CardView{
		{ID: "a", ImageURL: "https://example.com/a.png"},
		{ID: "b", ImageURL: "https://example.com/b.png", ImageFullURL: "https://example.com/b.png"},
		{ID: "c", ImageURL: "https://images.pokemontcg.io/c.png"},
		{ID: "d", ImageURL: "relative.png", ImageFullURL: "https://images.pokemontcg.io/d.png"},
	}
	tr := NewImageTracker(testProxy)
	for _, c := range cards {
		shown := drain(tr, c)
		seen := make(map[string]bool)
		for _, u := range shown {
			assert.False(t, seen[u], "card %s repeated %s", c.ID, u)
			seen[u] = true
		}
		assert.True(t, tr.Failed(c), "card %s should end failed", c.ID)
	}
}

func TestImageTracker_NoProxyConfigured(t *testing.T) {
	c := catalog.CardView{ID: "x", ImageURL: "https://images.pokemontcg.io/x.png"}
	tr := NewImageTracker(images.Proxy{})
	assert.Equal(t, []string{c.ImageURL}, drain(tr, c))

	tr.Reset()
	assert.False(t, tr.Failed(c))
	assert.Equal(t, c.ImageURL, tr.Current(c))
}
