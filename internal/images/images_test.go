package images

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_SmallOnly(t *testing.T) {
	src := Resolve(map[string]any{"small": "a.png"})
	assert.Equal(t, "a.png", src.Primary)
	assert.Equal(t, "a.png", src.Full)
	assert.Empty(t, src.Srcset)
	assert.Empty(t, src.Sizes)
}

func TestResolve_SmallAndLarge(t *testing.T) {
	src := Resolve(map[string]any{"small": "a.png", "large": "b.png"})
	assert.Equal(t, "a.png", src.Primary)
	assert.Equal(t, "b.png", src.Full)
	assert.Equal(t, "a.png 1x, b.png 2x", src.Srcset)
	assert.Equal(t, Sizes, src.Sizes)
}

func TestResolve_EncodesSpacesInSrcset(t *testing.T) {
	src := Resolve(map[string]any{"small": "https://cdn.test/a b.png", "large": "https://cdn.test/a b_hires.png"})
	assert.Equal(t, "https://cdn.test/a%20b.png", src.Primary)
	assert.Equal(t, "https://cdn.test/a%20b_hires.png", src.Full)
	assert.Equal(t, "https://cdn.test/a%20b.png 1x, https://cdn.test/a%20b_hires.png 2x", src.Srcset)
}

func TestResolve_AllKeysInPriorityOrder(t *testing.T) {
	src := Resolve(map[string]any{
		"image":  "https://cdn.example.com/d.png",
		"large":  "https://cdn.example.com/c.png",
		"normal": "https://cdn.example.com/b.png",
		"small":  "https://cdn.example.com/a.png",
	})
	assert.Equal(t, "https://cdn.example.com/a.png", src.Primary)
	assert.Equal(t, "https://cdn.example.com/d.png", src.Full, "image wins over large")
	parts := strings.Split(src.Srcset, ", ")
	if assert.Len(t, parts, 4) {
		assert.True(t, strings.HasSuffix(parts[0], " 1x"))
		assert.True(t, strings.HasSuffix(parts[1], " 1.5x"))
		assert.True(t, strings.HasSuffix(parts[2], " 2x"))
		assert.True(t, strings.HasSuffix(parts[3], " 3x"))
	}
}

func TestResolve_NormalOnlyIsPrimaryAndFull(t *testing.T) {
	src := Resolve(map[string]any{"normal": " n.png "})
	assert.Equal(t, "n.png", src.Primary)
	assert.Equal(t, "n.png", src.Full)
	assert.Empty(t, src.Srcset)
}

func TestResolve_FallbackToUnrecognizedKey(t *testing.T) {
	src := Resolve(map[string]any{"png": "x.png", "art": 42, "hires": ""})
	assert.Equal(t, "x.png", src.Primary)
	assert.Equal(t, "x.png", src.Full)
	assert.Empty(t, src.Srcset)
}

func TestResolve_NoUsableImage(t *testing.T) {
	assert.Empty(t, Resolve(nil).Primary)
	assert.Empty(t, Resolve(map[string]any{"small": "   ", "large": 12}).Primary)
	assert.Empty(t, Resolve(map[string]any{"small": "javascript:alert(1)"}).Primary)
}

func TestResolve_UnsafeCandidateLeftOutOfSrcset(t *testing.T) {
	src := Resolve(map[string]any{
		"small":  "a.png",
		"normal": "data:image/png;base64,AAAA",
		"large":  "b.png",
	})
	assert.Equal(t, "a.png 1x, b.png 2x", src.Srcset)
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://images.pokemontcg.io/base1/4.png", "https://images.pokemontcg.io/base1/4.png"},
		{"  http://x.test/a.png ", "http://x.test/a.png"},
		{"//cdn.test/a.png", "//cdn.test/a.png"},
		{"/static/a.png", "/static/a.png"},
		{"a.png", "a.png"},
		{"ftp://x.test/a.png", ""},
		{"javascript:alert(1)", ""},
		{"https:///nohost.png", ""},
		{"http://x.test/a b.png", "http://x.test/a%20b.png"},
		{"https://cdn.test/op01/Monkey D Luffy.png", "https://cdn.test/op01/Monkey%20D%20Luffy.png"},
		{"http://x.test/a\tb.png", ""},
		{"http://x.test/a\nb.png", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), "Sanitize(%q)", tt.in)
	}
}

func TestProxy(t *testing.T) {
	p := Proxy{BaseURL: "https://proxy.test/?url=", Hosts: []string{"images.pokemontcg.io"}}
	orig := "https://images.pokemontcg.io/base1/4_hires.png"

	assert.True(t, p.Applies(orig))
	assert.True(t, p.Applies("https://cdn.images.pokemontcg.io/x.png"))
	assert.False(t, p.Applies("https://example.com/x.png"))
	assert.False(t, p.Applies("relative.png"))

	proxied := p.Rewrite(orig)
	assert.True(t, p.IsProxied(proxied))
	assert.False(t, p.Applies(proxied))
	assert.Equal(t, orig, p.Origin(proxied))
	assert.Empty(t, p.Origin(orig))

	assert.False(t, Proxy{}.Applies(orig))
}
