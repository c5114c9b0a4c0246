package normalize

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banux/tcg-kiosk/internal/catalog"
	"github.com/banux/tcg-kiosk/internal/i18n"
	"github.com/banux/tcg-kiosk/internal/schema"
)

type fakeSets struct {
	names map[string]string
	codes map[string]string
}

func (f fakeSets) Label(_, setID, fallback string) string {
	if n, ok := f.names[setID]; ok {
		return n
	}
	return fallback
}

func (f fakeSets) Code(_, setID string) string {
	return f.codes[setID]
}

func decode(t *testing.T, s string) catalog.RawCard {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var raw catalog.RawCard
	require.NoError(t, dec.Decode(&raw))
	return raw
}

func ctxFor(slug string) Context {
	return Context{Slug: slug, Game: "Game", SetName: "Base Set", Schema: schema.Lookup(slug)}
}

func detail(view catalog.CardView, label string) string {
	for _, d := range view.Details {
		if d.Label == label {
			return d.Value
		}
	}
	return ""
}

func TestNormalize_RequiresImage(t *testing.T) {
	n := New(fakeSets{}, nil)
	for _, body := range []string{
		`{"id": "x"}`,
		`{"id": "x", "images": {}}`,
		`{"id": "x", "images": []}`,
		`{"id": "x", "images": {"small": ""}}`,
		`{"id": "x", "images": {"small": "javascript:alert(1)"}}`,
	} {
		_, ok := n.Normalize(decode(t, body), ctxFor("magic"))
		assert.False(t, ok, body)
	}
}

func TestNormalize_Basics(t *testing.T) {
	n := New(fakeSets{}, nil)
	view, ok := n.Normalize(decode(t, `{
		"id": 42,
		"name": "Alakazam",
		"images": {"small": "a.png", "large": "b.png"}
	}`), ctxFor("magic"))
	require.True(t, ok)
	assert.Equal(t, "42", view.ID)
	assert.Equal(t, "Alakazam", view.Name)
	assert.Equal(t, "Game", view.Game)
	assert.Equal(t, "Base Set", view.Set)
	assert.Equal(t, "a.png", view.ImageURL)
	assert.Equal(t, "b.png", view.ImageFullURL)
	assert.Equal(t, "a.png 1x, b.png 2x", view.ImageSrcset)
	assert.NotNil(t, view.TypeValues)
	assert.Empty(t, view.TypeValues)
	assert.Equal(t, []catalog.Detail{
		{Label: "Name", Value: "Alakazam"},
		{Label: "Source Set", Value: "Base Set"},
		{Label: "ID", Value: "42"},
	}, view.Details)
}

func TestNormalize_KeepsImageWithSpaces(t *testing.T) {
	n := New(fakeSets{}, nil)
	view, ok := n.Normalize(decode(t, `{
		"id": "OP01-003",
		"name": "Monkey D. Luffy",
		"images": {"small": "https://cdn.test/op01/Monkey D Luffy.png"}
	}`), ctxFor("one-piece"))
	require.True(t, ok)
	assert.Equal(t, "https://cdn.test/op01/Monkey%20D%20Luffy.png", view.ImageURL)
	assert.Equal(t, view.ImageURL, view.ImageFullURL)
}

func TestNormalize_PokemonIdentifier(t *testing.T) {
	n := New(fakeSets{codes: map[string]string{"base1": "BS"}}, nil)
	view, ok := n.Normalize(decode(t, `{
		"id": "base1-4", "number": "4", "set": {"id": "base1"},
		"name": "Charizard", "supertype": "Pokémon", "types": ["Fire", "Colorless"],
		"images": {"small": "a.png"}
	}`), ctxFor("pokemon-base-set"))
	require.True(t, ok)
	assert.Equal(t, "BS-4", detail(view, "ID"))
	assert.Equal(t, "Fire, Colorless", detail(view, "Types"))
	assert.Equal(t, []string{"Fire", "Colorless"}, view.TypeValues)
}

func TestSetCodeID(t *testing.T) {
	n := New(fakeSets{codes: map[string]string{"base1": "BS"}}, nil)
	tests := []struct {
		body string
		want string
	}{
		{`{"id": "base1-4"}`, "BS-4"},
		{`{"id": "base1-4", "number": "4a"}`, "BS-4a"},
		{`{"id": "neo1-17"}`, "NEO1-17"},
		{`{"id": "17", "set": {"id": "base1"}}`, "BS"},
		{`{"id": "17", "number": "17", "set": {"id": "base1"}}`, "BS-17"},
		{`{"id": "17"}`, "17"},
		{`{"id": "17", "number": 5}`, "5"},
		{`{"id": "base1-"}`, "BS"},
	}
	for _, tt := range tests {
		raw := decode(t, tt.body)
		assert.Equal(t, tt.want, n.setCodeID(raw["id"], raw, "pokemon"), tt.body)
	}
}

func TestTypeValues_Dedup(t *testing.T) {
	raw := decode(t, `{"color": ["Red", " red ", "Dark   Red", "", 7, {"x": 1}]}`)

	ci := schema.TypeFilter{Field: "color", CaseInsensitive: true}
	assert.Equal(t, []string{"Red", "Dark Red", "7"}, TypeValues(raw, ci))

	cs := schema.TypeFilter{Field: "color"}
	assert.Equal(t, []string{"Red", "red", "Dark Red", "7"}, TypeValues(raw, cs))

	scalar := decode(t, `{"domain": "Fury"}`)
	assert.Equal(t, []string{"Fury"}, TypeValues(scalar, schema.TypeFilter{Field: "domain"}))
	assert.Empty(t, TypeValues(scalar, schema.TypeFilter{}))
}

func TestNormalize_DetailRendering(t *testing.T) {
	n := New(fakeSets{names: map[string]string{"op01": "Romance Dawn"}}, nil)
	view, ok := n.Normalize(decode(t, `{
		"Name": "Luffy",
		"set": {"id": "op01"},
		"code": "OP01-001",
		"rarity": {"base": "L", "alt_art": true, "empty": ""},
		"type": [["Leader", "Straw Hat"], "Supernovas"],
		"color": false,
		"images": {"normal": "n.png"}
	}`), ctxFor("one-piece"))
	require.True(t, ok)
	assert.Equal(t, "Luffy", detail(view, "Name"), "case-insensitive key fallback")
	assert.Equal(t, "OP01-001", detail(view, "Code"))
	assert.Equal(t, "Alt Art: Yes; Base: L", detail(view, "Rarity"))
	assert.Equal(t, "Leader\nStraw Hat, Supernovas", detail(view, "Type"))
	assert.Equal(t, "No", detail(view, "Color"))

	var sources []string
	for _, d := range view.Details {
		if d.Label == "Source Set" {
			sources = append(sources, d.Value)
		}
	}
	assert.Equal(t, []string{"Romance Dawn", "Base Set"}, sources)
}

func TestNormalize_EmbeddedSetNameWins(t *testing.T) {
	n := New(fakeSets{names: map[string]string{"ogn": "Indexed"}}, nil)
	view, ok := n.Normalize(decode(t, `{
		"name": "Jinx", "set": {"id": "ogn", "name": "Origins"},
		"images": {"image": "i.png"}
	}`), ctxFor("riftbound"))
	require.True(t, ok)
	assert.Equal(t, "Origins", detail(view, "Source Set"))
}

func TestNormalize_OmitsEmptyDetails(t *testing.T) {
	n := New(fakeSets{}, nil)
	view, ok := n.Normalize(decode(t, `{"images": {"small": "a.png"}, "name": "  "}`),
		Context{Slug: "magic", Schema: schema.Lookup("magic")})
	require.True(t, ok)
	assert.Empty(t, view.Details)
}

func TestNormalize_TranslatesLabels(t *testing.T) {
	n := New(fakeSets{}, i18n.New("fr"))
	view, ok := n.Normalize(decode(t, `{
		"name": "Zoro", "color": "Green", "foil": true,
		"images": {"small": "a.png"}
	}`), ctxFor("one-piece"))
	require.True(t, ok)
	assert.Equal(t, "Zoro", detail(view, "Nom"))
	assert.Equal(t, "Green", detail(view, "Couleur"))
}
