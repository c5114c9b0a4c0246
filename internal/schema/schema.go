// Package schema maps a game directory slug onto the per-game presentation
// rules: which card field drives the type filter and which detail fields are
// shown, in order.
package schema

import (
	"strings"
)

// Game identifies a known trading card game. Slugs that match no known game
// use Generic.
type Game int

const (
	Generic Game = iota
	Pokemon
	OnePiece
	Riftbound
)

// markers lists the slug substrings in match order. The first marker found
// in the lowercased slug decides the game, so "pokemon-one-piece" is Pokemon.
var markers = []struct {
	marker string
	game   Game
}{
	{"pokemon", Pokemon},
	{"one-piece", OnePiece},
	{"riftbound", Riftbound},
}

// Detect returns the Game for a game directory slug.
func Detect(slug string) Game {
	s := strings.ToLower(slug)
	for _, m := range markers {
		if strings.Contains(s, m.marker) {
			return m.game
		}
	}
	return Generic
}

func (g Game) String() string {
	switch g {
	case Pokemon:
		return "pokemon"
	case OnePiece:
		return "one-piece"
	case Riftbound:
		return "riftbound"
	default:
		return "generic"
	}
}

// MatchMode controls how a selected type value is compared with a card's
// type values.
type MatchMode string

const (
	MatchExact    MatchMode = "exact"
	MatchContains MatchMode = "contains"
)

// Option is one predefined choice of a type filter. Label is an untranslated
// message key.
type Option struct {
	Value string
	Label string
}

// TypeFilter configures the type filter of a game.
type TypeFilter struct {
	// Label is the untranslated filter caption ("Type", "Color", ...).
	Label string

	// Field is the card field holding the type values. Empty disables the
	// filter for the game.
	Field string

	// Options are the predefined choices. Nil means the choices are derived
	// from the loaded cards.
	Options []Option

	Mode            MatchMode
	CaseInsensitive bool
}

// Source says where a detail value comes from.
type Source string

const (
	SourceCard        Source = "card"
	SourceSetName     Source = "set_name"
	SourceCardSetName Source = "card_set_name"
	SourceGame        Source = "game"
)

// Format selects how a detail value is rendered.
type Format string

const (
	FormatPlain Format = ""
	FormatList  Format = "list"

	// FormatSetCodeID renders hyphenated identifiers such as "base1-4" as
	// "<set code>-<number>".
	FormatSetCodeID Format = "set-code-id"
)

// DetailField defines one entry of a card's detail list.
type DetailField struct {
	Source Source
	Key    string
	Label  string
	Format Format
}

// Schema is the immutable presentation configuration of a game.
type Schema struct {
	Game    Game
	Filter  TypeFilter
	Details []DetailField

	// overlay is the card-back image file name, empty when the game has none.
	overlay string

	// sentinel is the set id after which sets are shown, empty when every
	// set is shown.
	sentinel string
}

var schemas = map[Game]Schema{
	Pokemon: {
		Game: Pokemon,
		Filter: TypeFilter{
			Label: "Type",
			Field: "types",
			Mode:  MatchExact,
		},
		Details: []DetailField{
			{Source: SourceCard, Key: "name", Label: "Name"},
			{Source: SourceSetName, Label: "Source Set"},
			{Source: SourceCard, Key: "id", Label: "ID", Format: FormatSetCodeID},
			{Source: SourceCard, Key: "supertype", Label: "Supertype"},
			{Source: SourceCard, Key: "types", Label: "Types", Format: FormatList},
		},
		overlay:  "pokemon-card-back.png",
		sentinel: "swshp",
	},
	OnePiece: {
		Game: OnePiece,
		Filter: TypeFilter{
			Label: "Color",
			Field: "color",
			Options: []Option{
				{"black", "Black"},
				{"blue", "Blue"},
				{"green", "Green"},
				{"purple", "Purple"},
				{"red", "Red"},
				{"yellow", "Yellow"},
			},
			Mode:            MatchContains,
			CaseInsensitive: true,
		},
		Details: []DetailField{
			{Source: SourceCard, Key: "name", Label: "Name"},
			{Source: SourceCardSetName, Label: "Source Set"},
			{Source: SourceSetName, Label: "Source Set"},
			{Source: SourceCard, Key: "code", Label: "Code"},
			{Source: SourceCard, Key: "rarity", Label: "Rarity"},
			{Source: SourceCard, Key: "type", Label: "Type"},
			{Source: SourceCard, Key: "color", Label: "Color"},
		},
		overlay: "one-piece-card-back.png",
	},
	Riftbound: {
		Game: Riftbound,
		Filter: TypeFilter{
			Label: "Domain",
			Field: "domain",
			Options: []Option{
				{"body", "Body"},
				{"calm", "Calm"},
				{"chaos", "Chaos"},
				{"fury", "Fury"},
				{"mind", "Mind"},
				{"order", "Order"},
				{"none", "None"},
			},
			Mode:            MatchContains,
			CaseInsensitive: true,
		},
		Details: []DetailField{
			{Source: SourceCard, Key: "name", Label: "Name"},
			{Source: SourceCardSetName, Label: "Source Set"},
			{Source: SourceCard, Key: "number", Label: "Number"},
			{Source: SourceCard, Key: "rarity", Label: "Rarity"},
			{Source: SourceCard, Key: "cardType", Label: "Card Type"},
			{Source: SourceCard, Key: "domain", Label: "Domain"},
		},
		overlay: "riftbound-card-back.png",
	},
	Generic: {
		Game: Generic,
		Filter: TypeFilter{
			Label: "Type",
			Mode:  MatchExact,
		},
		Details: []DetailField{
			{Source: SourceCard, Key: "name", Label: "Name"},
			{Source: SourceSetName, Label: "Source Set"},
			{Source: SourceCard, Key: "id", Label: "ID"},
		},
	},
}

// For returns the schema of g.
func For(g Game) Schema {
	s, ok := schemas[g]
	if !ok {
		return schemas[Generic]
	}
	return s
}

// Lookup returns the schema for a game directory slug.
func Lookup(slug string) Schema {
	return For(Detect(slug))
}

// SetSentinel returns the set id after which a game's sets are listed, or
// "" when the game lists every set.
func (s Schema) SetSentinel() string {
	return s.sentinel
}

// Overlay returns the card-back image URL for a game slug joined to baseURL,
// or "" when the game has no overlay. League of Legends slugs share the
// Riftbound card back.
func Overlay(slug, baseURL string) string {
	name := Lookup(slug).overlay
	if name == "" && strings.Contains(strings.ToLower(slug), "league-of-legends") {
		name = schemas[Riftbound].overlay
	}
	if name == "" {
		return ""
	}
	if baseURL == "" {
		return name
	}
	return strings.TrimRight(baseURL, "/") + "/" + name
}
