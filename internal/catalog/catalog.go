// Package catalog provides the card catalog abstraction for tcg-kiosk.
// It defines the core data types and the Source interface that backends implement.
package catalog

import (
	"errors"
	"strings"

	"github.com/banux/tcg-kiosk/internal/schema"
)

// ErrNotFound is returned when a game slug is not part of the catalog.
var ErrNotFound = errors.New("not found")

// RawCard is one undecoded record of a card file. Numbers are kept as
// json.Number.
type RawCard = map[string]any

// CardView is a card ready for display.
type CardView struct {
	// ID is the card identifier as found in the source record.
	ID string `json:"id"`

	// Name is the display name of the card.
	Name string `json:"name"`

	// Game is the humanized game label (e.g. "Pokemon").
	Game string `json:"game"`

	// Set is the display name of the set the card file belongs to.
	Set string `json:"set"`

	// ImageURL is the primary image. Never empty.
	ImageURL string `json:"imageUrl"`

	// ImageFullURL is the largest image, ImageURL when there is none larger.
	ImageFullURL string `json:"imageFullUrl"`

	ImageSrcset string `json:"imageSrcset"`
	ImageSizes  string `json:"imageSizes"`

	// TypeValues are the values the type filter matches against.
	TypeValues []string `json:"typeValues"`

	// Details are the populated label/value pairs shown with the card.
	Details []Detail `json:"details"`
}

// Detail is a label/value pair. Both are non-empty.
type Detail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// TypeOption is one choice of a game's type filter.
type TypeOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// MatchMode controls how a selected type value is compared with card type
// values.
type MatchMode = schema.MatchMode

const (
	MatchExact    = schema.MatchExact
	MatchContains = schema.MatchContains
)

// GameGroup holds the cards of one game directory.
type GameGroup struct {
	Slug                string       `json:"slug"`
	Label               string       `json:"label"`
	TypeLabel           string       `json:"typeLabel"`
	TypeOptions         []TypeOption `json:"typeOptions"`
	TypeMatchMode       MatchMode    `json:"typeMatchMode"`
	TypeCaseInsensitive bool         `json:"typeCaseInsensitive"`
	OverlayImage        string       `json:"overlayImage"`

	// SetOrder is the preferred order of set names. Empty means alphabetical.
	SetOrder []string `json:"setOrder"`

	// Cards are in load order. Never empty.
	Cards []CardView `json:"cards"`
}

// Catalog is an immutable snapshot of every game.
type Catalog struct {
	Groups []GameGroup `json:"games"`

	// LastModified is the newest modification time under the data root, in
	// Unix seconds.
	LastModified int64 `json:"lastModified"`
}

// Group returns the group with the given slug. The comparison ignores case.
func (c *Catalog) Group(slug string) (*GameGroup, error) {
	if c == nil || slug == "" {
		return nil, ErrNotFound
	}
	for i := range c.Groups {
		if strings.EqualFold(c.Groups[i].Slug, slug) {
			return &c.Groups[i], nil
		}
	}
	return nil, ErrNotFound
}

// CardCount returns the number of cards across all groups.
func (c *Catalog) CardCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, g := range c.Groups {
		n += len(g.Cards)
	}
	return n
}

// Query carries the parameters of a catalog query.
type Query struct {
	// GameSlug selects the game. Empty selects nothing.
	GameSlug string

	// SetName filters by exact set display name (empty = no filter).
	SetName string

	// TypeValue filters by type value (empty = no filter).
	TypeValue string

	// SearchText is a case-insensitive substring of the card name.
	SearchText string

	// Page is 1-based. Out of range values are clamped.
	Page int

	// PageSize is the number of cards per page (<= 0 = default).
	PageSize int
}

// ResultPage is one page of query results.
type ResultPage struct {
	Items      []CardView `json:"items"`
	TotalPages int        `json:"totalPages"`
	Page       int        `json:"page"`
	Total      int        `json:"total"`
}

// Source is the interface that backend implementations must satisfy.
// A Source provides the current catalog snapshot, building it on first use.
type Source interface {
	Snapshot() (*Catalog, error)
}

// Invalidator is an optional interface for sources that memoize their
// snapshot. After Invalidate the next Snapshot call rebuilds from disk.
type Invalidator interface {
	Invalidate()
}
