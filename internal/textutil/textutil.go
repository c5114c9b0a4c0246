// Package textutil holds the small string helpers shared by the catalog
// loader and the renderers: slug humanizing, whitespace collapsing and the
// fold keys used for case-insensitive comparisons.
package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CollapseSpace replaces every run of whitespace with a single space and
// trims the result.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Humanize turns a slug such as "pokemon-base_set" into "Pokemon Base Set".
// Only the first letter of each word is upper-cased; the rest of the word is
// left as is.
func Humanize(slug string) string {
	if slug == "" {
		return ""
	}
	s := strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	s = CollapseSpace(s)
	if s == "" {
		return ""
	}
	// Casers keep state and must not be shared between goroutines.
	return cases.Title(language.Und, cases.NoLower).String(s)
}

// Fold returns the comparison key for s under case-insensitive matching.
func Fold(s string) string {
	return strings.ToLower(s)
}
