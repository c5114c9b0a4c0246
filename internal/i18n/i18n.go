// Package i18n provides the static localization table handed to renderers
// and the label translations used while normalizing cards.
//
// Message keys are the English strings themselves; English therefore needs
// no catalog entries and any unknown key falls back to its own text.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var supported = []language.Tag{language.English, language.French}

var matcher = language.NewMatcher(supported)

var french = map[string]string{
	"Type":        "Type",
	"Types":       "Types",
	"Color":       "Couleur",
	"Domain":      "Domaine",
	"Black":       "Noir",
	"Blue":        "Bleu",
	"Green":       "Vert",
	"Purple":      "Violet",
	"Red":         "Rouge",
	"Yellow":      "Jaune",
	"Body":        "Corps",
	"Calm":        "Calme",
	"Chaos":       "Chaos",
	"Fury":        "Fureur",
	"Mind":        "Esprit",
	"Order":       "Ordre",
	"None":        "Aucun",
	"Name":        "Nom",
	"Source Set":  "Extension",
	"ID":          "ID",
	"Supertype":   "Supertype",
	"Code":        "Code",
	"Rarity":      "Rareté",
	"Number":      "Numéro",
	"Card Type":   "Type de carte",
	"Yes":         "Oui",
	"No":          "Non",
	"Set":         "Extension",
	"All Games":   "Tous les jeux",
	"All Sets":    "Toutes les extensions",
	"All Types":   "Tous les types",
	"Previous":    "Précédent",
	"Next":        "Suivant",

	"Search cards…":                    "Rechercher des cartes…",
	"Trading Card Game":                "Jeu de cartes",
	"No cards match your filters.":     "Aucune carte ne correspond à vos filtres.",
	"Select a game to start browsing.": "Choisissez un jeu pour commencer.",
	"Page %s of %s":                    "Page %s sur %s",
	"Page %d of %d":                    "Page %d sur %d",
}

func init() {
	for key, msg := range french {
		if err := message.SetString(language.French, key, msg); err != nil {
			panic(err)
		}
	}
}

// Translator renders message keys in a single locale.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a Translator for the closest supported match of locale.
// An empty or unparsable locale yields English.
func New(locale string) *Translator {
	tag := language.English
	if locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			_, idx, _ := matcher.Match(parsed)
			tag = supported[idx]
		}
	}
	return &Translator{tag: tag, printer: message.NewPrinter(tag)}
}

// Tag returns the language the Translator renders.
func (t *Translator) Tag() language.Tag {
	return t.tag
}

// T translates key and formats args into it.
func (t *Translator) T(key string, args ...any) string {
	if key == "" {
		return ""
	}
	return t.printer.Sprintf(key, args...)
}

// Bool renders a boolean as a localized Yes/No.
func (t *Translator) Bool(v bool) string {
	if v {
		return t.T("Yes")
	}
	return t.T("No")
}

// Table returns the static UI strings shipped with every catalog snapshot.
// pageStatus keeps positional placeholders for the client to fill in.
func (t *Translator) Table() map[string]string {
	return map[string]string{
		"allGames":   t.T("All Games"),
		"allSets":    t.T("All Sets"),
		"allTypes":   t.T("All Types"),
		"noCards":    t.T("No cards match your filters."),
		"selectGame": t.T("Select a game to start browsing."),
		"previous":   t.T("Previous"),
		"next":       t.T("Next"),
		"pageStatus": t.T("Page %s of %s", "%1$s", "%2$s"),
		"search":     t.T("Search cards…"),
		"game":       t.T("Trading Card Game"),
		"set":        t.T("Set"),
	}
}
