package textutil

import "testing"

func TestHumanize(t *testing.T) {
	cases := map[string]string{
		"":                 "",
		"pokemon":          "Pokemon",
		"pokemon-base-set": "Pokemon Base Set",
		"one_piece":        "One Piece",
		"  riftbound--ogn": "Riftbound Ogn",
		"sv3pt5":           "Sv3pt5",
		"keep-UPPER":       "Keep UPPER",
		"-_-":              "",
	}
	for in, want := range cases {
		if got := Humanize(in); got != want {
			t.Errorf("Humanize(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestCollapseSpace(t *testing.T) {
	if got := CollapseSpace("  Dark \t\n Red  "); got != "Dark Red" {
		t.Errorf("CollapseSpace: got %q, want %q", got, "Dark Red")
	}
	if got := CollapseSpace(" \t "); got != "" {
		t.Errorf("CollapseSpace(blank): got %q, want empty", got)
	}
}

func TestFold(t *testing.T) {
	if Fold("Dark Red") != Fold("dark RED") {
		t.Error("Fold should ignore case")
	}
}
