package layout

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
)

func TestTruncateAndPad(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"sol", 5, "sol  "},
		{"blåbærgrød", 6, "blåbæ…"},
		{"kat", 3, "kat"},
		{"hund", 0, ""},
	}
	for _, tt := range tests {
		if got := Pad(tt.in, tt.n); got != tt.want {
			t.Errorf("Pad(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestSpreadKeepsOrder(t *testing.T) {
	got := spread(30, "L", "midt", "R")
	if lipgloss.Width(got) != 30 {
		t.Errorf("width = %d, want 30", lipgloss.Width(got))
	}
	if !strings.HasPrefix(got, "L ") || !strings.HasSuffix(got, " R") || !strings.Contains(got, "midt") {
		t.Errorf("spread = %q", got)
	}

	tight := spread(3, "venstre", "midt", "højre")
	if !strings.Contains(tight, "venstre midt højre") {
		t.Errorf("tight spread = %q", tight)
	}
}

func TestRenderHeaderStatus(t *testing.T) {
	out := RenderHeader("Resultat", Status{StudentID: "anna", Level: 7}, 80)
	for _, want := range []string{"Læsemaskine", "Resultat", "anna", "Niveau 7"} {
		if !strings.Contains(out, want) {
			t.Errorf("header misses %q", want)
		}
	}
	if strings.Contains(RenderHeader("Hjem", Status{}, 80), "Niveau") {
		t.Error("level shown without a level")
	}
}

func TestRenderFooterDropsOverflow(t *testing.T) {
	hints := []KeyHint{{"Enter", "Vælg"}, {"Esc", "Tilbage"}, {"Ctrl+C", "Afslut"}}

	wide := RenderFooter(hints, 80)
	if !strings.Contains(wide, "Afslut") {
		t.Error("wide footer misses a hint")
	}
	narrow := RenderFooter(hints, 26)
	if !strings.Contains(narrow, "Vælg") || strings.Contains(narrow, "Afslut") {
		t.Errorf("narrow footer = %q", narrow)
	}
}

func TestIsTooSmall(t *testing.T) {
	if !IsTooSmall(MinWidth-1, MinHeight) || !IsTooSmall(MinWidth, MinHeight-1) {
		t.Error("below minimum not reported")
	}
	if IsTooSmall(MinWidth, MinHeight) {
		t.Error("minimum size reported as too small")
	}
}
