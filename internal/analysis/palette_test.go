package analysis

import (
	"strings"
	"testing"
)

func TestPaletteShape(t *testing.T) {
	if len(Palette) != 32 {
		t.Fatalf("palette size: got %d, want 32", len(Palette))
	}
	seen := make(map[string]bool)
	for i, c := range Palette {
		if !strings.HasPrefix(c, "#") || len(c) != 7 {
			t.Errorf("palette[%d] = %q is not a hex color", i, c)
		}
		if seen[c] {
			t.Errorf("palette[%d] = %q repeated", i, c)
		}
		seen[c] = true
	}
	// The 33rd line wraps to the first color.
	if Palette[32%len(Palette)] != Palette[0] {
		t.Error("palette wrap broken")
	}
}

func TestFormatScore(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{0, "+0.00"},
		{150, "+1.50"},
		{-25, "-0.25"},
		{7, "+0.07"},
		{29999, "M1"},
		{-29999, "-M1"},
		{29997, "M2"},
		{29000, "M500"},
	}
	for _, tc := range cases {
		if got := FormatScore(tc.score); got != tc.want {
			t.Errorf("FormatScore(%d): got %q, want %q", tc.score, got, tc.want)
		}
	}
}
