package analysis

import (
	"fmt"

	"github.com/marchett/deepline/internal/engine"
)

// Palette is the fixed line-color palette, assigned in emission order.
// The 33rd line wraps back to the first entry. Completion order varies
// across runs, so colors are not stable between re-runs; callers that need
// stable coloring should key color by the line's root move instead.
var Palette = [32]string{
	"#4f8ef7", "#f75d59", "#3cb371", "#ffa500",
	"#9370db", "#00ced1", "#ff69b4", "#a0522d",
	"#6495ed", "#dc143c", "#2e8b57", "#daa520",
	"#8a2be2", "#20b2aa", "#db7093", "#cd853f",
	"#1e90ff", "#b22222", "#66cdaa", "#ff8c00",
	"#9932cc", "#5f9ea0", "#c71585", "#d2691e",
	"#87cefa", "#e9967a", "#8fbc8f", "#f0e68c",
	"#ba55d3", "#48d1cc", "#ff7f50", "#bc8f8f",
}

// FormatScore renders a centipawn score for display: forced mates as M<k>
// or -M<k> with k moves to mate, everything else as signed pawns with two
// decimals.
func FormatScore(score int) string {
	if engine.IsMateScore(score) {
		mag := score
		if mag < 0 {
			mag = -mag
		}
		k := (engine.MateValue - mag + 1) / 2
		if score < 0 {
			return fmt.Sprintf("-M%d", k)
		}
		return fmt.Sprintf("M%d", k)
	}
	return fmt.Sprintf("%+.2f", float64(score)/100)
}
