package engine

import (
	"math"
	"sort"

	"github.com/marchett/deepline/internal/position"
)

// Move ordering bonuses. Captures score 10*victim - attacker on top of
// these, so most captures outrank even the TT move's flat bonus.
const (
	ttMoveBonus      = 300
	killerBonus      = 90
	counterMoveBonus = 75
	historyCap       = 80
)

// lmrTable[d][m] is the late-move reduction for depth d and move index m.
var lmrTable [32][64]int

func init() {
	for d := 1; d < 32; d++ {
		for m := 1; m < 64; m++ {
			r := int(math.Floor(0.75 + math.Log(float64(d))*math.Log(float64(m+1))/2.25))
			if r < 1 {
				r = 1
			}
			lmrTable[d][m] = r
		}
	}
}

func lmrReduction(depth, moveIndex int) int {
	if depth > 31 {
		depth = 31
	}
	if moveIndex > 63 {
		moveIndex = 63
	}
	return lmrTable[depth][moveIndex]
}

// orderMoves sorts moves best-first for the search by a composite score:
// the TT-move bonus, MVV/LVA for captures, promotion value, then killers,
// countermove and capped history for the quiet remainder. The sort is
// stable so ties keep move-list order.
func (sc *SearchContext) orderMoves(moves []position.Move, ply int, ttKey, parentKey string) {
	counter := ""
	if parentKey != "" {
		counter = sc.counterMoves[parentKey]
	}
	scores := make([]int, len(moves))
	for i, m := range moves {
		s := 0
		if ttKey != "" && m.Key() == ttKey {
			s += ttMoveBonus
		}
		if m.IsCapture() {
			s += 10*pieceValue(m.Captured) - pieceValue(m.Piece)
		}
		if m.IsPromotion() {
			s += 8 * pieceValue(m.Promotion)
		}
		if m.IsQuiet() {
			k := sc.killers[ply]
			if m.Key() == k[0] || m.Key() == k[1] {
				s += killerBonus
			}
			if counter != "" && m.HistoryKey() == counter {
				s += counterMoveBonus
			}
			if h := sc.history[m.HistoryKey()]; h > 0 {
				b := h / 100
				if b > historyCap {
					b = historyCap
				}
				s += b
			}
		}
		scores[i] = s
	}
	idx := make([]int, len(moves))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })
	sorted := make([]position.Move, len(moves))
	for i, j := range idx {
		sorted[i] = moves[j]
	}
	copy(moves, sorted)
}

// orderCaptures sorts quiescence candidates by MVV/LVA plus promotion value.
func orderCaptures(moves []position.Move) {
	sort.SliceStable(moves, func(a, b int) bool {
		return captureScore(moves[a]) > captureScore(moves[b])
	})
}

func captureScore(m position.Move) int {
	s := 0
	if m.IsCapture() {
		s += 10*pieceValue(m.Captured) - pieceValue(m.Piece)
	}
	if m.IsPromotion() {
		s += pieceValue(m.Promotion)
	}
	return s
}
