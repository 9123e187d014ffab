package engine

import (
	"github.com/marchett/deepline/internal/position"
)

// Pruning margins and thresholds, indexed by depth where applicable.
const (
	nullMoveReduction = 3
	deltaMargin       = 200
)

var (
	razorMargin    = [3]int{0, 200, 350}
	futilityMargin = [4]int{0, 150, 300, 500}
	lmpThreshold   = [3]int{0, 5, 12}
)

// search is the main alpha-beta recursion, written as a two-branch minimax
// on maximizing (White-positive scores throughout). depth counts remaining
// plies; ply counts distance from the analyzed root position, so the root
// driver's child positions are searched at ply 1.
func (sc *SearchContext) search(pos *position.Position, depth, alpha, beta int, maximizing bool, ply int) int {
	sc.nodes++
	if sc.stop != nil && sc.nodes&4095 == 0 && sc.stop.Load() {
		return 0
	}

	// Mate-distance pruning.
	if a := -(MateValue - ply); a > alpha {
		alpha = a
	}
	if b := MateValue - ply; b < beta {
		beta = b
	}
	if alpha >= beta {
		return alpha
	}

	sig := pos.FEN()
	if score, ok := sc.tt.Probe(sig, depth, alpha, beta); ok {
		return score
	}

	if depth <= 0 {
		return sc.quiescence(pos, alpha, beta, maximizing, ply)
	}
	if ply >= MaxPly-1 {
		return Evaluate(pos, true)
	}

	moves := pos.LegalMoves()
	if len(moves) == 0 || pos.GameOver() {
		return Evaluate(pos, true)
	}

	inCheck := pos.InCheck()

	// Null-move pruning: give the opponent a free tempo; if the reduced
	// search still clears the bound, the real position will too. The
	// synthesis fails for some positions; failure skips the branch.
	if !inCheck && depth >= nullMoveReduction+1 {
		if np, err := pos.NullMove(); err == nil && !np.InCheck() {
			score := sc.search(np, depth-1-nullMoveReduction, alpha, beta, !maximizing, ply+1)
			if maximizing && score >= beta {
				return beta
			}
			if !maximizing && score <= alpha {
				return alpha
			}
		}
	}

	staticEval := 0
	haveStatic := false

	// Razoring, maximizing branch only.
	if !inCheck && maximizing && depth <= 2 {
		staticEval = Evaluate(pos, true)
		haveStatic = true
		if staticEval+razorMargin[depth] < alpha {
			if v := sc.quiescence(pos, alpha-1, alpha, maximizing, ply); v < alpha {
				return v
			}
		}
	}
	if !haveStatic && depth <= 3 {
		staticEval = Evaluate(pos, true)
		haveStatic = true
	}

	ttKey, _ := sc.tt.ProbeMove(sig)
	parentKey := ""
	if ply > 0 {
		parentKey = sc.moveStack[ply-1]
	}
	sc.orderMoves(moves, ply, ttKey, parentKey)

	originalAlpha, originalBeta := alpha, beta
	best := -Infinity
	if !maximizing {
		best = Infinity
	}
	bestKey := ""
	searched := 0
	quiets := 0

	for mi, mv := range moves {
		quiet := mv.IsQuiet()

		// Futility: a quiet move cannot lift a hopeless static eval past
		// the bound at shallow depth. Never prunes the first searched move.
		if quiet && !inCheck && searched > 0 && depth <= 3 {
			if maximizing && staticEval+futilityMargin[depth] <= alpha {
				continue
			}
			if !maximizing && staticEval-futilityMargin[depth] >= beta {
				continue
			}
		}

		// Late-move pruning of quiet tails at depth 1-2.
		if quiet && !inCheck && depth <= 2 && searched > 0 {
			quiets++
			if quiets > lmpThreshold[depth] {
				continue
			}
		}

		sc.moveStack[ply] = mv.HistoryKey()
		if err := pos.Make(mv); err != nil {
			continue
		}
		givesCheck := pos.InCheck()
		newDepth := depth - 1

		var score int
		switch {
		case searched == 0:
			score = sc.search(pos, newDepth, alpha, beta, !maximizing, ply+1)
		case mi >= 2 && depth >= 3 && quiet && !givesCheck && !inCheck:
			// LMR with a null window; re-search at full depth and window
			// when the reduced probe lands inside the bounds.
			r := lmrReduction(depth, mi)
			if r > newDepth {
				r = newDepth
			}
			score = sc.nullWindow(pos, newDepth-r, alpha, beta, maximizing, ply)
			if score > alpha && score < beta {
				score = sc.search(pos, newDepth, alpha, beta, !maximizing, ply+1)
			}
		default:
			// PVS null window for non-first moves.
			score = sc.nullWindow(pos, newDepth, alpha, beta, maximizing, ply)
			if score > alpha && score < beta {
				score = sc.search(pos, newDepth, alpha, beta, !maximizing, ply+1)
			}
		}

		pos.Unmake()
		searched++

		if maximizing {
			if score > best {
				best, bestKey = score, mv.Key()
			}
			if score > alpha {
				alpha = score
				if quiet {
					sc.history[mv.HistoryKey()] += depth
				}
			}
		} else {
			if score < best {
				best, bestKey = score, mv.Key()
			}
			if score < beta {
				beta = score
				if quiet {
					sc.history[mv.HistoryKey()] += depth
				}
			}
		}

		if alpha >= beta {
			if quiet {
				sc.storeKiller(ply, mv.Key())
				sc.history[mv.HistoryKey()] += depth * depth
				if parentKey != "" {
					sc.counterMoves[parentKey] = mv.HistoryKey()
				}
			}
			break
		}
	}

	if searched == 0 {
		// Every move was pruned; fall back to the static view.
		if haveStatic {
			return staticEval
		}
		return Evaluate(pos, true)
	}

	flag := TTExact
	if best >= originalBeta {
		flag = TTLowerBound
	} else if best <= originalAlpha {
		flag = TTUpperBound
	}
	sc.tt.Store(sig, depth, best, flag, bestKey)
	return best
}

func (sc *SearchContext) nullWindow(pos *position.Position, depth, alpha, beta int, maximizing bool, ply int) int {
	if maximizing {
		return sc.search(pos, depth, alpha, alpha+1, false, ply+1)
	}
	return sc.search(pos, depth, beta-1, beta, true, ply+1)
}

// quiescence stabilises the horizon by searching captures and promotions
// only (all evasions while in check). The evaluator's mobility term is
// suppressed here.
func (sc *SearchContext) quiescence(pos *position.Position, alpha, beta int, maximizing bool, ply int) int {
	sc.nodes++
	inCheck := pos.InCheck()

	standPat := 0
	if !inCheck {
		standPat = Evaluate(pos, false)
		if maximizing {
			if standPat >= beta {
				return beta
			}
			if standPat > alpha {
				alpha = standPat
			}
		} else {
			if standPat <= alpha {
				return alpha
			}
			if standPat < beta {
				beta = standPat
			}
		}
	}

	if ply >= MaxPly-1 {
		return Evaluate(pos, false)
	}

	moves := pos.LegalMoves()
	if len(moves) == 0 {
		if inCheck {
			if maximizing {
				return -MateValue
			}
			return MateValue
		}
		return Evaluate(pos, false)
	}

	var cands []position.Move
	if inCheck {
		cands = moves
	} else {
		for _, m := range moves {
			if m.IsCapture() || m.IsPromotion() {
				cands = append(cands, m)
			}
		}
		orderCaptures(cands)
	}

	for _, mv := range cands {
		// Delta pruning: the capture cannot recover the gap even with its
		// full material gain.
		if !inCheck && mv.IsCapture() {
			gain := pieceValue(mv.Captured)
			if maximizing && standPat+gain+deltaMargin < alpha {
				continue
			}
			if !maximizing && standPat-gain-deltaMargin > beta {
				continue
			}
		}

		if err := pos.Make(mv); err != nil {
			continue
		}
		score := sc.quiescence(pos, alpha, beta, !maximizing, ply+1)
		pos.Unmake()

		if maximizing {
			if score > alpha {
				alpha = score
			}
		} else {
			if score < beta {
				beta = score
			}
		}
		if alpha >= beta {
			break
		}
	}

	if maximizing {
		return alpha
	}
	return beta
}
