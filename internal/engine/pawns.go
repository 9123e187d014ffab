package engine

import (
	"math"

	"github.com/marchett/deepline/internal/position"
)

// Passed pawn bonus by 0-based rank from the pawn owner's perspective.
var passedBonus = [8]int{0, 0, 10, 20, 35, 55, 80, 120}

// Candidate passed pawn bonus, same indexing.
var candidateBonus = [8]int{0, 0, 5, 10, 20, 35, 0, 0}

const (
	doubledPenalty  = 25
	isolatedPenalty = 20
	backwardPenalty = 15
	chainBonus      = 10
	connectedBonus  = 8
)

// pawnStructure evaluates both sides' pawns file by file and records the
// passed-pawn set for the rook terms. White-positive.
func (e *evalInfo) pawnStructure(egw float64) int {
	score := 0
	for s := 0; s < 2; s++ {
		score += sign(s) * e.pawnSide(s, egw)
	}
	return score
}

// pawnSide scores one side's pawns from that side's perspective.
func (e *evalInfo) pawnSide(s int, egw float64) int {
	dir := 1
	if s == 1 {
		dir = -1
	}
	score := 0

	for f := 0; f < 8; f++ {
		ranks := e.pawns[s][f]
		if len(ranks) > 1 {
			score -= doubledPenalty * (len(ranks) - 1)
		}
		for _, r := range ranks {
			rel := r
			if s == 1 {
				rel = 7 - r
			}

			if e.isPassed(s, f, r) {
				e.passed[s] = append(e.passed[s], coord{position.Pawn, f, r})
				scale := 0.5 + 0.5*egw
				score += int(math.Round(float64(passedBonus[rel]) * scale))
				if egw > 0.3 {
					ownD := chebyshev(e.kings[s][0], e.kings[s][1], f, r)
					enemyD := chebyshev(e.kings[1-s][0], e.kings[1-s][1], f, r)
					score += int(math.Round(float64(enemyD-ownD) * 5 * egw))
				}
			} else if e.isCandidate(s, f, r, dir) {
				score += candidateBonus[rel]
			}

			if noAdjacentFriendly(e, s, f) {
				score -= isolatedPenalty
			}

			if e.isBackward(s, f, r, dir) {
				score -= backwardPenalty
			}

			if e.hasPawn(s, f-1, r+dir) || e.hasPawn(s, f+1, r+dir) {
				score += chainBonus
			}

			for _, df := range [2]int{-1, 1} {
				for dr := -1; dr <= 1; dr++ {
					if e.hasPawn(s, f+df, r+dr) {
						score += connectedBonus
					}
				}
			}
		}
	}

	score += e.pawnShield(s, dir, egw)
	return score
}

func noAdjacentFriendly(e *evalInfo, s, f int) bool {
	if f > 0 && len(e.pawns[s][f-1]) > 0 {
		return false
	}
	if f < 7 && len(e.pawns[s][f+1]) > 0 {
		return false
	}
	return true
}

// isPassed reports no enemy pawn on the same or adjacent files ahead of the
// pawn.
func (e *evalInfo) isPassed(s, f, r int) bool {
	for df := -1; df <= 1; df++ {
		file := f + df
		if file < 0 || file > 7 {
			continue
		}
		for _, er := range e.pawns[1-s][file] {
			if s == 0 && er > r {
				return false
			}
			if s == 1 && er < r {
				return false
			}
		}
	}
	return true
}

// isCandidate: the file ahead is clear and the pawn has more adjacent-file
// supporters nearby than there are enemy stoppers ahead.
func (e *evalInfo) isCandidate(s, f, r, dir int) bool {
	for _, pr := range e.pawns[0][f] {
		if (s == 0 && pr > r) || (s == 1 && pr < r) {
			return false
		}
	}
	for _, pr := range e.pawns[1][f] {
		if (s == 0 && pr > r) || (s == 1 && pr < r) {
			return false
		}
	}
	supporters, stoppers := 0, 0
	for _, df := range [2]int{-1, 1} {
		file := f + df
		if file < 0 || file > 7 {
			continue
		}
		for _, pr := range e.pawns[s][file] {
			rel := (pr - r) * dir
			if rel >= -1 && rel <= 2 {
				supporters++
			}
		}
		for _, er := range e.pawns[1-s][file] {
			if (s == 0 && er > r) || (s == 1 && er < r) {
				stoppers++
			}
		}
	}
	return supporters > stoppers
}

// isBackward: no friendly pawn alongside or behind on adjacent files, the
// stop square is covered by an enemy pawn, and something blocks the stop
// square.
func (e *evalInfo) isBackward(s, f, r, dir int) bool {
	for _, df := range [2]int{-1, 1} {
		file := f + df
		if file < 0 || file > 7 {
			continue
		}
		for _, pr := range e.pawns[s][file] {
			if (pr-r)*dir <= 0 {
				return false
			}
		}
	}
	stop := r + dir
	if stop < 0 || stop > 7 {
		return false
	}
	covered := e.hasPawn(1-s, f-1, stop+dir) || e.hasPawn(1-s, f+1, stop+dir)
	if !covered {
		return false
	}
	return e.grid[7-stop][f].Type != position.NoPieceType
}

// pawnShield rewards pawns one or two squares in front of the king on the
// king's file and its neighbors. Faded out toward the endgame.
func (e *evalInfo) pawnShield(s, dir int, egw float64) int {
	if egw >= 0.6 {
		return 0
	}
	bonus := int(math.Round(8 * (1 - egw)))
	kf, kr := e.kings[s][0], e.kings[s][1]
	score := 0
	for f := kf - 1; f <= kf+1; f++ {
		if f < 0 || f > 7 {
			continue
		}
		if e.hasPawn(s, f, kr+dir) || e.hasPawn(s, f, kr+2*dir) {
			score += bonus
		}
	}
	return score
}
