// Package engine implements the single-position search core: static
// evaluation, transposition table, heuristic tables, quiescence and the
// alpha-beta search with its root driver.
package engine

import (
	"math"

	"github.com/marchett/deepline/internal/position"
)

// Score bounds. Mate scores have absolute value in [MateThreshold, MateValue].
const (
	MateValue     = 30000
	MateThreshold = 29000
	Infinity      = 1 << 20
	MaxPly        = 128
)

// Evaluate returns the static score of a position in centipawns, positive
// meaning White is better. The mobility term is the only part that consults
// the move generator; quiescence calls with withMobility=false.
func Evaluate(pos *position.Position, withMobility bool) int {
	if pos.InCheckmate() {
		if pos.Turn() == position.White {
			return -MateValue
		}
		return MateValue
	}
	if pos.InStalemate() || pos.InsufficientMaterial() || pos.InThreefold() {
		return 0
	}

	e := gather(pos)
	egw := e.endgameWeight()

	score := e.materialAndPST(egw)
	score += e.bishopPair()
	score += e.pawnStructure(egw)
	score += e.rookTerms(egw)
	score += e.knightOutposts()
	score += e.kingAttackZone(egw)
	score += e.kingTropism()
	score += e.space(egw)
	score += e.hangingPieces()

	tempo := int(math.Round(15 - 10*egw))
	if pos.Turn() == position.White {
		score += tempo
	} else {
		score -= tempo
	}

	if withMobility {
		score += mobility(pos, egw)
	}
	return score
}

// evalInfo holds one scan of the board. Sides are indexed 0 = White,
// 1 = Black; ranks are 0-based (rank 0 = rank 1).
type evalInfo struct {
	grid      [8][8]position.Piece
	pawns     [2][8][]int // pawn ranks per file, ascending
	pawnCount [2]int
	bishops   [2]int
	kings     [2][2]int  // file, rank
	material  [2]int     // includes kings
	pieces    [2][]coord // non-pawn, non-king pieces
	passed    [2][]coord // passed pawns, filled by pawnStructure
}

type coord struct {
	typ  byte
	file int
	rank int
}

func side(c position.Color) int {
	if c == position.White {
		return 0
	}
	return 1
}

func sign(s int) int { return 1 - 2*s }

func gather(pos *position.Position) *evalInfo {
	e := &evalInfo{grid: pos.Board()}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			pc := e.grid[row][col]
			if pc.Type == position.NoPieceType {
				continue
			}
			s := side(pc.Color)
			rank := 7 - row
			e.material[s] += pieceValue(pc.Type)
			switch pc.Type {
			case position.Pawn:
				e.pawns[s][col] = append(e.pawns[s][col], rank)
				e.pawnCount[s]++
			case position.King:
				e.kings[s] = [2]int{col, rank}
			default:
				if pc.Type == position.Bishop {
					e.bishops[s]++
				}
				e.pieces[s] = append(e.pieces[s], coord{pc.Type, col, rank})
			}
		}
	}
	for s := 0; s < 2; s++ {
		for f := 0; f < 8; f++ {
			ranks := e.pawns[s][f]
			for i := 1; i < len(ranks); i++ {
				for j := i; j > 0 && ranks[j] < ranks[j-1]; j-- {
					ranks[j], ranks[j-1] = ranks[j-1], ranks[j]
				}
			}
		}
	}
	return e
}

// endgameWeight is 0 in the opening and approaches 1 as non-king material
// drops below ~32 pawns' worth.
func (e *evalInfo) endgameWeight() float64 {
	nonKing := e.material[0] + e.material[1] - 2*KingValue
	w := 1 - float64(nonKing)/3200
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}

func (e *evalInfo) materialAndPST(egw float64) int {
	score := 0
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			pc := e.grid[row][col]
			if pc.Type == position.NoPieceType {
				continue
			}
			rank := 7 - row
			sg := sign(side(pc.Color))
			if pc.Type == position.King {
				idx := pstIndex(col, rank, pc.Color)
				blend := float64(kingMidgamePST[idx])*(1-egw) + float64(kingEndgamePST[idx])*egw
				score += sg * (KingValue + int(math.Round(blend)))
			} else {
				score += sg * (pieceValue(pc.Type) + pstValue(pc.Type, col, rank, pc.Color))
			}
		}
	}
	return score
}

func (e *evalInfo) bishopPair() int {
	scale := 1 - float64(e.pawnCount[0]+e.pawnCount[1])/16
	if scale < 0.3 {
		scale = 0.3
	}
	bonus := int(math.Round(30 * scale))
	score := 0
	if e.bishops[0] >= 2 {
		score += bonus
	}
	if e.bishops[1] >= 2 {
		score -= bonus
	}
	return score
}

func (e *evalInfo) hasPawn(s, file, rank int) bool {
	if file < 0 || file > 7 {
		return false
	}
	for _, r := range e.pawns[s][file] {
		if r == rank {
			return true
		}
	}
	return false
}

func (e *evalInfo) rookTerms(egw float64) int {
	score := 0
	for s := 0; s < 2; s++ {
		sg := sign(s)
		var rooks []coord
		for _, p := range e.pieces[s] {
			if p.typ == position.Rook {
				rooks = append(rooks, p)
			}
		}
		seventh, backRank := 6, 7
		if s == 1 {
			seventh, backRank = 1, 0
		}
		for _, rk := range rooks {
			ownPawns := len(e.pawns[s][rk.file])
			enemyPawns := len(e.pawns[1-s][rk.file])
			if ownPawns == 0 && enemyPawns == 0 {
				score += sg * 25
			} else if ownPawns == 0 {
				score += sg * 12
			}
			for _, pp := range e.passed[s] {
				if pp.file != rk.file {
					continue
				}
				behind := rk.rank < pp.rank
				if s == 1 {
					behind = rk.rank > pp.rank
				}
				if behind {
					score += sg * int(math.Round(15*egw))
				}
			}
			if rk.rank == seventh {
				enemyPawnOnRank := false
				for f := 0; f < 8; f++ {
					if e.hasPawn(1-s, f, seventh) {
						enemyPawnOnRank = true
						break
					}
				}
				if enemyPawnOnRank || e.kings[1-s][1] == backRank {
					score += sg * 25
				}
			}
		}
		for i := 0; i < len(rooks); i++ {
			for j := i + 1; j < len(rooks); j++ {
				if rooks[i].file == rooks[j].file || rooks[i].rank == rooks[j].rank {
					score += sg * 15
				}
			}
		}
	}
	return score
}

func (e *evalInfo) knightOutposts() int {
	score := 0
	for s := 0; s < 2; s++ {
		dir := 1
		if s == 1 {
			dir = -1
		}
		for _, p := range e.pieces[s] {
			if p.typ != position.Knight {
				continue
			}
			if s == 0 && p.rank < 4 {
				continue
			}
			if s == 1 && p.rank > 3 {
				continue
			}
			protected := e.hasPawn(s, p.file-1, p.rank-dir) || e.hasPawn(s, p.file+1, p.rank-dir)
			if !protected {
				continue
			}
			challengeable := false
			for _, df := range [2]int{-1, 1} {
				f := p.file + df
				if f < 0 || f > 7 {
					continue
				}
				for _, er := range e.pawns[1-s][f] {
					if (s == 0 && er > p.rank) || (s == 1 && er < p.rank) {
						challengeable = true
					}
				}
			}
			if !challengeable {
				score += sign(s) * 20
			}
		}
	}
	return score
}

func zonePenalty(attackers int) int {
	switch attackers {
	case 0:
		return 0
	case 1:
		return 10
	case 2:
		return 25
	case 3:
		return 45
	}
	return 70 + (attackers-3)*15
}

var zoneWeight = map[byte]int{
	position.Pawn: 1, position.Knight: 2, position.Bishop: 2,
	position.Rook: 3, position.Queen: 5,
}

// kingAttackZone weighs enemy pieces sitting inside the 3x3 zone around each
// king. Skipped deep in the endgame.
func (e *evalInfo) kingAttackZone(egw float64) int {
	if egw > 0.7 {
		return 0
	}
	attacks := func(s int) int {
		kf, kr := e.kings[s][0], e.kings[s][1]
		total := 0
		enemy := 1 - s
		count := func(typ byte, f, r int) {
			if abs(f-kf) <= 1 && abs(r-kr) <= 1 {
				total += zoneWeight[typ]
			}
		}
		for _, p := range e.pieces[enemy] {
			count(p.typ, p.file, p.rank)
		}
		for f := 0; f < 8; f++ {
			for _, r := range e.pawns[enemy][f] {
				count(position.Pawn, f, r)
			}
		}
		return total
	}
	diff := zonePenalty(attacks(1)) - zonePenalty(attacks(0))
	return int(math.Round(float64(diff) * (1 - egw)))
}

var tropismWeight = map[byte]int{
	position.Knight: 3, position.Bishop: 2, position.Rook: 2, position.Queen: 4,
}

func chebyshev(f1, r1, f2, r2 int) int {
	df, dr := abs(f1-f2), abs(r1-r2)
	if df > dr {
		return df
	}
	return dr
}

func (e *evalInfo) kingTropism() int {
	score := 0
	for s := 0; s < 2; s++ {
		ek := e.kings[1-s]
		total := 0
		for _, p := range e.pieces[s] {
			w, ok := tropismWeight[p.typ]
			if !ok {
				continue
			}
			v := (7 - chebyshev(p.file, p.rank, ek[0], ek[1])) * w
			if v > 0 {
				total += v
			}
		}
		score += sign(s) * int(math.Round(float64(total)/2))
	}
	return score
}

// space counts pawn advancement on the central files c through f.
func (e *evalInfo) space(egw float64) int {
	var sp [2]int
	for f := 2; f <= 5; f++ {
		for _, r := range e.pawns[0][f] {
			sp[0] += (r + 1) - 2
		}
		for _, r := range e.pawns[1][f] {
			sp[1] += 7 - (r + 1)
		}
	}
	return int(math.Round(float64(sp[0]-sp[1]) * 0.5 * (1 - egw)))
}

// hangingPieces penalizes a minor or major piece attacked by an enemy pawn
// with no friendly pawn defending it.
func (e *evalInfo) hangingPieces() int {
	score := 0
	for s := 0; s < 2; s++ {
		dir := 1
		if s == 1 {
			dir = -1
		}
		for _, p := range e.pieces[s] {
			if pieceValue(p.typ) < 300 {
				continue
			}
			attacked := e.hasPawn(1-s, p.file-1, p.rank+dir) || e.hasPawn(1-s, p.file+1, p.rank+dir)
			defended := e.hasPawn(s, p.file-1, p.rank-dir) || e.hasPawn(s, p.file+1, p.rank-dir)
			if attacked && !defended {
				score -= sign(s) * 20
			}
		}
	}
	return score
}

// mobility compares legal move counts. The opposite side's count comes from
// a side-flipped synthetic position; when that synthesis fails the opponent
// contributes 0.
func mobility(pos *position.Position, egw float64) int {
	own := len(pos.LegalMoves())
	opp := 0
	if np, err := pos.NullMove(); err == nil {
		opp = len(np.LegalMoves())
	}
	white, black := own, opp
	if pos.Turn() == position.Black {
		white, black = opp, own
	}
	return int(math.Round(float64(white-black) * 2 * (1 - egw)))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
