package engine

import (
	"sort"
	"sync/atomic"

	"github.com/marchett/deepline/internal/position"
)

// SearchContext owns all mutable search state for one worker. The
// transposition table and countermove table persist across root searches;
// killers, history and the move stack are reset (history gravity-decayed)
// at the start of each root search. Contexts are not safe for concurrent
// use; each worker owns exactly one.
type SearchContext struct {
	tt           *TransTable
	counterMoves map[string]string
	history      map[string]int
	killers      [MaxPly][2]string
	moveStack    [MaxPly]string
	nodes        int64
	stop         *atomic.Bool
}

// NewSearchContext creates a context. stop may be nil; when set, the search
// polls it every 4096 nodes and unwinds with meaningless scores, which the
// caller must discard.
func NewSearchContext(stop *atomic.Bool) *SearchContext {
	return &SearchContext{
		tt:           NewTransTable(),
		counterMoves: make(map[string]string),
		history:      make(map[string]int),
		stop:         stop,
	}
}

// Nodes returns the node count of the last Analyze call.
func (sc *SearchContext) Nodes() int64 { return sc.nodes }

func (sc *SearchContext) storeKiller(ply int, key string) {
	if sc.killers[ply][0] == key {
		return
	}
	sc.killers[ply][1] = sc.killers[ply][0]
	sc.killers[ply][0] = key
}

// resetForRoot applies history gravity (halve, drop zeros) and clears the
// per-search tables.
func (sc *SearchContext) resetForRoot() {
	for k, v := range sc.history {
		v /= 2
		if v == 0 {
			delete(sc.history, k)
		} else {
			sc.history[k] = v
		}
	}
	for i := range sc.killers {
		sc.killers[i] = [2]string{}
	}
	for i := range sc.moveStack {
		sc.moveStack[i] = ""
	}
	sc.nodes = 0
}

// MoveScore pairs a root move with its score from the root side's
// perspective.
type MoveScore struct {
	Move  position.Move
	Score int
}

// Aspiration window half-widths, narrow first, widened once on a fail.
const (
	aspirationNarrow = 50
	aspirationWide   = 150
)

// IsMateScore reports whether a score encodes a forced mate.
func IsMateScore(score int) bool { return abs(score) >= MateThreshold }

// Analyze runs iterative deepening independently over every root move of
// the position and returns the best multiPV of them sorted by descending
// score, plus the node count. A terminal root position yields an empty
// slice and no error.
func (sc *SearchContext) Analyze(fen string, maxDepth, multiPV int) ([]MoveScore, int64, error) {
	pos, err := position.New(fen)
	if err != nil {
		return nil, 0, err
	}
	sc.resetForRoot()

	rootMoves := pos.LegalMoves()
	if len(rootMoves) == 0 {
		return nil, 0, nil
	}
	rootIsBlack := pos.Turn() == position.Black

	results := make([]MoveScore, 0, len(rootMoves))
	for _, rm := range rootMoves {
		sc.moveStack[0] = rm.HistoryKey()
		if err := pos.Make(rm); err != nil {
			return nil, sc.nodes, err
		}
		childMax := pos.Turn() == position.White

		var score int
		for d := 1; d <= maxDepth; d++ {
			childDepth := d - 1
			if d == 1 {
				score = sc.search(pos, childDepth, -Infinity, Infinity, childMax, 1)
			} else {
				prev := score
				alpha, beta := prev-aspirationNarrow, prev+aspirationNarrow
				score = sc.search(pos, childDepth, alpha, beta, childMax, 1)
				if score <= alpha || score >= beta {
					alpha, beta = prev-aspirationWide, prev+aspirationWide
					score = sc.search(pos, childDepth, alpha, beta, childMax, 1)
					if score <= alpha || score >= beta {
						score = sc.search(pos, childDepth, -Infinity, Infinity, childMax, 1)
					}
				}
			}
			if IsMateScore(score) {
				break
			}
			if sc.stop != nil && sc.stop.Load() {
				break
			}
		}

		pos.Unmake()
		if rootIsBlack {
			score = -score
		}
		results = append(results, MoveScore{Move: rm, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if multiPV > 0 && len(results) > multiPV {
		results = results[:multiPV]
	}
	return results, sc.nodes, nil
}
