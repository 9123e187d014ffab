package analysis

import (
	"fmt"

	"github.com/marchett/deepline/internal/position"
)

// GeneratePlans builds the derived task set for a position: one root plan,
// a level-1 plan per root move, then level-2 plans for a budgeted number of
// replies per root move. The emitted order — root, all l1-*, all l2-*, each
// in root-move enumeration order — is preserved on dispatch because the
// palette is assigned by emission order. The list is capped at maxPlans.
func GeneratePlans(fen string, maxPlans, maxDepth int) ([]Task, error) {
	pos, err := position.New(fen)
	if err != nil {
		return nil, err
	}
	rootMoves := pos.LegalMoves()

	plans := []Task{{
		FEN:     fen,
		Depth:   maxDepth,
		MultiPV: min(8, len(rootMoves)),
		TaskID:  "root",
	}}
	if len(rootMoves) == 0 || maxPlans <= 1 {
		return plans[:min(len(plans), maxPlans)], nil
	}

	// Spread the remaining budget across root moves for level-2 plans.
	budget := maxPlans - 1 - len(rootMoves)
	perRoot := 0
	if budget > 0 {
		perRoot = (budget + len(rootMoves) - 1) / len(rootMoves)
	}

	type level2 struct {
		fen      string
		rootSAN  string
		replySAN string
	}
	var deferred []level2

	n := 0
	for _, rm := range rootMoves {
		if len(plans) >= maxPlans {
			break
		}
		if err := pos.Make(rm); err != nil {
			return nil, fmt.Errorf("plan generation: %w", err)
		}
		replies := pos.LegalMoves()
		n++
		plans = append(plans, Task{
			FEN:      pos.FEN(),
			Depth:    max(1, maxDepth-1),
			MultiPV:  min(4, len(replies)),
			TaskID:   fmt.Sprintf("l1-%d", n),
			RootMove: rm.SAN,
			Moves:    []string{rm.SAN},
		})
		for i := 0; i < perRoot && i < len(replies); i++ {
			rp := replies[i]
			if err := pos.Make(rp); err != nil {
				return nil, fmt.Errorf("plan generation: %w", err)
			}
			deferred = append(deferred, level2{fen: pos.FEN(), rootSAN: rm.SAN, replySAN: rp.SAN})
			pos.Unmake()
		}
		pos.Unmake()
	}

	m := 0
	for _, l2 := range deferred {
		if len(plans) >= maxPlans {
			break
		}
		m++
		plans = append(plans, Task{
			FEN:      l2.fen,
			Depth:    max(1, maxDepth-2),
			MultiPV:  1,
			TaskID:   fmt.Sprintf("l2-%d", m),
			RootMove: l2.rootSAN,
			Moves:    []string{l2.rootSAN, l2.replySAN},
		})
	}
	return plans, nil
}
