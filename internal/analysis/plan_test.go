package analysis

import (
	"strings"
	"testing"

	"github.com/marchett/deepline/internal/position"
)

func TestGeneratePlansStartingPosition(t *testing.T) {
	plans, err := GeneratePlans(position.StartingFEN, 32, 6)
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) != 32 {
		t.Fatalf("plan count: got %d, want 32", len(plans))
	}

	root := plans[0]
	if root.TaskID != "root" || root.MultiPV != 8 || root.Depth != 6 {
		t.Errorf("root plan: %+v", root)
	}
	if root.FEN != position.StartingFEN {
		t.Errorf("root plan FEN: %q", root.FEN)
	}

	// All level-1 plans come before any level-2 plan, numbered in
	// root-move enumeration order.
	sawL2 := false
	l1 := 0
	for _, p := range plans[1:] {
		switch {
		case strings.HasPrefix(p.TaskID, "l1-"):
			if sawL2 {
				t.Fatalf("level-1 plan %s after a level-2 plan", p.TaskID)
			}
			l1++
			if p.Depth != 5 || p.MultiPV > 4 || len(p.Moves) != 1 {
				t.Errorf("level-1 plan: %+v", p)
			}
			if p.RootMove != p.Moves[0] {
				t.Errorf("level-1 root move mismatch: %+v", p)
			}
		case strings.HasPrefix(p.TaskID, "l2-"):
			sawL2 = true
			if p.Depth != 4 || p.MultiPV != 1 || len(p.Moves) != 2 {
				t.Errorf("level-2 plan: %+v", p)
			}
		default:
			t.Errorf("unexpected task id %q", p.TaskID)
		}
	}
	if l1 != 20 {
		t.Errorf("level-1 plan count: got %d, want 20", l1)
	}
}

func TestGeneratePlansExactBudget(t *testing.T) {
	// Without a cap the generator emits 1 + k + sum(replies) plans.
	fen := "7k/8/8/8/8/8/8/K7 w - - 0 1"
	pos, err := position.New(fen)
	if err != nil {
		t.Fatal(err)
	}
	rootMoves := pos.LegalMoves()
	k := len(rootMoves)

	budget := 1000
	perRoot := (budget - 1 - k + k - 1) / k
	expected := 1 + k
	for _, rm := range rootMoves {
		if err := pos.Make(rm); err != nil {
			t.Fatal(err)
		}
		replies := len(pos.LegalMoves())
		if replies > perRoot {
			replies = perRoot
		}
		expected += replies
		pos.Unmake()
	}

	plans, err := GeneratePlans(fen, budget, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) != expected {
		t.Errorf("plan count: got %d, want %d", len(plans), expected)
	}
}

func TestGeneratePlansTerminalPosition(t *testing.T) {
	plans, err := GeneratePlans("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", 16, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) != 1 {
		t.Fatalf("terminal position plan count: got %d, want 1", len(plans))
	}
	if plans[0].TaskID != "root" || plans[0].MultiPV != 0 {
		t.Errorf("terminal root plan: %+v", plans[0])
	}
}

func TestGeneratePlansDepthFloor(t *testing.T) {
	plans, err := GeneratePlans(position.StartingFEN, 64, 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range plans {
		if p.Depth < 1 {
			t.Fatalf("plan %s has depth %d", p.TaskID, p.Depth)
		}
	}
}
