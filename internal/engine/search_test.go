package engine

import (
	"testing"

	"github.com/marchett/deepline/internal/position"
)

func TestAnalyzeStartingPosition(t *testing.T) {
	sc := NewSearchContext(nil)

	lines, nodes, err := sc.Analyze(position.StartingFEN, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 3 {
		t.Fatalf("line count: got %d, want 3", len(lines))
	}
	if nodes <= 0 {
		t.Error("node count not reported")
	}

	top := lines[0]
	ok := false
	for _, san := range []string{"e4", "d4", "Nf3", "c4"} {
		if top.Move.SAN == san {
			ok = true
		}
	}
	if !ok {
		t.Errorf("top move %q not among mainline openings", top.Move.SAN)
	}
	if top.Score <= -100 || top.Score >= 100 {
		t.Errorf("starting position top score %d outside (-100, 100)", top.Score)
	}
	for i := 1; i < len(lines); i++ {
		if lines[i].Score > lines[i-1].Score {
			t.Errorf("lines not sorted: %d before %d", lines[i-1].Score, lines[i].Score)
		}
	}
}

func TestAnalyzeMateInOne(t *testing.T) {
	sc := NewSearchContext(nil)

	lines, _, err := sc.Analyze("6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1", 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 {
		t.Fatalf("line count: got %d, want 1", len(lines))
	}
	if lines[0].Move.SAN != "Ra8#" {
		t.Errorf("best move: got %q, want Ra8#", lines[0].Move.SAN)
	}
	if lines[0].Score < MateThreshold {
		t.Errorf("mate score: got %d, want >= %d", lines[0].Score, MateThreshold)
	}
	if !IsMateScore(lines[0].Score) {
		t.Error("IsMateScore rejects the mate score")
	}
}

func TestAnalyzeBlackPerspective(t *testing.T) {
	// Black to move, mate in one by ...Ra1#.
	sc := NewSearchContext(nil)

	lines, _, err := sc.Analyze("r5k1/5ppp/8/8/8/8/5PPP/6K1 b - - 0 1", 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 {
		t.Fatalf("line count: got %d, want 1", len(lines))
	}
	if lines[0].Move.SAN != "Ra1#" {
		t.Errorf("best move: got %q, want Ra1#", lines[0].Move.SAN)
	}
	// Scores are from the root side's perspective, so a winning line for
	// Black is positive.
	if lines[0].Score < MateThreshold {
		t.Errorf("mate score for black: got %d, want >= %d", lines[0].Score, MateThreshold)
	}
}

func TestAnalyzeTerminalRoot(t *testing.T) {
	sc := NewSearchContext(nil)
	lines, _, err := sc.Analyze("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", 3, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 0 {
		t.Errorf("stalemate root should yield no lines, got %d", len(lines))
	}
}

func TestAnalyzeInvalidFEN(t *testing.T) {
	sc := NewSearchContext(nil)
	if _, _, err := sc.Analyze("garbage", 2, 1); err == nil {
		t.Error("expected error for invalid FEN")
	}
}

func TestSearchRestoresPosition(t *testing.T) {
	pos := mustPosition(t, "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3")
	before := pos.FEN()

	sc := NewSearchContext(nil)
	sc.search(pos, 2, -Infinity, Infinity, true, 0)

	if got := pos.FEN(); got != before {
		t.Errorf("search left the position mutated: %q", got)
	}
}

func TestTTDeterminism(t *testing.T) {
	// Same worker, same parameters: the preserved TT makes the second call
	// cheaper but must return the same top move.
	sc := NewSearchContext(nil)

	first, firstNodes, err := sc.Analyze(position.StartingFEN, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	second, secondNodes, err := sc.Analyze(position.StartingFEN, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if first[0].Move.SAN != second[0].Move.SAN {
		t.Errorf("top move changed across identical searches: %q vs %q",
			first[0].Move.SAN, second[0].Move.SAN)
	}
	t.Logf("nodes: cold=%d warm=%d", firstNodes, secondNodes)
}

func TestQuiescenceStandPat(t *testing.T) {
	// Quiet position with no captures or promotions available: quiescence
	// must return the static eval with mobility suppressed.
	pos := mustPosition(t, "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1")
	sc := NewSearchContext(nil)

	got := sc.quiescence(pos, -Infinity, Infinity, true, 0)
	want := Evaluate(pos, false)
	if got != want {
		t.Errorf("stand-pat: got %d, want %d", got, want)
	}
}

func TestQuiescenceCheckmate(t *testing.T) {
	// Side to move is mated; quiescence reports the mate directly.
	pos := mustPosition(t, "R5k1/5ppp/8/8/8/8/5PPP/6K1 b - - 0 1")
	sc := NewSearchContext(nil)

	if got := sc.quiescence(pos, -Infinity, Infinity, false, 0); got != MateValue {
		t.Errorf("mated minimizing side: got %d, want %d", got, MateValue)
	}
}

func TestSearchWinsHangingRook(t *testing.T) {
	sc := NewSearchContext(nil)
	lines, _, err := sc.Analyze("8/8/8/3r4/4Q3/8/8/k3K3 w - - 0 1", 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) == 0 {
		t.Fatal("no lines returned")
	}
	if lines[0].Move.SAN != "Qxd5" {
		t.Errorf("best move: got %q, want Qxd5", lines[0].Move.SAN)
	}
}
