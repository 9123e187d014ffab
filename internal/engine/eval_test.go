package engine

import (
	"testing"

	"github.com/marchett/deepline/internal/position"
)

func mustPosition(t *testing.T, fen string) *position.Position {
	t.Helper()
	pos, err := position.New(fen)
	if err != nil {
		t.Fatalf("load %q: %v", fen, err)
	}
	return pos
}

func TestEvaluateStartingPosition(t *testing.T) {
	pos := mustPosition(t, position.StartingFEN)
	score := Evaluate(pos, true)
	if score < -20 || score > 20 {
		t.Errorf("starting position score %d outside [-20, 20]", score)
	}
	t.Logf("starting position: %d cp", score)
}

// mirrorFEN flips the board vertically, swaps piece colors and the side to
// move. Only valid for positions without castling rights or en passant.
func mirrorFEN(fen string) string {
	parts := make([]string, 0, 6)
	start := 0
	for i := 0; i <= len(fen); i++ {
		if i == len(fen) || fen[i] == ' ' {
			parts = append(parts, fen[start:i])
			start = i + 1
		}
	}
	rows := make([]string, 0, 8)
	rowStart := 0
	placement := parts[0]
	for i := 0; i <= len(placement); i++ {
		if i == len(placement) || placement[i] == '/' {
			rows = append(rows, placement[rowStart:i])
			rowStart = i + 1
		}
	}
	flipped := make([]byte, 0, len(placement))
	for i := len(rows) - 1; i >= 0; i-- {
		for j := 0; j < len(rows[i]); j++ {
			c := rows[i][j]
			switch {
			case c >= 'a' && c <= 'z':
				c = c - 'a' + 'A'
			case c >= 'A' && c <= 'Z':
				c = c - 'A' + 'a'
			}
			flipped = append(flipped, c)
		}
		if i > 0 {
			flipped = append(flipped, '/')
		}
	}
	turn := "w"
	if parts[1] == "w" {
		turn = "b"
	}
	return string(flipped) + " " + turn + " - - " + parts[4] + " " + parts[5]
}

func TestEvaluateColorSymmetry(t *testing.T) {
	fens := []string{
		"4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1",
		"r3k3/1pp5/8/8/8/8/5PP1/4K2R w - - 0 1",
		"2kr4/ppp2ppp/2n5/8/8/2N2B2/PPP2PPP/2KR4 w - - 0 1",
		"4k3/8/8/8/8/8/4P3/4K3 b - - 0 1",
	}
	for _, fen := range fens {
		pos := mustPosition(t, fen)
		mirror := mustPosition(t, mirrorFEN(fen))
		got, want := Evaluate(mirror, true), -Evaluate(pos, true)
		if got != want {
			t.Errorf("color symmetry broken for %q: mirror=%d, want %d", fen, got, want)
		}
	}
}

func TestEvaluateTerminalScores(t *testing.T) {
	whiteMated := mustPosition(t, "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	if got := Evaluate(whiteMated, true); got != -MateValue {
		t.Errorf("white-to-move checkmate: got %d, want %d", got, -MateValue)
	}

	blackMated := mustPosition(t, "R5k1/5ppp/8/8/8/8/5PPP/6K1 b - - 0 1")
	if got := Evaluate(blackMated, true); got != MateValue {
		t.Errorf("black-to-move checkmate: got %d, want %d", got, MateValue)
	}

	stalemate := mustPosition(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if got := Evaluate(stalemate, true); got != 0 {
		t.Errorf("stalemate: got %d, want 0", got)
	}

	bareKings := mustPosition(t, "8/8/8/4k3/8/8/8/4K3 w - - 0 1")
	if got := Evaluate(bareKings, true); got != 0 {
		t.Errorf("insufficient material: got %d, want 0", got)
	}
}

func TestEvaluateMaterialAdvantage(t *testing.T) {
	// White is up a clean rook.
	pos := mustPosition(t, "4k3/pppp4/8/8/8/8/PPPP4/R3K3 w - - 0 1")
	score := Evaluate(pos, true)
	if score < 300 {
		t.Errorf("rook-up position scored only %d", score)
	}
}

func TestEvaluatePassedPawn(t *testing.T) {
	// Identical except for White's pawn being passed in the first FEN.
	passed := mustPosition(t, "4k3/8/8/3P4/8/8/8/4K3 w - - 0 1")
	blocked := mustPosition(t, "4k3/3p4/8/3P4/8/8/8/4K3 w - - 0 1")
	if Evaluate(passed, false) <= Evaluate(blocked, false)+50 {
		t.Errorf("passed pawn worth too little: passed=%d blocked=%d",
			Evaluate(passed, false), Evaluate(blocked, false))
	}
}

func TestRookTerms(t *testing.T) {
	// Lone white rook on a fully open a-file.
	e := gather(mustPosition(t, "4k3/1ppp4/8/8/8/8/1PPP4/R3K3 w - - 0 1"))
	if got := e.rookTerms(0); got != 25 {
		t.Errorf("open-file rook: got %d, want 25", got)
	}

	// Two white rooks doubled on the open a-file: open file twice + battery.
	e = gather(mustPosition(t, "4k3/1ppp4/8/8/R7/8/1PPP4/R3K3 w - - 0 1"))
	if got := e.rookTerms(0); got != 2*25+15 {
		t.Errorf("doubled rooks: got %d, want %d", got, 2*25+15)
	}
}

func TestKnightOutpost(t *testing.T) {
	// White knight on d5 protected by the c4 pawn, no black pawn can
	// challenge it.
	e := gather(mustPosition(t, "4k3/5p2/8/3N4/2P5/8/8/4K3 w - - 0 1"))
	if got := e.knightOutposts(); got != 20 {
		t.Errorf("outpost knight: got %d, want 20", got)
	}

	// A black e7 pawn can advance and kick the knight.
	e = gather(mustPosition(t, "4k3/4pp2/8/3N4/2P5/8/8/4K3 w - - 0 1"))
	if got := e.knightOutposts(); got != 0 {
		t.Errorf("challengeable knight: got %d, want 0", got)
	}
}

func TestConnectedPawnBonus(t *testing.T) {
	// Mirrored pawn walls so nothing is passed, doubled, isolated,
	// backward or chained: only the connected term contributes, and it
	// pays per neighboring pawn. a2 and c2 each touch one neighbor, b2
	// touches two.
	e := gather(mustPosition(t, "4k3/ppp5/8/8/8/8/PPP5/4K3 w - - 0 1"))
	if got := e.pawnSide(0, 0); got != 4*connectedBonus {
		t.Errorf("three-pawn wall: got %d, want %d", got, 4*connectedBonus)
	}

	e = gather(mustPosition(t, "4k3/pp6/8/8/8/8/PP6/4K3 w - - 0 1"))
	if got := e.pawnSide(0, 0); got != 2*connectedBonus {
		t.Errorf("two-pawn wall: got %d, want %d", got, 2*connectedBonus)
	}
}

func TestEndgameWeightBounds(t *testing.T) {
	full := gather(mustPosition(t, position.StartingFEN))
	if w := full.endgameWeight(); w != 0 {
		t.Errorf("full material endgame weight: got %f, want 0", w)
	}
	bare := gather(mustPosition(t, "8/8/8/4k3/8/8/8/4K3 w - - 0 1"))
	if w := bare.endgameWeight(); w != 1 {
		t.Errorf("bare kings endgame weight: got %f, want 1", w)
	}
}
