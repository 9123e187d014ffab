// Package position adapts the move-generation library to the reversible
// make/unmake contract the search core consumes.
package position

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"
)

// StartingFEN is the standard initial position.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Color of a side, FEN-style.
type Color byte

const (
	White Color = 'w'
	Black Color = 'b'
)

// Other returns the opposing color.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

// Piece type letters, lowercase as in FEN piece placement.
const (
	NoPieceType byte = 0
	Pawn        byte = 'p'
	Knight      byte = 'n'
	Bishop      byte = 'b'
	Rook        byte = 'r'
	Queen       byte = 'q'
	King        byte = 'k'
)

// Piece is an occupant of a board square. The zero value is an empty square.
type Piece struct {
	Type  byte
	Color Color
}

// Move is a verbose move record: enough to replay the move and to form the
// ordering keys the search heuristics use.
type Move struct {
	From      string
	To        string
	Piece     byte
	Color     Color
	Captured  byte // 0 when not a capture
	Promotion byte // 0 when not a promotion
	SAN       string

	lib *chess.Move
}

// Key returns the "from+to" key used by the killer table and TT best move.
func (m Move) Key() string { return m.From + m.To }

// HistoryKey returns the "piece+from+to" key used by the history and
// countermove tables.
func (m Move) HistoryKey() string { return string(m.Piece) + m.From + m.To }

// IsCapture reports whether the move captures a piece.
func (m Move) IsCapture() bool { return m.Captured != NoPieceType }

// IsPromotion reports whether the move promotes a pawn.
func (m Move) IsPromotion() bool { return m.Promotion != NoPieceType }

// IsQuiet reports whether the move is neither a capture nor a promotion.
func (m Move) IsQuiet() bool { return !m.IsCapture() && !m.IsPromotion() }

// Position wraps the move-generation library behind make/unmake semantics.
// The library's positions are immutable snapshots, so Make pushes a derived
// snapshot and Unmake pops it; the pairing is strictly LIFO.
type Position struct {
	stack []*chess.Position
	made  []Move
}

// New loads a position from a FEN string.
func New(fen string) (*Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("load fen %q: %w", fen, err)
	}
	game := chess.NewGame(opt)
	return &Position{stack: []*chess.Position{game.Position()}}, nil
}

// NewStarting returns the standard initial position.
func NewStarting() *Position {
	p, err := New(StartingFEN)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Position) cur() *chess.Position { return p.stack[len(p.stack)-1] }

// FEN returns the current position as a FEN string.
func (p *Position) FEN() string { return p.cur().String() }

// Turn returns the side to move.
func (p *Position) Turn() Color {
	if p.cur().Turn() == chess.White {
		return White
	}
	return Black
}

// LegalMoves returns every legal move, verbose, in the library's
// enumeration order. The order is deterministic for a given position.
func (p *Position) LegalMoves() []Move {
	pos := p.cur()
	libMoves := pos.ValidMoves()
	moves := make([]Move, 0, len(libMoves))
	for _, lm := range libMoves {
		moves = append(moves, verbose(pos, lm))
	}
	return moves
}

// MovesFrom returns the legal moves starting on the given square.
func (p *Position) MovesFrom(sq string) []Move {
	var moves []Move
	for _, m := range p.LegalMoves() {
		if m.From == sq {
			moves = append(moves, m)
		}
	}
	return moves
}

func verbose(pos *chess.Position, lm *chess.Move) Move {
	b := pos.Board()
	mover := b.Piece(lm.S1())
	mv := Move{
		From:  lm.S1().String(),
		To:    lm.S2().String(),
		Piece: pieceLetter(mover.Type()),
		Color: colorOf(mover.Color()),
		lib:   lm,
	}
	if lm.HasTag(chess.EnPassant) {
		mv.Captured = Pawn
	} else if lm.HasTag(chess.Capture) {
		if victim := b.Piece(lm.S2()); victim != chess.NoPiece {
			mv.Captured = pieceLetter(victim.Type())
		}
	}
	if lm.Promo() != chess.NoPieceType {
		mv.Promotion = pieceLetter(lm.Promo())
	}
	mv.SAN = chess.AlgebraicNotation{}.Encode(pos, lm)
	return mv
}

// Make plays a legal move. Moves obtained from LegalMoves of the current
// position replay directly; reconstructed moves are matched by from, to and
// promotion piece.
func (p *Position) Make(m Move) error {
	lm := m.lib
	if lm == nil {
		lm = p.findLib(m)
		if lm == nil {
			return fmt.Errorf("illegal move %s%s in %q", m.From, m.To, p.FEN())
		}
	}
	p.stack = append(p.stack, p.cur().Update(lm))
	p.made = append(p.made, m)
	return nil
}

// MakeSAN plays the legal move with the given SAN string.
func (p *Position) MakeSAN(san string) error {
	for _, m := range p.LegalMoves() {
		if m.SAN == san {
			return p.Make(m)
		}
	}
	return fmt.Errorf("no legal move %q in %q", san, p.FEN())
}

func (p *Position) findLib(m Move) *chess.Move {
	for _, lm := range p.cur().ValidMoves() {
		if lm.S1().String() == m.From && lm.S2().String() == m.To &&
			pieceLetter(lm.Promo()) == m.Promotion {
			return lm
		}
	}
	return nil
}

// Unmake undoes the most recent Make. The pairing is LIFO; an unbalanced
// call panics.
func (p *Position) Unmake() {
	if len(p.stack) < 2 {
		panic("position: unmake without matching make")
	}
	p.stack = p.stack[:len(p.stack)-1]
	p.made = p.made[:len(p.made)-1]
}

// History returns the moves made on this position since it was loaded.
func (p *Position) History() []Move {
	out := make([]Move, len(p.made))
	copy(out, p.made)
	return out
}

// Board returns the 8x8 grid with row 0 = rank 8 and column 0 = file a.
func (p *Position) Board() [8][8]Piece {
	var grid [8][8]Piece
	b := p.cur().Board()
	for sq := 0; sq < 64; sq++ {
		pc := b.Piece(chess.Square(sq))
		if pc == chess.NoPiece {
			continue
		}
		grid[7-sq/8][sq%8] = Piece{Type: pieceLetter(pc.Type()), Color: colorOf(pc.Color())}
	}
	return grid
}

// Get returns the piece on an algebraic square such as "e4". The zero Piece
// means the square is empty.
func (p *Position) Get(sq string) Piece {
	if len(sq) != 2 || sq[0] < 'a' || sq[0] > 'h' || sq[1] < '1' || sq[1] > '8' {
		return Piece{}
	}
	idx := int(sq[1]-'1')*8 + int(sq[0]-'a')
	pc := p.cur().Board().Piece(chess.Square(idx))
	if pc == chess.NoPiece {
		return Piece{}
	}
	return Piece{Type: pieceLetter(pc.Type()), Color: colorOf(pc.Color())}
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	grid := p.Board()
	us := p.Turn()
	kf, kr, ok := findKing(&grid, us)
	if !ok {
		return false
	}
	return attacked(&grid, kf, kr, us.Other())
}

// InCheckmate reports whether the side to move is checkmated.
func (p *Position) InCheckmate() bool { return p.cur().Status() == chess.Checkmate }

// InStalemate reports whether the side to move is stalemated.
func (p *Position) InStalemate() bool { return p.cur().Status() == chess.Stalemate }

// InThreefold reports whether the current position occurred at least three
// times on this position's make stack.
func (p *Position) InThreefold() bool {
	key := repetitionKey(p.FEN())
	count := 0
	for _, pos := range p.stack {
		if repetitionKey(pos.String()) == key {
			count++
		}
	}
	return count >= 3
}

// repetitionKey keeps the FEN fields that matter for repetition: placement,
// side to move, castling rights and en-passant square.
func repetitionKey(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return fen
	}
	return strings.Join(fields[:4], " ")
}

// InsufficientMaterial reports whether neither side can possibly mate:
// bare kings, a single minor piece, or same-colored bishops only.
func (p *Position) InsufficientMaterial() bool {
	grid := p.Board()
	var minors int
	var bishopSquareParity = -1
	var bishopsOnly = true
	var nonKing int
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			pc := grid[row][col]
			switch pc.Type {
			case NoPieceType, King:
			case Pawn, Rook, Queen:
				return false
			case Knight:
				nonKing++
				minors++
				bishopsOnly = false
			case Bishop:
				nonKing++
				minors++
				parity := (row + col) % 2
				if bishopSquareParity == -1 {
					bishopSquareParity = parity
				} else if bishopSquareParity != parity {
					bishopsOnly = false
				}
			}
		}
	}
	if nonKing == 0 || nonKing == 1 {
		return true
	}
	return bishopsOnly
}

// HalfmoveClock returns the FEN halfmove clock.
func (p *Position) HalfmoveClock() int {
	fields := strings.Fields(p.FEN())
	if len(fields) < 5 {
		return 0
	}
	n, err := strconv.Atoi(fields[4])
	if err != nil {
		return 0
	}
	return n
}

// InDraw reports stalemate, insufficient material, threefold repetition or
// the 50-move rule.
func (p *Position) InDraw() bool {
	return p.InStalemate() || p.InsufficientMaterial() || p.InThreefold() ||
		p.HalfmoveClock() >= 100
}

// GameOver reports whether the position is terminal.
func (p *Position) GameOver() bool { return p.InCheckmate() || p.InDraw() }

// NullMove synthesizes the position with the side to move flipped, the
// en-passant square cleared and the halfmove clock bumped. The synthesis can
// fail (the flipped side may be "in check on its own turn"); callers skip
// their null-move branch on error.
func (p *Position) NullMove() (*Position, error) {
	fields := strings.Fields(p.FEN())
	if len(fields) != 6 {
		return nil, fmt.Errorf("malformed fen %q", p.FEN())
	}
	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}
	fields[3] = "-"
	if n, err := strconv.Atoi(fields[4]); err == nil {
		fields[4] = strconv.Itoa(n + 1)
	}
	return New(strings.Join(fields, " "))
}

func pieceLetter(t chess.PieceType) byte {
	switch t {
	case chess.Pawn:
		return Pawn
	case chess.Knight:
		return Knight
	case chess.Bishop:
		return Bishop
	case chess.Rook:
		return Rook
	case chess.Queen:
		return Queen
	case chess.King:
		return King
	}
	return NoPieceType
}

func colorOf(c chess.Color) Color {
	if c == chess.White {
		return White
	}
	return Black
}
