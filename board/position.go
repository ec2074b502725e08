package board

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/dylhunn/dragontoothmg"
)

// KiwipeteFEN is the well known perft/debug position.
const KiwipeteFEN = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

const fiftyMoveLimit = 100

// state is one entry of the repetition history: enough to detect threefold
// repetition and the fifty move rule without replaying the game.
type state struct {
	hash   uint64
	rule50 uint8
}

// Position wraps the dragontoothmg board with the game history the search
// needs: an undo stack for make/unmake and a hash trail for repetition
// detection. A Position is owned by exactly one searcher thread.
type Position struct {
	brd     dragontoothmg.Board
	history []state
	undo    []func()
}

// FromFEN sets up a position from a FEN string. dragontoothmg panics on
// malformed input, so validate enough up front to return a regular error.
func FromFEN(fen string) (p *Position, err error) {
	if err = validateFEN(fen); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			p = nil
			err = fmt.Errorf("invalid fen %q: %v", fen, r)
		}
	}()
	p = &Position{brd: dragontoothmg.ParseFen(fen)}
	p.history = append(p.history, p.currentState())
	return p, nil
}

// Initial returns the standard starting position.
func Initial() *Position {
	p, err := FromFEN(dragontoothmg.Startpos)
	if err != nil {
		panic(err)
	}
	return p
}

// Copy returns an independent position for a helper thread. The undo stack
// is not carried over; a copy starts at its own search root.
func (p *Position) Copy() *Position {
	c := &Position{brd: p.brd}
	c.history = append(c.history, p.history...)
	return c
}

func (p *Position) currentState() state {
	return state{hash: p.brd.Hash(), rule50: uint8(p.brd.Halfmoveclock)}
}

// Board exposes the underlying bitboards for move ordering and evaluation.
func (p *Position) Board() *dragontoothmg.Board {
	return &p.brd
}

func (p *Position) WhiteToMove() bool {
	return p.brd.Wtomove
}

func (p *Position) InCheck() bool {
	return p.brd.OurKingInCheck()
}

// Zobrist returns the 64-bit position key maintained by the move generator.
func (p *Position) Zobrist() uint64 {
	return p.brd.Hash()
}

func (p *Position) HalfmoveClock() uint8 {
	return uint8(p.brd.Halfmoveclock)
}

// GamePly returns the number of half moves played since the start of the
// game, derived from the FEN move counters.
func (p *Position) GamePly() int {
	ply := (int(p.brd.Fullmoveno) - 1) * 2
	if !p.brd.Wtomove {
		ply++
	}
	if ply < 0 {
		ply = 0
	}
	return ply
}

// Make plays a move and records it on the undo and history stacks. Only
// moves coming out of LegalMoves/CaptureMoves may be passed in.
func (p *Position) Make(m dragontoothmg.Move) {
	unapply := p.brd.Apply(m)
	p.undo = append(p.undo, unapply)
	p.history = append(p.history, p.currentState())
}

// Unmake takes back the most recent move made through Make.
func (p *Position) Unmake() {
	n := len(p.undo)
	if n == 0 {
		return
	}
	p.undo[n-1]()
	p.undo = p.undo[:n-1]
	p.history = p.history[:len(p.history)-1]
}

// RootIndex marks the current history position as the search root. Entries
// at or beyond this index belong to the search path.
func (p *Position) RootIndex() int {
	return len(p.history) - 1
}

// LegalMoves generates all strictly legal moves.
func (p *Position) LegalMoves() []dragontoothmg.Move {
	return p.brd.GenerateLegalMoves()
}

// CaptureMoves generates captures and promotions only, for quiescence.
func (p *Position) CaptureMoves() []dragontoothmg.Move {
	all := p.brd.GenerateLegalMoves()
	captures := all[:0]
	for _, m := range all {
		if dragontoothmg.IsCapture(m, &p.brd) || m.Promote() != 0 {
			captures = append(captures, m)
		}
	}
	return captures
}

// IsCapture reports whether m captures a piece, en passant included.
func (p *Position) IsCapture(m dragontoothmg.Move) bool {
	return dragontoothmg.IsCapture(m, &p.brd)
}

// IsDraw reports a draw by the fifty move rule or by repetition. A single
// repetition inside the current search path (at or after rootIndex) already
// counts as a draw; positions from the game history must occur twice.
func (p *Position) IsDraw(rootIndex int) bool {
	curr := p.history[len(p.history)-1]
	if curr.rule50 >= fiftyMoveLimit {
		return true
	}
	count, firstIdx := p.repetitions(curr)
	if count >= 2 {
		return true
	}
	return count >= 1 && firstIdx >= rootIndex
}

func (p *Position) repetitions(curr state) (count, firstIdx int) {
	firstIdx = -1
	start := len(p.history) - 1 - int(curr.rule50)
	if start < 0 {
		start = 0
	}
	for i := len(p.history) - 2; i >= start; i-- {
		if p.history[i].hash == curr.hash {
			count++
			if firstIdx == -1 || i < firstIdx {
				firstIdx = i
			}
		}
	}
	return count, firstIdx
}

// MaterialPhase grades the remaining material from 0 (bare kings) to 24
// (all minor and major pieces still on the board).
func (p *Position) MaterialPhase() int {
	w, b := &p.brd.White, &p.brd.Black
	phase := bits.OnesCount64(w.Knights|b.Knights) +
		bits.OnesCount64(w.Bishops|b.Bishops) +
		2*bits.OnesCount64(w.Rooks|b.Rooks) +
		4*bits.OnesCount64(w.Queens|b.Queens)
	if phase > 24 {
		phase = 24
	}
	return phase
}

// PieceCount counts all men on the board, kings and pawns included.
func (p *Position) PieceCount() int {
	return bits.OnesCount64(p.brd.White.All | p.brd.Black.All)
}

func (p *Position) FEN() string {
	return p.brd.ToFen()
}

// ApplyUCIMove resolves a long algebraic move string against the legal
// moves of the position and plays it. Used by the protocol adapters.
func (p *Position) ApplyUCIMove(moveStr string) error {
	for _, m := range p.brd.GenerateLegalMoves() {
		if m.String() == moveStr {
			p.Make(m)
			return nil
		}
	}
	return fmt.Errorf("move %s is not legal in %s", moveStr, p.brd.ToFen())
}

// validateFEN performs the structural checks dragontoothmg omits so that a
// bad position surfaces as a configuration error instead of a panic.
func validateFEN(fen string) error {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return fmt.Errorf("invalid fen %q: expected at least 4 fields", fen)
	}
	ranks := 1
	fileCount := 0
	kings := 0
	for _, c := range fields[0] {
		switch {
		case c == '/':
			if fileCount != 8 {
				return fmt.Errorf("invalid fen %q: rank with %d files", fen, fileCount)
			}
			ranks++
			fileCount = 0
		case c >= '1' && c <= '8':
			fileCount += int(c - '0')
		case c == 'k' || c == 'K':
			kings++
			fileCount++
		case c == 'p' || c == 'n' || c == 'b' || c == 'r' || c == 'q' ||
			c == 'P' || c == 'N' || c == 'B' || c == 'R' || c == 'Q':
			fileCount++
		default:
			return fmt.Errorf("invalid fen %q: unexpected character %q", fen, c)
		}
	}
	if ranks != 8 || fileCount != 8 {
		return fmt.Errorf("invalid fen %q: board is not 8x8", fen)
	}
	if kings != 2 {
		return fmt.Errorf("invalid fen %q: expected 2 kings, found %d", fen, kings)
	}
	if fields[1] != "w" && fields[1] != "b" {
		return fmt.Errorf("invalid fen %q: bad side to move %q", fen, fields[1])
	}
	return nil
}
