// Package eval provides the static evaluation the search consumes: material
// plus piece-square tables, in centipawns from White's point of view.
package eval

import (
	"math/bits"

	"github.com/dylhunn/dragontoothmg"

	"sharp-rustic/board"
)

const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
)

// Piece-square tables, indexed from White's side (a1 = 0, h8 = 63). Black
// uses the vertically mirrored square.
var pawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, -20, -20, 10, 10, 5,
	5, -5, -10, 0, 0, -10, -5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, 5, 10, 25, 25, 10, 5, 5,
	10, 10, 20, 30, 30, 20, 10, 10,
	50, 50, 50, 50, 50, 50, 50, 50,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookPST = [64]int{
	0, 0, 0, 5, 5, 0, 0, 0,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	5, 10, 10, 10, 10, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-10, 5, 5, 5, 5, 5, 0, -10,
	0, 0, 5, 5, 5, 5, 0, -5,
	-5, 0, 5, 5, 5, 5, 0, -5,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var kingMiddlePST = [64]int{
	20, 30, 10, 0, 0, 10, 30, 20,
	20, 20, 0, 0, 0, 0, 20, 20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
}

var kingEndPST = [64]int{
	-50, -30, -30, -30, -30, -30, -30, -50,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-50, -40, -30, -20, -20, -30, -40, -50,
}

// Position evaluates the position in centipawns from White's perspective.
// The search negates the result for the side to move.
func Position(p *board.Position) int {
	b := p.Board()
	phase := p.MaterialPhase()

	score := side(&b.White, phase, false) - side(&b.Black, phase, true)
	return score
}

func side(bb *dragontoothmg.Bitboards, phase int, mirror bool) int {
	var score int
	score += sum(bb.Pawns, PawnValue, &pawnPST, mirror)
	score += sum(bb.Knights, KnightValue, &knightPST, mirror)
	score += sum(bb.Bishops, BishopValue, &bishopPST, mirror)
	score += sum(bb.Rooks, RookValue, &rookPST, mirror)
	score += sum(bb.Queens, QueenValue, &queenPST, mirror)

	// King table is blended by phase: the castled-king table dominates
	// with material on the board, the centralisation table in the endgame.
	for pieces := bb.Kings; pieces != 0; pieces &= pieces - 1 {
		sq := bits.TrailingZeros64(pieces)
		if mirror {
			sq ^= 56
		}
		score += (kingMiddlePST[sq]*phase + kingEndPST[sq]*(24-phase)) / 24
	}
	return score
}

func sum(pieces uint64, value int, pst *[64]int, mirror bool) int {
	var score int
	for ; pieces != 0; pieces &= pieces - 1 {
		sq := bits.TrailingZeros64(pieces)
		if mirror {
			sq ^= 56
		}
		score += value + pst[sq]
	}
	return score
}
