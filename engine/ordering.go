package engine

import "github.com/dylhunn/dragontoothmg"

// Ordering score bands. The TT move outranks everything, captures outrank
// killers, killers outrank the quiet remainder at score 0. Ties within a
// band fall back to generation order via PickBest.
const (
	scoreTTMove  int32 = 1 << 30
	scoreCapture int32 = 1 << 20
	scoreKiller1 int32 = 900_000
	scoreKiller2 int32 = 899_999
)

// pieceValues indexed by dragontoothmg piece type (0 = none, then
// P, N, B, R, Q, K). The king value keeps MVV-LVA sane for king attackers.
var pieceValues = [7]int32{0, 100, 320, 330, 500, 900, 20000}

// pieceTypeAt finds the piece type occupying a square in one side's
// bitboards.
func pieceTypeAt(sq uint8, bb *dragontoothmg.Bitboards) (dragontoothmg.Piece, bool) {
	mask := uint64(1) << sq
	switch {
	case bb.Pawns&mask != 0:
		return dragontoothmg.Pawn, true
	case bb.Knights&mask != 0:
		return dragontoothmg.Knight, true
	case bb.Bishops&mask != 0:
		return dragontoothmg.Bishop, true
	case bb.Rooks&mask != 0:
		return dragontoothmg.Rook, true
	case bb.Queens&mask != 0:
		return dragontoothmg.Queen, true
	case bb.Kings&mask != 0:
		return dragontoothmg.King, true
	}
	return 0, false
}

// captureScore ranks a capture or promotion by MVV-LVA:
// 10*victim - aggressor. En passant captures a pawn. Promotions count a
// queen gained on top of any victim, so promotion captures rank like
// queen-promotion captures no matter the promotion piece.
func captureScore(m dragontoothmg.Move, b *dragontoothmg.Board) int32 {
	var own, opp *dragontoothmg.Bitboards
	if b.Wtomove {
		own, opp = &b.White, &b.Black
	} else {
		own, opp = &b.Black, &b.White
	}

	var victim int32
	if piece, ok := pieceTypeAt(m.To(), opp); ok {
		victim = pieceValues[piece]
	} else if dragontoothmg.IsCapture(m, b) {
		victim = pieceValues[dragontoothmg.Pawn]
	}
	if m.Promote() != 0 {
		victim += pieceValues[dragontoothmg.Queen]
	}

	var aggressor int32
	if piece, ok := pieceTypeAt(m.From(), own); ok {
		aggressor = pieceValues[piece]
	}

	return scoreCapture + 10*victim - aggressor
}

// scoreMoves fills the score channel of ml for one node: TT move first,
// captures by MVV-LVA, killers for this ply, quiets at zero. The move list
// itself is not reordered here; PickBest does that at consumption time.
func scoreMoves(ml *MoveList, b *dragontoothmg.Board, ttMove dragontoothmg.Move, killer1, killer2 dragontoothmg.Move) {
	for i := 0; i < ml.Count(); i++ {
		m := ml.MoveAt(i)
		switch {
		case ttMove != 0 && m == ttMove:
			ml.SetScore(i, scoreTTMove)
		case dragontoothmg.IsCapture(m, b) || m.Promote() != 0:
			ml.SetScore(i, captureScore(m, b))
		case m == killer1:
			ml.SetScore(i, scoreKiller1)
		case m == killer2:
			ml.SetScore(i, scoreKiller2)
		default:
			ml.SetScore(i, 0)
		}
	}
}

// scoreCaptures is the quiescence variant: MVV-LVA only.
func scoreCaptures(ml *MoveList, b *dragontoothmg.Board) {
	for i := 0; i < ml.Count(); i++ {
		ml.SetScore(i, captureScore(ml.MoveAt(i), b))
	}
}
