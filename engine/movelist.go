package engine

import "github.com/dylhunn/dragontoothmg"

// MaxMoves bounds the move list; no legal chess position exceeds 218 moves.
const MaxMoves = 256

// MoveList is a bounded move sequence with a parallel score channel used by
// move ordering. Scores only mean anything between scoring and consumption
// inside one node; they are overwritten by the next Load.
type MoveList struct {
	moves  [MaxMoves]dragontoothmg.Move
	scores [MaxMoves]int32
	count  int
}

// Load copies the generated moves in and resets the score channel.
func (ml *MoveList) Load(moves []dragontoothmg.Move) {
	n := len(moves)
	if n > MaxMoves {
		n = MaxMoves
	}
	copy(ml.moves[:n], moves[:n])
	for i := 0; i < n; i++ {
		ml.scores[i] = 0
	}
	ml.count = n
}

func (ml *MoveList) Count() int {
	return ml.count
}

func (ml *MoveList) MoveAt(i int) dragontoothmg.Move {
	return ml.moves[i]
}

func (ml *MoveList) ScoreAt(i int) int32 {
	return ml.scores[i]
}

func (ml *MoveList) SetScore(i int, score int32) {
	ml.scores[i] = score
}

// PickBest scans the unconsumed tail for the highest scored move, moves it
// to index i (the moves it passes shift one place back) and returns it.
// Calling it for i = 0..Count()-1 consumes the list in score order without
// a full sort; ties keep generation order.
func (ml *MoveList) PickBest(i int) dragontoothmg.Move {
	best := i
	bestScore := ml.scores[i]
	for j := i + 1; j < ml.count; j++ {
		if ml.scores[j] > bestScore {
			best = j
			bestScore = ml.scores[j]
		}
	}
	if best != i {
		m, s := ml.moves[best], ml.scores[best]
		copy(ml.moves[i+1:best+1], ml.moves[i:best])
		copy(ml.scores[i+1:best+1], ml.scores[i:best])
		ml.moves[i], ml.scores[i] = m, s
	}
	return ml.moves[i]
}
