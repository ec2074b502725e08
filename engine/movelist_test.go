package engine

import (
	"testing"

	"github.com/dylhunn/dragontoothmg"

	"sharp-rustic/board"
)

func TestPickBestConsumesInScoreOrder(t *testing.T) {
	moves := []dragontoothmg.Move{1, 2, 3, 4, 5}
	var ml MoveList
	ml.Load(moves)
	scores := []int32{10, 50, 30, 50, 20}
	for i, s := range scores {
		ml.SetScore(i, s)
	}

	var picked []dragontoothmg.Move
	for i := 0; i < ml.Count(); i++ {
		picked = append(picked, ml.PickBest(i))
	}

	// 50-ties resolve in generation order: move 2 before move 4.
	want := []dragontoothmg.Move{2, 4, 3, 5, 1}
	for i := range want {
		if picked[i] != want[i] {
			t.Fatalf("pick %d: got %d want %d (order %v)", i, picked[i], want[i], picked)
		}
	}
}

func TestLoadResetsScores(t *testing.T) {
	var ml MoveList
	ml.Load([]dragontoothmg.Move{1, 2})
	ml.SetScore(0, 99)
	ml.SetScore(1, 77)
	ml.Load([]dragontoothmg.Move{3, 4})
	if ml.ScoreAt(0) != 0 || ml.ScoreAt(1) != 0 {
		t.Fatal("Load must reset the score channel")
	}
	if ml.Count() != 2 || ml.MoveAt(0) != 3 {
		t.Fatal("Load did not copy the new moves")
	}
}

func TestOrderingPriorities(t *testing.T) {
	// White to move with a pawn able to capture a queen; every other move
	// is quiet.
	p, err := board.FromFEN("6k1/8/8/3q4/4P3/8/1Q6/6K1 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	moves := p.LegalMoves()

	var ttMove, pawnTakesQueen dragontoothmg.Move
	for _, m := range moves {
		if m.String() == "e4d5" {
			pawnTakesQueen = m
		}
		if m.String() == "g1h1" {
			ttMove = m
		}
	}
	if pawnTakesQueen == 0 || ttMove == 0 {
		t.Fatal("expected e4d5 and g1h1 to be legal")
	}

	var ml MoveList
	ml.Load(moves)
	scoreMoves(&ml, p.Board(), ttMove, 0, 0)

	// The TT move must come out first even though a queen capture exists.
	if got := ml.PickBest(0); got != ttMove {
		t.Fatalf("first pick: got %s want tt move %s", got.String(), ttMove.String())
	}
	// Then the most valuable victim with the least valuable attacker.
	if got := ml.PickBest(1); got != pawnTakesQueen {
		t.Fatalf("second pick: got %s want %s", got.String(), pawnTakesQueen.String())
	}
}

func TestKillerOrderingBelowCaptures(t *testing.T) {
	p, err := board.FromFEN("6k1/8/8/3q4/4P3/8/1Q6/6K1 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	moves := p.LegalMoves()

	var killer dragontoothmg.Move
	for _, m := range moves {
		if m.String() == "g1f1" {
			killer = m
		}
	}
	if killer == 0 {
		t.Fatal("expected g1f1 to be legal")
	}

	var ml MoveList
	ml.Load(moves)
	scoreMoves(&ml, p.Board(), 0, killer, 0)

	first := ml.PickBest(0)
	if first == killer {
		t.Fatal("killer must not outrank captures")
	}
	var sawKillerBeforeQuiets bool
	for i := 1; i < ml.Count(); i++ {
		m := ml.PickBest(i)
		if m == killer {
			sawKillerBeforeQuiets = true
			break
		}
		if !p.IsCapture(m) && m.Promote() == 0 {
			break
		}
	}
	if !sawKillerBeforeQuiets {
		t.Fatal("killer should be picked before the quiet remainder")
	}
}

func TestKillerTableShiftsAndDeduplicates(t *testing.T) {
	var k killerTable
	k.insert(11, 3)
	k.insert(11, 3) // duplicate must not shift
	first, second := k.at(3)
	if first != 11 || second != 0 {
		t.Fatalf("got killers (%d,%d) want (11,0)", first, second)
	}
	k.insert(22, 3)
	first, second = k.at(3)
	if first != 22 || second != 11 {
		t.Fatalf("got killers (%d,%d) want (22,11)", first, second)
	}
	k.clear()
	first, second = k.at(3)
	if first != 0 || second != 0 {
		t.Fatal("clear must empty the table")
	}
}
