package engine

import (
	"time"

	"github.com/dylhunn/dragontoothmg"
)

// searchRoot runs one full-width iteration from the root. Root moves are
// seeded with the TT move and the previous iteration's best before the
// general ordering; every explored root move is recorded into analyses
// with its reply line so an aborted iteration still leaves a usable head.
func (t *searchThread) searchRoot(depth int, rootMoves []dragontoothmg.Move,
	prevBest dragontoothmg.Move, analyses *[]RootMove, pv *pvLine) (int, bool) {

	alpha, beta := -Inf, Inf
	key := t.pos.Zobrist()

	// The root follows the same node algorithm as any interior node, so a
	// root in check is extended by one ply too.
	if t.pos.InCheck() {
		depth++
	}

	var ttMove dragontoothmg.Move
	if entry, ok := t.probeTT(key); ok {
		ttMove = entry.Move
	}

	ml := &t.lists[0]
	ml.Load(rootMoves)
	killer1, killer2 := t.killers.at(0)
	scoreMoves(ml, t.pos.Board(), ttMove, killer1, killer2)
	if prevBest != 0 && prevBest != ttMove {
		for i := 0; i < ml.Count(); i++ {
			if ml.MoveAt(i) == prevBest {
				ml.SetScore(i, scoreTTMove-1)
				break
			}
		}
	}

	bestScore := -Inf
	var childPV pvLine

	for i := 0; i < ml.Count(); i++ {
		m := ml.PickBest(i)
		t.maybeSendCurrMove(m, i+1)

		t.pos.Make(m)
		childPV.clear()
		var score int
		if i == 0 {
			score = -t.alphaBeta(depth-1, -beta, -alpha, 1, &childPV, true)
		} else {
			score = -t.alphaBeta(depth-1, -alpha-1, -alpha, 1, nil, false)
			if score > alpha {
				childPV.clear()
				score = -t.alphaBeta(depth-1, -beta, -alpha, 1, &childPV, true)
			}
		}
		t.pos.Unmake()

		if t.stop.Stopped() {
			return bestScore, true
		}

		reply := append([]dragontoothmg.Move(nil), childPV.moves...)
		*analyses = append(*analyses, RootMove{Move: m, Score: score, ReplyLine: reply})

		if score > bestScore {
			bestScore = score
			pv.set(m, &childPV)
		}
		if score > alpha {
			alpha = score
		}
	}

	if len(pv.moves) > 0 {
		t.storeTT(key, depth, pv.moves[0], bestScore, BoundExact, 0)
	}
	return bestScore, false
}

// iterateHelper is the loop run by helper threads. They deepen over the
// same root with the move order rotated by thread id (the ordering
// perturbation that diversifies shared TT content) and never publish
// results of their own.
func (t *searchThread) iterateHelper(rootMoves []dragontoothmg.Move, maxDepth int) {
	if len(rootMoves) == 0 {
		return
	}
	rotated := make([]dragontoothmg.Move, len(rootMoves))
	offset := t.id % len(rootMoves)
	copy(rotated, rootMoves[offset:])
	copy(rotated[len(rootMoves)-offset:], rootMoves[:offset])

	rootExtension := 0
	if t.pos.InCheck() {
		rootExtension = 1
	}

	for depth := 1; depth <= maxDepth && !t.stop.Stopped(); depth++ {
		alpha := -Inf
		for _, m := range rotated {
			t.pos.Make(m)
			score := -t.alphaBeta(depth+rootExtension-1, -Inf, -alpha, 1, nil, false)
			t.pos.Unmake()
			if t.stop.Stopped() {
				break
			}
			if score > alpha {
				alpha = score
			}
		}
		t.batch.flush()
	}
	t.batch.flush()
	t.publishNodes()
}

// driverLimits is the deepening envelope the driver derived from the
// request: how deep, how long, and whether the soft budget gates new
// iterations.
type driverLimits struct {
	maxDepth    int
	softMs      int64
	softLimited bool
	budget      Budget
	clockMode   bool
}

// iterate runs iterative deepening on the driver thread and applies the
// safe-fallback rule, so that after iteration 1 there is always a legal
// best move to report.
func (t *searchThread) iterate(rootMoves []dragontoothmg.Move, limits driverLimits,
	start time.Time) SearchResult {

	bestMove := rootMoves[0]
	bestScore := 0
	lastDepth := 0
	softMs := limits.softMs
	rootInCheck := t.pos.InCheck()

	var prevBest dragontoothmg.Move
	var pv pvLine
	analyses := make([]RootMove, 0, len(rootMoves))

	for depth := 1; depth <= limits.maxDepth; depth++ {
		if depth > 1 && limits.softLimited && elapsedMs(start) >= softMs {
			break
		}

		t.selDepth = 0
		analyses = analyses[:0]
		pv.clear()
		score, aborted := t.searchRoot(depth, rootMoves, prevBest, &analyses, &pv)

		if !aborted {
			bestMove = pv.moves[0]
			bestScore = score
			lastDepth = depth
			prevBest = bestMove
			if t.callbacks.Progress != nil {
				t.callbacks.Progress(t.report(depth, score, pv.moves, start, limits.budget.Emergency))
			}
		} else if lastDepth == 0 && len(analyses) > 0 {
			// No completed iteration yet: fall back to the head of the
			// partial analysis, else bestMove stays the first legal move.
			bestMove = analyses[0].Move
			bestScore = analyses[0].Score
		}

		t.batch.flush()

		if t.stop.Stopped() || depth == limits.maxDepth {
			break
		}
		if abs(bestScore) >= Checkmate-depth {
			break
		}

		if limits.clockMode && !aborted && len(analyses) >= 2 {
			quality := classifyQuality(bestScore-secondBestScore(analyses, bestMove), rootInCheck)
			remaining := softMs - elapsedMs(start)
			if remaining > 0 {
				softMs = elapsedMs(start) + AdjustSoft(remaining, quality)
			}
		}
	}

	t.batch.flush()
	t.publishNodes()

	return SearchResult{
		BestMove: bestMove,
		Score:    scoreFromInternal(bestScore),
		Depth:    lastDepth,
		Nodes:    t.sharedNodes.Load(),
		TimeMs:   elapsedMs(start),
	}
}

func (t *searchThread) report(depth, score int, pv []dragontoothmg.Move,
	start time.Time, emergency bool) SearchReport {

	t.publishNodes()
	nodes := t.sharedNodes.Load()
	timeMs := elapsedMs(start)
	nps := nodes * 1000 / (timeMs + 1)
	return SearchReport{
		Depth:     depth,
		SelDepth:  t.selDepth,
		Nodes:     nodes,
		NPS:       nps,
		TimeMs:    timeMs,
		Score:     scoreFromInternal(score),
		PV:        append([]dragontoothmg.Move(nil), pv...),
		HashFull:  t.tt.Hashfull(),
		Emergency: emergency,
	}
}

// secondBestScore finds the strongest competitor to the committed best
// move among the root analyses.
func secondBestScore(analyses []RootMove, best dragontoothmg.Move) int {
	second := -Inf
	for i := range analyses {
		if analyses[i].Move != best && analyses[i].Score > second {
			second = analyses[i].Score
		}
	}
	return second
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
