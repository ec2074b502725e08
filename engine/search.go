package engine

import (
	"sync/atomic"
	"time"

	"github.com/dylhunn/dragontoothmg"

	"sharp-rustic/board"
)

// Reporting throttles, in milliseconds of elapsed search time.
const (
	minTimeCurrMove = 1000
	minTimeStats    = 2000
)

// pvLine collects the principal variation while unwinding PV nodes.
type pvLine struct {
	moves []dragontoothmg.Move
}

func (pv *pvLine) clear() {
	pv.moves = pv.moves[:0]
}

// set makes pv = m followed by the child's line.
func (pv *pvLine) set(m dragontoothmg.Move, child *pvLine) {
	pv.moves = append(pv.moves[:0], m)
	if child != nil {
		pv.moves = append(pv.moves, child.moves...)
	}
}

// searchThread is the per-thread search state: its own position, killers,
// local TT cache, write batch and node counter. Only the driver thread
// (id 0) publishes results.
type searchThread struct {
	id        int
	pos       *board.Position
	rootIndex int
	evaluate  func(*board.Position) int

	tt      *TransTable
	cache   localTTCache
	batch   ttWriteBatch
	killers killerTable

	stop        *StopController
	sharedNodes *atomic.Int64
	nodeLimit   int64
	nodes       int64
	flushed     int64
	selDepth    int

	callbacks    SearchCallbacks
	startTime    time.Time
	lastCurrMove int64
	lastStats    int64

	lists [MaxPly + 1]MoveList
}

func newSearchThread(id int, pos *board.Position, tt *TransTable, stop *StopController,
	sharedNodes *atomic.Int64, nodeLimit int64, evaluate func(*board.Position) int) *searchThread {
	return &searchThread{
		id:          id,
		pos:         pos,
		rootIndex:   pos.RootIndex(),
		evaluate:    evaluate,
		tt:          tt,
		batch:       newWriteBatch(tt),
		stop:        stop,
		sharedNodes: sharedNodes,
		nodeLimit:   nodeLimit,
	}
}

// checkNode counts the node and polls the termination conditions. The
// atomic stop flag is read every node; the clock and the node limit every
// checkTermination nodes.
func (t *searchThread) checkNode() bool {
	t.nodes++
	if t.nodes&checkTermination == 0 {
		t.publishNodes()
		if t.nodeLimit > 0 && t.sharedNodes.Load() >= t.nodeLimit {
			t.stop.ForceStop()
		}
		if t.stop.Poll() {
			return true
		}
		t.maybeSendStats()
	}
	return t.stop.Stopped()
}

// publishNodes folds the thread-local node count into the shared total.
func (t *searchThread) publishNodes() {
	if delta := t.nodes - t.flushed; delta > 0 {
		t.sharedNodes.Add(delta)
		t.flushed = t.nodes
	}
}

// maybeSendStats emits a throttled nodes/nps line while a long iteration
// is still running.
func (t *searchThread) maybeSendStats() {
	if t.callbacks.Stats == nil {
		return
	}
	elapsed := elapsedMs(t.startTime)
	if elapsed < t.lastStats+minTimeStats {
		return
	}
	t.lastStats = elapsed
	nodes := t.sharedNodes.Load()
	t.callbacks.Stats(nodes, nodes*1000/(elapsed+1), t.tt.Hashfull())
}

// maybeSendCurrMove emits a throttled "currently searching" note for the
// root move at the given 1-based number.
func (t *searchThread) maybeSendCurrMove(m dragontoothmg.Move, number int) {
	if t.callbacks.CurrMove == nil {
		return
	}
	elapsed := elapsedMs(t.startTime)
	if elapsed < minTimeCurrMove || elapsed < t.lastCurrMove+minTimeCurrMove {
		return
	}
	t.lastCurrMove = elapsed
	t.callbacks.CurrMove(m, number)
}

func (t *searchThread) staticEval() int {
	v := t.evaluate(t.pos)
	if !t.pos.WhiteToMove() {
		v = -v
	}
	return v
}

// probeTT goes through the local cache first and only touches the shared
// table (under its read lock) on a local miss.
func (t *searchThread) probeTT(key uint64) (TTEntry, bool) {
	if e, ok := t.cache.probe(key); ok {
		return e, true
	}
	if e, ok := t.tt.Probe(key); ok {
		t.cache.insert(key, e)
		return e, true
	}
	return TTEntry{}, false
}

// storeTT formats the node result and pushes it into the local cache and
// the write batch; the shared write lock is only taken when the batch
// drains.
func (t *searchThread) storeTT(key uint64, depth int, mv dragontoothmg.Move, score int, bound Bound, ply int) {
	if depth > 127 {
		depth = 127
	}
	e := TTEntry{
		Move:  mv,
		Score: ScoreToTT(score, ply),
		Depth: int8(depth),
		Bound: bound,
	}
	t.cache.insert(key, e)
	t.batch.add(key, e)
}

// alphaBeta is the fail-soft PVS search. Scores are centipawns from the
// side to move; the return value may lie outside the original window.
// When the stop flag is up the node unwinds with alpha and stores nothing;
// every caller above discards scores from aborted subtrees.
func (t *searchThread) alphaBeta(depth, alpha, beta, ply int, pv *pvLine, isPV bool) int {
	if t.checkNode() {
		return alpha
	}
	if ply > t.selDepth {
		t.selDepth = ply
	}

	if ply > 0 && t.pos.IsDraw(t.rootIndex) {
		return Draw
	}

	inCheck := t.pos.InCheck()
	if inCheck {
		depth++
	}

	if depth <= 0 {
		return t.quiescence(alpha, beta, ply)
	}
	if ply >= MaxPly {
		return t.staticEval()
	}

	alphaOrig, betaOrig := alpha, beta
	key := t.pos.Zobrist()

	var ttMove dragontoothmg.Move
	if entry, ok := t.probeTT(key); ok {
		ttMove = entry.Move
		if int(entry.Depth) >= depth {
			score := ScoreFromTT(entry.Score, ply)
			switch entry.Bound {
			case BoundExact:
				return score
			case BoundLower:
				if score >= beta {
					return score
				}
			case BoundUpper:
				if score <= alpha {
					return score
				}
			}
		}
	}

	moves := t.pos.LegalMoves()
	if len(moves) == 0 {
		if inCheck {
			return -Checkmate + ply
		}
		return Draw
	}

	ml := &t.lists[ply]
	ml.Load(moves)
	killer1, killer2 := t.killers.at(ply)
	scoreMoves(ml, t.pos.Board(), ttMove, killer1, killer2)

	bestScore := -Inf
	var bestMove dragontoothmg.Move
	var childPV pvLine

	for i := 0; i < ml.Count(); i++ {
		m := ml.PickBest(i)
		quiet := !t.pos.IsCapture(m) && m.Promote() == 0

		t.pos.Make(m)
		childPV.clear()

		var score int
		if i == 0 || !isPV {
			score = -t.alphaBeta(depth-1, -beta, -alpha, ply+1, &childPV, isPV && i == 0)
		} else {
			score = -t.alphaBeta(depth-1, -alpha-1, -alpha, ply+1, nil, false)
			if score > alpha && score < beta {
				childPV.clear()
				score = -t.alphaBeta(depth-1, -beta, -alpha, ply+1, &childPV, true)
			}
		}
		t.pos.Unmake()

		if t.stop.Stopped() {
			return alpha
		}

		if score > bestScore {
			bestScore = score
			bestMove = m
			if isPV && pv != nil {
				pv.set(m, &childPV)
			}
		}
		if bestScore >= beta {
			if quiet {
				t.killers.insert(m, ply)
			}
			break
		}
		if bestScore > alpha {
			alpha = bestScore
		}
	}

	bound := BoundExact
	if bestScore >= betaOrig {
		bound = BoundLower
	} else if bestScore <= alphaOrig {
		bound = BoundUpper
	}
	t.storeTT(key, depth, bestMove, bestScore, bound, ply)

	return bestScore
}

// quiescence resolves captures and promotions past the horizon so the
// static evaluation is only trusted in quiet positions. It neither reads
// nor writes the transposition table.
func (t *searchThread) quiescence(alpha, beta, ply int) int {
	if t.checkNode() {
		return alpha
	}
	if ply > t.selDepth {
		t.selDepth = ply
	}
	if ply >= MaxPly {
		return t.staticEval()
	}

	standPat := t.staticEval()
	if standPat >= beta {
		return standPat
	}
	bestScore := standPat
	if standPat > alpha {
		alpha = standPat
	}

	ml := &t.lists[ply]
	ml.Load(t.pos.CaptureMoves())
	scoreCaptures(ml, t.pos.Board())

	for i := 0; i < ml.Count(); i++ {
		m := ml.PickBest(i)

		t.pos.Make(m)
		score := -t.quiescence(-beta, -alpha, ply+1)
		t.pos.Unmake()

		if t.stop.Stopped() {
			return alpha
		}

		if score > bestScore {
			bestScore = score
		}
		if bestScore >= beta {
			break
		}
		if bestScore > alpha {
			alpha = bestScore
		}
	}

	return bestScore
}
