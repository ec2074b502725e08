package engine

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"sharp-rustic/board"
	"sharp-rustic/eval"
)

// ErrSearchInternal marks impossible search states: the engine aborts the
// search rather than risk reporting a null move.
var ErrSearchInternal = errors.New("search internal error")

// DefaultHashMB is the transposition table size when nothing else is
// configured.
const DefaultHashMB = 32

// Options is the engine configuration collected from CLI flags and UCI
// setoption commands.
type Options struct {
	HashMB         int
	Threads        int
	MoveOverheadMs int64
}

// Engine owns the shared transposition table, the stop controller and the
// time manager, and runs one search at a time.
type Engine struct {
	opts     Options
	tt       *TransTable
	tm       TimeManager
	stop     StopController
	evaluate func(*board.Position) int
}

// New validates the configuration and allocates the table. Configuration
// errors surface here, before any search can start.
func New(opts Options) (*Engine, error) {
	if opts.HashMB == 0 {
		opts.HashMB = DefaultHashMB
	}
	if opts.Threads == 0 {
		opts.Threads = 1
	}
	if opts.Threads < 1 || opts.Threads > 2*runtime.NumCPU() {
		return nil, fmt.Errorf("invalid thread count %d", opts.Threads)
	}
	if opts.MoveOverheadMs < 0 {
		return nil, fmt.Errorf("invalid move overhead %dms", opts.MoveOverheadMs)
	}
	tt, err := NewTransTable(opts.HashMB)
	if err != nil {
		return nil, err
	}
	return &Engine{
		opts:     opts,
		tt:       tt,
		evaluate: eval.Position,
	}, nil
}

// SetHash reallocates the transposition table.
func (e *Engine) SetHash(megabytes int) error {
	tt, err := NewTransTable(megabytes)
	if err != nil {
		return err
	}
	e.tt = tt
	e.opts.HashMB = megabytes
	return nil
}

func (e *Engine) SetThreads(n int) error {
	if n < 1 || n > 2*runtime.NumCPU() {
		return fmt.Errorf("invalid thread count %d", n)
	}
	e.opts.Threads = n
	return nil
}

func (e *Engine) SetMoveOverhead(ms int64) {
	if ms >= 0 {
		e.opts.MoveOverheadMs = ms
	}
}

func (e *Engine) Options() Options {
	return e.opts
}

// NewGame resets the table for a fresh, non-contiguous game.
func (e *Engine) NewGame() {
	e.tt.Clear()
}

// ClearHash is the setoption-triggered table wipe.
func (e *Engine) ClearHash() {
	e.tt.Clear()
}

// Stop cancels the running search; the driver returns its safe best move.
func (e *Engine) Stop() {
	e.stop.ForceStop()
}

// TimeStats exposes the time manager statistics for protocol logging.
func (e *Engine) TimeStats() TimeStats {
	return e.tm.Stats()
}

// Search runs one full search for the request and blocks until it
// completes or is stopped. The reported best move is always legal in the
// request position.
func (e *Engine) Search(req SearchRequest, cb SearchCallbacks) (SearchResult, error) {
	if req.Position == nil {
		return SearchResult{}, errors.New("search request without a position")
	}
	rootMoves := req.Position.LegalMoves()
	if len(rootMoves) == 0 {
		return SearchResult{}, fmt.Errorf("%w: no legal moves at the root", ErrSearchInternal)
	}

	overhead := req.MoveOverheadMs
	if overhead == 0 {
		overhead = e.opts.MoveOverheadMs
	}

	start := time.Now()
	limits := driverLimits{maxDepth: MaxPly - 1}
	if req.Depth > 0 && req.Depth < limits.maxDepth {
		limits.maxDepth = req.Depth
	}

	var deadline time.Time
	switch {
	case req.Clock != nil:
		pos := req.Position
		limits.budget = e.tm.Plan(req.Clock, pos.WhiteToMove(), pos.GamePly(), pos.PieceCount(), overhead)
		limits.softMs = limits.budget.SoftMs
		limits.softLimited = true
		limits.clockMode = true
		deadline = start.Add(time.Duration(limits.budget.HardMs) * time.Millisecond)
		if limits.budget.Emergency && limits.maxDepth > EmergencyMaxDepth {
			limits.maxDepth = EmergencyMaxDepth
		}
	case req.MoveTimeMs > 0:
		deadline = start.Add(time.Duration(req.MoveTimeMs) * time.Millisecond)
	}

	e.tt.NewSearch()
	e.stop.Arm(deadline)

	var sharedNodes atomic.Int64
	driver := newSearchThread(0, req.Position, e.tt, &e.stop, &sharedNodes, req.Nodes, e.evaluate)
	driver.callbacks = cb
	driver.startTime = start

	var g errgroup.Group
	for i := 1; i < e.opts.Threads; i++ {
		helper := newSearchThread(i, req.Position.Copy(), e.tt, &e.stop, &sharedNodes, req.Nodes, e.evaluate)
		g.Go(func() error {
			helper.iterateHelper(rootMoves, limits.maxDepth)
			return nil
		})
	}

	result := driver.iterate(rootMoves, limits, start)

	e.stop.ForceStop()
	if err := g.Wait(); err != nil {
		return result, err
	}

	if limits.clockMode {
		e.tm.RecordMove(result.TimeMs, limits.budget)
	}
	return result, nil
}
