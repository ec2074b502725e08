package engine

import (
	"github.com/dylhunn/dragontoothmg"

	"sharp-rustic/board"
)

// Score constants. Mate in k plies from the side to move scores
// Checkmate - k; anything at or beyond CheckmateThreshold is a mate score
// and carries a ply distance that the TT boundary has to adjust.
const (
	Inf                = 25000
	Checkmate          = 24000
	CheckmateThreshold = 23900
	Draw               = 0
)

// MaxPly bounds the recursion and sizes the per-ply scratch tables.
const MaxPly = 128

// EmergencyMaxDepth caps iterative deepening when the clock is critical.
const EmergencyMaxDepth = 8

// checkTermination masks the node counter for deadline polling: the clock
// and the node limit are inspected every 2048 nodes.
const checkTermination = 0x7FF

// GameClock carries the UCI clock fields of a "go" command, in
// milliseconds.
type GameClock struct {
	WhiteMs   int64
	BlackMs   int64
	WhiteInc  int64
	BlackInc  int64
	MovesToGo int
}

// Own returns the clock and increment of the side to move.
func (c *GameClock) Own(whiteToMove bool) (clock, inc int64) {
	if whiteToMove {
		return c.WhiteMs, c.WhiteInc
	}
	return c.BlackMs, c.BlackInc
}

// SearchRequest is everything the protocol layer hands to the driver for
// one search. Exactly one of Clock / MoveTimeMs / Depth / Nodes / Infinite
// is expected to be meaningful; unset limits are zero.
type SearchRequest struct {
	Position       *board.Position
	Clock          *GameClock
	MoveTimeMs     int64
	Depth          int
	Nodes          int64
	Infinite       bool
	MoveOverheadMs int64
}

// Score is a centipawn or mate score for protocol output. Mate is in moves
// (not plies), negative when the side to move is being mated.
type Score struct {
	CP   int
	Mate int
}

func scoreFromInternal(v int) Score {
	switch {
	case v >= CheckmateThreshold:
		return Score{Mate: (Checkmate - v + 1) / 2}
	case v <= -CheckmateThreshold:
		return Score{Mate: -((Checkmate + v + 1) / 2)}
	default:
		return Score{CP: v}
	}
}

// SearchReport is emitted after each completed iteration. A search that
// ends inside an iteration sends no further report for it.
type SearchReport struct {
	Depth     int
	SelDepth  int
	Nodes     int64
	NPS       int64
	TimeMs    int64
	Score     Score
	PV        []dragontoothmg.Move
	HashFull  int
	Emergency bool
}

// RootMove is one root analysis record: a root move, its score, and the
// reply line (the PV continuation) found behind it. Records are kept in
// explored order so an aborted iteration still leaves a usable head.
type RootMove struct {
	Move      dragontoothmg.Move
	Score     int
	ReplyLine []dragontoothmg.Move
}

// SearchCallbacks are the driver's reporting hooks into the protocol
// layer. All of them are optional; a nil callback is skipped. CurrMove and
// Stats are throttled by elapsed time so slow GUIs are not flooded.
type SearchCallbacks struct {
	Progress func(SearchReport)
	CurrMove func(move dragontoothmg.Move, number int)
	Stats    func(nodes, nps int64, hashfull int)
}

// SearchResult is the driver's final answer.
type SearchResult struct {
	BestMove dragontoothmg.Move
	Score    Score
	Depth    int
	Nodes    int64
	TimeMs   int64
}
