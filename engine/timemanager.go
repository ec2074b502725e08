package engine

import "fmt"

// TimeControl classifies the clock by the time remaining for our side.
type TimeControl uint8

const (
	Bullet TimeControl = iota
	Blitz
	Rapid
	Classical
)

func (tc TimeControl) String() string {
	switch tc {
	case Bullet:
		return "bullet"
	case Blitz:
		return "blitz"
	case Rapid:
		return "rapid"
	default:
		return "classical"
	}
}

// factor scales the per-move budget: fast controls spend under the even
// split, slow controls spend over it.
func (tc TimeControl) factor() float64 {
	switch tc {
	case Bullet:
		return 0.80
	case Blitz:
		return 0.90
	case Rapid:
		return 1.00
	default:
		return 1.10
	}
}

func classifyControl(ownMs int64) TimeControl {
	switch {
	case ownMs < 180_000:
		return Bullet
	case ownMs < 900_000:
		return Blitz
	case ownMs <= 3_600_000:
		return Rapid
	default:
		return Classical
	}
}

// MoveQuality grades how clear-cut the best root move looks after an
// iteration; the soft budget shrinks for obvious moves and grows for murky
// ones. The hard cap is never adjusted.
type MoveQuality uint8

const (
	QualityExcellent MoveQuality = iota
	QualityGood
	QualityAcceptable
	QualityPoor
	QualityCritical
)

func (q MoveQuality) factor() float64 {
	switch q {
	case QualityExcellent:
		return 0.70
	case QualityGood:
		return 0.85
	case QualityAcceptable:
		return 1.00
	case QualityPoor:
		return 1.20
	default:
		return 1.50
	}
}

// classifyQuality grades the score gap between the best root move and its
// nearest competitor. A root in check is always critical.
func classifyQuality(gap int, inCheckAtRoot bool) MoveQuality {
	switch {
	case inCheckAtRoot:
		return QualityCritical
	case gap >= 150:
		return QualityExcellent
	case gap >= 60:
		return QualityGood
	case gap >= 20:
		return QualityAcceptable
	default:
		return QualityPoor
	}
}

// Budget is the per-move time allocation: the soft limit gates starting a
// new iteration, the hard limit is the node-level deadline.
type Budget struct {
	SoftMs    int64
	HardMs    int64
	Emergency bool
	Control   TimeControl
}

// TimeStats accumulates allocation statistics across the game for protocol
// logging; it has no bearing on correctness.
type TimeStats struct {
	Moves          int
	Allocations    int
	Forfeits       int
	TotalElapsedMs int64
	EmergencyMoves int
	ControlUse     [4]int
	Emergency      bool
}

func (s *TimeStats) AverageElapsedMs() int64 {
	if s.Moves == 0 {
		return 0
	}
	return s.TotalElapsedMs / int64(s.Moves)
}

func (s *TimeStats) String() string {
	return fmt.Sprintf(
		"moves %d allocated %d forfeited %d avg %dms bullet %d blitz %d rapid %d classical %d emergency %v",
		s.Moves, s.Allocations, s.Forfeits, s.AverageElapsedMs(),
		s.ControlUse[Bullet], s.ControlUse[Blitz], s.ControlUse[Rapid], s.ControlUse[Classical],
		s.Emergency)
}

// TimeManager turns the game clock into per-move budgets and keeps the
// running statistics.
type TimeManager struct {
	stats TimeStats
}

// Plan computes the budget for one move.
func (tm *TimeManager) Plan(clock *GameClock, whiteToMove bool, gamePly, pieceCount int, overheadMs int64) Budget {
	ownMs, incMs := clock.Own(whiteToMove)
	control := classifyControl(ownMs)
	mtg := movesToGo(clock, gamePly, pieceCount)

	base := ownMs/int64(mtg) + incMs
	soft := int64(float64(base)*control.factor()) - overheadMs
	hard := minI64(2*soft, ownMs/2)

	budget := Budget{Control: control}
	if ownMs < int64(mtg)*2000 {
		soft /= 2
		hard /= 2
		budget.Emergency = true
	}
	budget.SoftMs = clamp(soft, 1, ownMs)
	budget.HardMs = clamp(hard, 1, ownMs)
	return budget
}

// movesToGo uses the GUI value when provided, otherwise guesses from the
// game phase: more moves budgeted in the opening, fewer as material comes
// off the board.
func movesToGo(clock *GameClock, gamePly, pieceCount int) int {
	if clock.MovesToGo > 0 {
		return clock.MovesToGo
	}
	switch {
	case pieceCount <= 12 || gamePly > 40:
		return 10
	case gamePly <= 20:
		return 30
	case gamePly <= 30:
		if pieceCount >= 20 {
			return 25
		}
		return 20
	default:
		// Late middlegame; thin material was already routed to the
		// endgame bucket above.
		return 15
	}
}

// AdjustSoft scales the remaining soft budget by the move quality factor.
// The hard cap is left alone.
func AdjustSoft(remainingMs int64, quality MoveQuality) int64 {
	return int64(float64(remainingMs) * quality.factor())
}

// RecordMove folds one finished move into the statistics.
func (tm *TimeManager) RecordMove(elapsedMs int64, budget Budget) {
	tm.stats.Moves++
	tm.stats.TotalElapsedMs += elapsedMs
	tm.stats.ControlUse[budget.Control]++
	if budget.Emergency {
		tm.stats.EmergencyMoves++
	}
	tm.stats.Emergency = budget.Emergency
	if elapsedMs <= budget.HardMs {
		tm.stats.Allocations++
	} else {
		tm.stats.Forfeits++
	}
}

func (tm *TimeManager) Stats() TimeStats {
	return tm.stats
}
