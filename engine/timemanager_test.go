package engine

import "testing"

func TestClassifyControl(t *testing.T) {
	cases := []struct {
		ownMs int64
		want  TimeControl
	}{
		{30_000, Bullet},
		{179_999, Bullet},
		{180_000, Blitz},
		{899_999, Blitz},
		{900_000, Rapid},
		{3_600_000, Rapid},
		{3_600_001, Classical},
	}
	for _, c := range cases {
		if got := classifyControl(c.ownMs); got != c.want {
			t.Errorf("classify %d: got %v want %v", c.ownMs, got, c.want)
		}
	}
}

func TestMovesToGoPhases(t *testing.T) {
	cases := []struct {
		mtg    int
		ply    int
		pieces int
		want   int
	}{
		{25, 10, 32, 25}, // GUI value wins
		{0, 10, 32, 30},  // opening
		{0, 25, 24, 25},  // early middlegame, many pieces
		{0, 25, 18, 20},  // early middlegame, few pieces
		{0, 35, 14, 15},  // late middlegame
		{0, 35, 9, 10},   // late middlegame, thin material
		{0, 50, 20, 10},  // endgame by ply
		{0, 25, 10, 10},  // endgame by material
	}
	for _, c := range cases {
		clock := &GameClock{MovesToGo: c.mtg}
		if got := movesToGo(clock, c.ply, c.pieces); got != c.want {
			t.Errorf("movesToGo(mtg=%d ply=%d pieces=%d): got %d want %d",
				c.mtg, c.ply, c.pieces, got, c.want)
		}
	}
}

func TestPlanBudgetShape(t *testing.T) {
	var tm TimeManager
	clock := &GameClock{WhiteMs: 300_000, BlackMs: 300_000, WhiteInc: 2000, BlackInc: 2000}
	b := tm.Plan(clock, true, 10, 32, 50)

	if b.Emergency {
		t.Fatal("five minutes on the clock is not an emergency")
	}
	if b.Control != Blitz {
		t.Fatalf("control: got %v want blitz", b.Control)
	}
	if b.SoftMs <= 0 || b.HardMs <= 0 {
		t.Fatalf("budgets must be positive: %+v", b)
	}
	if b.HardMs > clock.WhiteMs/2 {
		t.Fatalf("hard budget %d exceeds half the clock", b.HardMs)
	}
	if b.HardMs > 2*b.SoftMs {
		t.Fatalf("hard budget %d exceeds twice the soft budget %d", b.HardMs, b.SoftMs)
	}
}

func TestPlanEmergencyMode(t *testing.T) {
	var tm TimeManager
	clock := &GameClock{WhiteMs: 300, BlackMs: 60_000, MovesToGo: 40}
	b := tm.Plan(clock, true, 30, 20, 10)

	if !b.Emergency {
		t.Fatal("300ms for 40 moves must trigger emergency mode")
	}
	if b.SoftMs < 1 || b.HardMs < 1 {
		t.Fatalf("budgets must stay positive in emergency mode: %+v", b)
	}
	if b.HardMs > clock.WhiteMs {
		t.Fatalf("hard budget %d exceeds the clock", b.HardMs)
	}
}

func TestQualityClassification(t *testing.T) {
	if classifyQuality(200, false) != QualityExcellent {
		t.Fatal("huge gap should be excellent")
	}
	if classifyQuality(80, false) != QualityGood {
		t.Fatal("solid gap should be good")
	}
	if classifyQuality(30, false) != QualityAcceptable {
		t.Fatal("modest gap should be acceptable")
	}
	if classifyQuality(5, false) != QualityPoor {
		t.Fatal("tiny gap should be poor")
	}
	if classifyQuality(500, true) != QualityCritical {
		t.Fatal("a root in check is always critical")
	}
}

func TestAdjustSoftScalesRemaining(t *testing.T) {
	if got := AdjustSoft(1000, QualityExcellent); got != 700 {
		t.Fatalf("excellent: got %d want 700", got)
	}
	if got := AdjustSoft(1000, QualityPoor); got != 1200 {
		t.Fatalf("poor: got %d want 1200", got)
	}
	if got := AdjustSoft(1000, QualityAcceptable); got != 1000 {
		t.Fatalf("acceptable: got %d want 1000", got)
	}
}

func TestRecordMoveStatistics(t *testing.T) {
	var tm TimeManager
	budget := Budget{SoftMs: 100, HardMs: 200, Control: Bullet}
	tm.RecordMove(150, budget)
	tm.RecordMove(250, budget)

	s := tm.Stats()
	if s.Moves != 2 {
		t.Fatalf("moves: got %d want 2", s.Moves)
	}
	if s.Allocations != 1 || s.Forfeits != 1 {
		t.Fatalf("allocations/forfeits: got %d/%d want 1/1", s.Allocations, s.Forfeits)
	}
	if s.AverageElapsedMs() != 200 {
		t.Fatalf("average: got %d want 200", s.AverageElapsedMs())
	}
	if s.ControlUse[Bullet] != 2 {
		t.Fatalf("control occupancy: got %d want 2", s.ControlUse[Bullet])
	}
	if s.String() == "" {
		t.Fatal("stats should render")
	}
}
