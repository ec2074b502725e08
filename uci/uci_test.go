package uci

import (
	"strings"
	"testing"

	"sharp-rustic/board"
	"sharp-rustic/engine"
)

func TestParseGoGameClock(t *testing.T) {
	pos := board.Initial()
	req, err := parseGo(strings.Fields("wtime 300000 btime 290000 winc 2000 binc 1000 movestogo 40"), pos)
	if err != nil {
		t.Fatal(err)
	}
	if req.Clock == nil {
		t.Fatal("expected a game clock")
	}
	c := req.Clock
	if c.WhiteMs != 300000 || c.BlackMs != 290000 || c.WhiteInc != 2000 || c.BlackInc != 1000 || c.MovesToGo != 40 {
		t.Fatalf("clock mis-parsed: %+v", c)
	}
}

func TestParseGoSimpleModes(t *testing.T) {
	pos := board.Initial()

	req, err := parseGo(strings.Fields("movetime 1500"), pos)
	if err != nil || req.MoveTimeMs != 1500 {
		t.Fatalf("movetime: %+v err=%v", req, err)
	}

	req, err = parseGo(strings.Fields("depth 9"), pos)
	if err != nil || req.Depth != 9 {
		t.Fatalf("depth: %+v err=%v", req, err)
	}

	req, err = parseGo(strings.Fields("nodes 123456"), pos)
	if err != nil || req.Nodes != 123456 {
		t.Fatalf("nodes: %+v err=%v", req, err)
	}

	req, err = parseGo(strings.Fields("infinite"), pos)
	if err != nil || !req.Infinite {
		t.Fatalf("infinite: %+v err=%v", req, err)
	}

	if _, err = parseGo(strings.Fields("wtime"), pos); err == nil {
		t.Fatal("missing value must error")
	}
	if _, err = parseGo(strings.Fields("frobnicate 3"), pos); err == nil {
		t.Fatal("unknown option must error")
	}
}

func TestParseOptionMultiWordNames(t *testing.T) {
	name, value := parseOption(strings.Fields("name Move Overhead value 120"))
	if name != "Move Overhead" || value != "120" {
		t.Fatalf("got %q=%q", name, value)
	}
	name, value = parseOption(strings.Fields("name Clear Hash"))
	if name != "Clear Hash" || value != "" {
		t.Fatalf("got %q=%q", name, value)
	}
}

func TestPositionCommand(t *testing.T) {
	eng, err := engine.New(engine.Options{HashMB: 1})
	if err != nil {
		t.Fatal(err)
	}
	p := New("test", "tester", eng, board.Initial(), true)

	if err := p.position(strings.Fields("startpos moves e2e4 e7e5")); err != nil {
		t.Fatal(err)
	}
	if !p.pos.WhiteToMove() {
		t.Fatal("after e2e4 e7e5 it is white to move")
	}

	if err := p.position(strings.Fields("fen " + board.KiwipeteFEN)); err != nil {
		t.Fatal(err)
	}
	if got := len(p.pos.LegalMoves()); got != 48 {
		t.Fatalf("kiwipete moves: got %d want 48", got)
	}

	if err := p.position(strings.Fields("startpos moves e2e5")); err == nil {
		t.Fatal("illegal move must surface an error")
	}
	if err := p.position(strings.Fields("fen garbage here")); err == nil {
		t.Fatal("bad fen must surface an error")
	}
}

func TestReportFormatting(t *testing.T) {
	r := engine.SearchReport{
		Depth:    7,
		SelDepth: 12,
		Nodes:    1000,
		NPS:      5000,
		TimeMs:   200,
		Score:    engine.Score{CP: 35},
		HashFull: 12,
	}
	line := reportToUCI(r)
	for _, want := range []string{"info depth 7", "seldepth 12", "score cp 35", "nodes 1000", "hashfull 12"} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q missing %q", line, want)
		}
	}

	r.Score = engine.Score{Mate: 3}
	if line := reportToUCI(r); !strings.Contains(line, "score mate 3") {
		t.Fatalf("mate line wrong: %q", line)
	}
}

func TestHandleSynchronousCommands(t *testing.T) {
	eng, err := engine.New(engine.Options{HashMB: 1})
	if err != nil {
		t.Fatal(err)
	}
	p := New("test", "tester", eng, board.Initial(), true)

	if quit, err := p.Handle("isready"); quit || err != nil {
		t.Fatalf("isready: quit=%v err=%v", quit, err)
	}
	if quit, err := p.Handle("ucinewgame"); quit || err != nil {
		t.Fatalf("ucinewgame: quit=%v err=%v", quit, err)
	}
	if quit, err := p.Handle("setoption name Hash value 2"); quit || err != nil {
		t.Fatalf("setoption: quit=%v err=%v", quit, err)
	}
	if _, err := p.Handle("setoption name Hash value notanumber"); err == nil {
		t.Fatal("bad option value must error")
	}
	if quit, _ := p.Handle("quit"); !quit {
		t.Fatal("quit must end the session")
	}
}
