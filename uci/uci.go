// Package uci adapts the engine to the Universal Chess Interface.
package uci

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/dylhunn/dragontoothmg"

	"sharp-rustic/board"
	"sharp-rustic/engine"
)

// Protocol is one UCI session: it owns the current position and drives the
// engine. Searches run on their own goroutine so "stop" stays responsive.
type Protocol struct {
	name     string
	author   string
	eng      *engine.Engine
	pos      *board.Position
	quiet    bool
	thinking atomic.Bool
	done     chan struct{}
}

func New(name, author string, eng *engine.Engine, startPos *board.Position, quiet bool) *Protocol {
	return &Protocol{
		name:   name,
		author: author,
		eng:    eng,
		pos:    startPos,
		quiet:  quiet,
	}
}

// Run reads commands until "quit" or EOF.
func (p *Protocol) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		quit, err := p.Handle(scanner.Text())
		if err != nil {
			fmt.Println("info string", err)
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

// Handle processes one command line. It returns true when the session
// should end.
func (p *Protocol) Handle(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	command, args := fields[0], fields[1:]

	if p.thinking.Load() {
		switch command {
		case "stop":
			p.eng.Stop()
			p.waitSearch()
			return false, nil
		case "quit":
			p.eng.Stop()
			p.waitSearch()
			return true, nil
		case "isready":
			fmt.Println("readyok")
			return false, nil
		case "ponderhit":
			return false, nil
		}
		return false, fmt.Errorf("busy, ignoring %q", command)
	}

	switch command {
	case "uci":
		fmt.Printf("id name %s\n", p.name)
		fmt.Printf("id author %s\n", p.author)
		opts := p.eng.Options()
		fmt.Printf("option name Hash type spin default %d min 1 max 4096\n", opts.HashMB)
		fmt.Printf("option name Threads type spin default %d min 1 max 64\n", opts.Threads)
		fmt.Printf("option name Move Overhead type spin default %d min 0 max 5000\n", opts.MoveOverheadMs)
		fmt.Println("option name Clear Hash type button")
		fmt.Println("uciok")
	case "isready":
		fmt.Println("readyok")
	case "setoption":
		err = p.setOption(args)
	case "ucinewgame":
		p.eng.NewGame()
	case "position":
		err = p.position(args)
	case "go":
		err = p.goCommand(args)
	case "stop", "ponderhit":
		// Not thinking; nothing to do.
	case "quit":
		return true, nil
	default:
		err = fmt.Errorf("unknown command %q", command)
	}
	return false, err
}

func (p *Protocol) waitSearch() {
	if ch := p.done; ch != nil {
		<-ch
	}
}

func (p *Protocol) setOption(args []string) error {
	name, value := parseOption(args)
	switch strings.ToLower(name) {
	case "hash":
		mb, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("bad Hash value %q", value)
		}
		return p.eng.SetHash(mb)
	case "threads":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("bad Threads value %q", value)
		}
		return p.eng.SetThreads(n)
	case "move overhead":
		ms, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("bad Move Overhead value %q", value)
		}
		p.eng.SetMoveOverhead(ms)
		return nil
	case "clear hash":
		p.eng.ClearHash()
		return nil
	}
	return fmt.Errorf("unknown option %q", name)
}

// parseOption splits "name <multi word name> value <value>".
func parseOption(args []string) (name, value string) {
	var nameParts, valueParts []string
	target := &nameParts
	for _, tok := range args {
		switch strings.ToLower(tok) {
		case "name":
			target = &nameParts
		case "value":
			target = &valueParts
		default:
			*target = append(*target, tok)
		}
	}
	return strings.Join(nameParts, " "), strings.Join(valueParts, " ")
}

func (p *Protocol) position(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("malformed position command")
	}
	movesIndex := -1
	for i, tok := range args {
		if tok == "moves" {
			movesIndex = i
			break
		}
	}

	var pos *board.Position
	var err error
	switch args[0] {
	case "startpos":
		pos = board.Initial()
	case "fen":
		end := len(args)
		if movesIndex >= 0 {
			end = movesIndex
		}
		pos, err = board.FromFEN(strings.Join(args[1:end], " "))
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown position subcommand %q", args[0])
	}

	if movesIndex >= 0 {
		for _, moveStr := range args[movesIndex+1:] {
			if err := pos.ApplyUCIMove(moveStr); err != nil {
				return err
			}
		}
	}
	p.pos = pos
	return nil
}

func (p *Protocol) goCommand(args []string) error {
	req, err := parseGo(args, p.pos)
	if err != nil {
		return err
	}

	var cb engine.SearchCallbacks
	if !p.quiet {
		cb = engine.SearchCallbacks{
			Progress: func(r engine.SearchReport) {
				fmt.Println(reportToUCI(r))
			},
			CurrMove: func(m dragontoothmg.Move, number int) {
				fmt.Printf("info currmove %s currmovenumber %d\n", m.String(), number)
			},
			Stats: func(nodes, nps int64, hashfull int) {
				fmt.Printf("info nodes %d nps %d hashfull %d\n", nodes, nps, hashfull)
			},
		}
	}

	done := make(chan struct{})
	p.done = done
	p.thinking.Store(true)
	go func() {
		defer close(done)
		defer p.thinking.Store(false)
		result, err := p.eng.Search(req, cb)
		if err != nil {
			fmt.Println("info string", err)
			return
		}
		if !p.quiet {
			stats := p.eng.TimeStats()
			fmt.Printf("info string timestats %s\n", &stats)
		}
		fmt.Printf("bestmove %s\n", result.BestMove.String())
	}()
	return nil
}

// parseGo builds the search request from a "go" command.
func parseGo(args []string, pos *board.Position) (engine.SearchRequest, error) {
	req := engine.SearchRequest{Position: pos}
	clock := engine.GameClock{}
	haveClock := false

	next := func(i int) (int64, error) {
		if i+1 >= len(args) {
			return 0, fmt.Errorf("go option %q needs a value", args[i])
		}
		return strconv.ParseInt(args[i+1], 10, 64)
	}

	for i := 0; i < len(args); i++ {
		var err error
		var v int64
		switch args[i] {
		case "wtime":
			v, err = next(i)
			clock.WhiteMs = v
			haveClock = true
			i++
		case "btime":
			v, err = next(i)
			clock.BlackMs = v
			haveClock = true
			i++
		case "winc":
			v, err = next(i)
			clock.WhiteInc = v
			i++
		case "binc":
			v, err = next(i)
			clock.BlackInc = v
			i++
		case "movestogo":
			v, err = next(i)
			clock.MovesToGo = int(v)
			i++
		case "movetime":
			v, err = next(i)
			req.MoveTimeMs = v
			i++
		case "depth":
			v, err = next(i)
			req.Depth = int(v)
			i++
		case "nodes":
			v, err = next(i)
			req.Nodes = v
			i++
		case "infinite":
			req.Infinite = true
		case "ponder":
			// No pondering mode of its own: "go ponder" runs as an
			// infinite search that ends on "stop".
			req.Infinite = true
		default:
			err = fmt.Errorf("unknown go option %q", args[i])
		}
		if err != nil {
			return engine.SearchRequest{}, err
		}
	}

	if haveClock {
		req.Clock = &clock
	}
	return req, nil
}

func reportToUCI(r engine.SearchReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "info depth %d seldepth %d", r.Depth, r.SelDepth)
	if r.Score.Mate != 0 {
		fmt.Fprintf(&sb, " score mate %d", r.Score.Mate)
	} else {
		fmt.Fprintf(&sb, " score cp %d", r.Score.CP)
	}
	fmt.Fprintf(&sb, " nodes %d nps %d time %d hashfull %d", r.Nodes, r.NPS, r.TimeMs, r.HashFull)
	if len(r.PV) > 0 {
		sb.WriteString(" pv")
		for _, m := range r.PV {
			sb.WriteString(" ")
			sb.WriteString(m.String())
		}
	}
	return sb.String()
}
