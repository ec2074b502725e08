// Package xboard adapts the engine to the CECP/XBoard protocol. It covers
// the command set a GUI needs to play a game; the engine behind it is the
// same one the UCI adapter drives.
package xboard

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"sharp-rustic/board"
	"sharp-rustic/engine"
)

type Protocol struct {
	name string
	eng  *engine.Engine
	pos  *board.Position

	force    bool
	mps      int   // moves per session from "level"
	baseMs   int64 // session base time
	incMs    int64
	ownMs    int64 // running clocks, updated by time/otim
	oppMs    int64
	maxDepth int
	moveTime int64

	thinking atomic.Bool
	done     chan struct{}
}

func New(name string, eng *engine.Engine, startPos *board.Position) *Protocol {
	return &Protocol{
		name: name,
		eng:  eng,
		pos:  startPos,
		ownMs: 5 * 60 * 1000,
		oppMs: 5 * 60 * 1000,
	}
}

// Run reads commands until "quit" or EOF.
func (p *Protocol) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		quit, err := p.Handle(scanner.Text())
		if err != nil {
			fmt.Printf("Error (%v): %s\n", err, scanner.Text())
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

func (p *Protocol) Handle(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	command, args := fields[0], fields[1:]

	if p.thinking.Load() {
		switch command {
		case "?":
			p.eng.Stop()
			p.waitSearch()
			return false, nil
		case "quit":
			p.eng.Stop()
			p.waitSearch()
			return true, nil
		}
		// Everything else waits for the move reply first; the game state
		// stays sequential.
		p.waitSearch()
	}

	switch command {
	case "xboard":
		fmt.Println()
	case "protover":
		fmt.Printf("feature myname=\"%s\" setboard=1 usermove=1 ping=1 sigint=0 sigterm=0 done=1\n", p.name)
	case "accepted", "rejected", "random", "hard", "easy", "post", "nopost", "computer", "result":
		// Acknowledged silently.
	case "new":
		p.pos = board.Initial()
		p.force = false
		p.maxDepth = 0
		p.eng.NewGame()
	case "setboard":
		pos, ferr := board.FromFEN(strings.Join(args, " "))
		if ferr != nil {
			return false, ferr
		}
		p.pos = pos
	case "force":
		p.force = true
	case "go":
		p.force = false
		err = p.thinkAndMove()
	case "usermove":
		if len(args) == 0 {
			return false, fmt.Errorf("usermove without a move")
		}
		if err = p.pos.ApplyUCIMove(args[0]); err != nil {
			return false, err
		}
		if !p.force {
			err = p.thinkAndMove()
		}
	case "level":
		err = p.level(args)
	case "st":
		if len(args) > 0 {
			var secs int64
			secs, err = strconv.ParseInt(args[0], 10, 64)
			p.moveTime = secs * 1000
		}
	case "sd":
		if len(args) > 0 {
			p.maxDepth, err = strconv.Atoi(args[0])
		}
	case "time":
		p.ownMs = parseCentis(args)
	case "otim":
		p.oppMs = parseCentis(args)
	case "ping":
		if len(args) > 0 {
			fmt.Printf("pong %s\n", args[0])
		}
	case "?":
		p.eng.Stop()
	case "quit":
		return true, nil
	default:
		// Bare move without the usermove prefix, per older GUIs.
		if perr := p.pos.ApplyUCIMove(command); perr == nil {
			if !p.force {
				err = p.thinkAndMove()
			}
		} else {
			err = fmt.Errorf("unknown command %q", command)
		}
	}
	return false, err
}

// level parses "level MPS BASE INC" with BASE in minutes or minutes:seconds
// and INC in seconds.
func (p *Protocol) level(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("malformed level command")
	}
	mps, err := strconv.Atoi(args[0])
	if err != nil {
		return err
	}
	baseMs, err := parseClockBase(args[1])
	if err != nil {
		return err
	}
	incSecs, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return err
	}
	p.mps = mps
	p.baseMs = baseMs
	p.incMs = int64(incSecs * 1000)
	p.ownMs = baseMs
	p.oppMs = baseMs
	return nil
}

func parseClockBase(s string) (int64, error) {
	if minutes, seconds, found := strings.Cut(s, ":"); found {
		m, err := strconv.ParseInt(minutes, 10, 64)
		if err != nil {
			return 0, err
		}
		sec, err := strconv.ParseInt(seconds, 10, 64)
		if err != nil {
			return 0, err
		}
		return (m*60 + sec) * 1000, nil
	}
	m, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return m * 60 * 1000, nil
}

func parseCentis(args []string) int64 {
	if len(args) == 0 {
		return 0
	}
	v, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0
	}
	return v * 10
}

func (p *Protocol) waitSearch() {
	if ch := p.done; ch != nil {
		<-ch
	}
}

// thinkAndMove searches on its own goroutine and answers with "move <mv>",
// so "?" (move now) and "quit" stay deliverable while the engine thinks.
func (p *Protocol) thinkAndMove() error {
	req := engine.SearchRequest{Position: p.pos}
	switch {
	case p.moveTime > 0:
		req.MoveTimeMs = p.moveTime
	default:
		clock := &engine.GameClock{MovesToGo: p.mps}
		if p.pos.WhiteToMove() {
			clock.WhiteMs, clock.WhiteInc = p.ownMs, p.incMs
			clock.BlackMs = p.oppMs
		} else {
			clock.BlackMs, clock.BlackInc = p.ownMs, p.incMs
			clock.WhiteMs = p.oppMs
		}
		req.Clock = clock
	}
	if p.maxDepth > 0 {
		req.Depth = p.maxDepth
	}

	done := make(chan struct{})
	p.done = done
	p.thinking.Store(true)
	go func() {
		defer close(done)
		defer p.thinking.Store(false)
		result, err := p.eng.Search(req, engine.SearchCallbacks{})
		if err != nil {
			fmt.Printf("Error (%v): search\n", err)
			return
		}
		if err := p.pos.ApplyUCIMove(result.BestMove.String()); err != nil {
			fmt.Printf("Error (%v): move\n", err)
			return
		}
		fmt.Printf("move %s\n", result.BestMove.String())
	}()
	return nil
}
