package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dylhunn/dragontoothmg"

	"sharp-rustic/board"
	"sharp-rustic/engine"
	"sharp-rustic/uci"
	"sharp-rustic/xboard"
)

const (
	engineName = "Sharp Rustic"
	author     = "Marcel Vanthoor"
)

type cliArgs struct {
	comm    string
	fen     string
	kiwi    bool
	hashMB  int
	threads int
	perft   int
	quiet   bool
}

func parseArgs() cliArgs {
	var args cliArgs
	flag.StringVar(&args.comm, "comm", "uci", "communication protocol (uci or xboard)")
	flag.StringVar(&args.comm, "c", "uci", "shorthand for -comm")
	flag.StringVar(&args.fen, "fen", dragontoothmg.Startpos, "set up the given position")
	flag.StringVar(&args.fen, "f", dragontoothmg.Startpos, "shorthand for -fen")
	flag.BoolVar(&args.kiwi, "kiwipete", false, "set up the KiwiPete position (ignores -fen)")
	flag.BoolVar(&args.kiwi, "k", false, "shorthand for -kiwipete")
	flag.IntVar(&args.hashMB, "hash", engine.DefaultHashMB, "transposition table size in MB")
	flag.IntVar(&args.hashMB, "h", engine.DefaultHashMB, "shorthand for -hash")
	flag.IntVar(&args.threads, "threads", 1, "number of searcher threads")
	flag.IntVar(&args.threads, "t", 1, "shorthand for -threads")
	flag.IntVar(&args.perft, "perft", 0, "run perft to the given depth instead of searching")
	flag.IntVar(&args.perft, "p", 0, "shorthand for -perft")
	flag.BoolVar(&args.quiet, "quiet", false, "no intermediate search updates")
	flag.BoolVar(&args.quiet, "q", false, "shorthand for -quiet")
	flag.Parse()
	return args
}

func main() {
	if err := run(parseArgs()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args cliArgs) error {
	fen := args.fen
	if args.kiwi {
		fen = board.KiwipeteFEN
	}
	pos, err := board.FromFEN(fen)
	if err != nil {
		return err
	}

	if args.perft > 0 {
		board.Divide(pos, args.perft)
		return nil
	}

	eng, err := engine.New(engine.Options{
		HashMB:  args.hashMB,
		Threads: args.threads,
	})
	if err != nil {
		return err
	}

	switch args.comm {
	case "uci":
		return uci.New(engineName, author, eng, pos, args.quiet).Run(os.Stdin)
	case "xboard":
		return xboard.New(engineName, eng, pos).Run(os.Stdin)
	default:
		return fmt.Errorf("unknown protocol %q (want uci or xboard)", args.comm)
	}
}
