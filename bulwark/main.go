package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bulwark/core"
	"bulwark/engine"
	inter "bulwark/interface"
	"bulwark/suite"
)

func main() {
	mode := flag.String("mode", "uci", "uci, cli, perft or bench")
	hash := flag.Int("hash", engine.DefaultOptions().HashSizeMB, "transposition table size in MB")
	logLevel := flag.String("loglevel", "info", "log level: debug, info, warn, error, disabled")
	depth := flag.Int("depth", 0, "search or perft depth (0 means no limit for searches)")
	moveTime := flag.Duration("movetime", 5*time.Second, "time per move for cli and bench")
	fen := flag.String("fen", core.FENStartPosition, "position for perft and cli")
	suitePath := flag.String("suite", "", "perft suite file (EPD with ;D<n> <count> fields)")
	workers := flag.Int("workers", runtime.NumCPU(), "concurrent perft or bench positions")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	zerolog.SetGlobalLevel(level)
	// stdout belongs to the UCI protocol.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	opts := engine.DefaultOptions()
	opts.HashSizeMB = *hash
	if err := opts.Validate(); err != nil {
		log.Fatal().Err(err).Msg("bad-options")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch *mode {
	case "uci":
		err = inter.RunUCIProtocol(os.Stdin, os.Stdout, opts)
	case "cli":
		err = inter.RunCommandLineProtocol(os.Stdin, os.Stdout, opts, engine.Limits{Time: *moveTime, Depth: *depth})
	case "perft":
		err = runPerft(ctx, *fen, *suitePath, *depth, *workers)
	case "bench":
		err = runBench(ctx, opts, engine.Limits{Time: *moveTime, Depth: *depth}, *workers)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatal().Err(err).Str("mode", *mode).Msg("exiting")
	}
}

func runPerft(ctx context.Context, fen, suitePath string, depth, workers int) error {
	if depth < 1 {
		depth = 5
	}

	if suitePath == "" {
		board, err := core.NewBoard(fen)
		if err != nil {
			return err
		}
		start := time.Now()
		divide := board.Divide(depth)
		moves := make([]string, 0, len(divide))
		for move := range divide {
			moves = append(moves, move)
		}
		sort.Strings(moves)

		total := uint64(0)
		for _, move := range moves {
			fmt.Printf("%s: %d\n", move, divide[move])
			total += divide[move]
		}
		fmt.Printf("\nnodes %d in %v\n", total, time.Since(start))
		return nil
	}

	file, err := os.Open(suitePath)
	if err != nil {
		return err
	}
	defer file.Close()
	perftTests, err := suite.LoadPerftSuite(file)
	if err != nil {
		return err
	}

	results, err := suite.RunPerft(ctx, perftTests, depth, workers)
	if err != nil {
		return err
	}
	for _, result := range results {
		if !result.Passed() {
			fmt.Printf("FAIL %s depth %d: want %d, got %d\n", result.FEN, result.Depth, result.Want, result.Got)
		}
	}
	summary := suite.SummarizePerft(results)
	fmt.Printf("%d of %d perft tests passed, %d nodes\n", summary.Passed, summary.Tests, summary.Nodes)
	if summary.Passed != summary.Tests {
		return fmt.Errorf("%d perft tests failed", summary.Tests-summary.Passed)
	}
	return nil
}

func runBench(ctx context.Context, opts engine.Options, limits engine.Limits, workers int) error {
	results, err := suite.RunBench(ctx, suite.BenchPositions, limits, opts, workers)
	if err != nil {
		return err
	}
	for _, result := range results {
		fmt.Printf("%-70s %-6s depth %2d score %6d nodes %d\n",
			result.FEN, result.Result.BestMove, result.Result.Depth, result.Result.Score, result.Result.Nodes)
	}
	summary := suite.SummarizeBench(results)
	fmt.Printf("%d positions, %d nodes, %d nps\n", summary.Positions, summary.Nodes, summary.NPS)
	return nil
}
