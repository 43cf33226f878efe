package suite

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"bulwark/core"
	"bulwark/engine"
)

// A spread of openings, middlegames, and endgames for benchmarking.
var BenchPositions = []string{
	core.FENStartPosition,
	core.FENKiwiPete,
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
	"r1bqkb1r/pppp1ppp/2n2n2/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 4 4",
	"6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1",
	"8/8/4k3/8/2p5/8/B2K4/8 w - - 0 1",
	"4r1k1/pp3ppp/2p5/8/3Pq3/2P5/PP3PPP/R2Q1RK1 b - - 0 20",
}

type BenchResult struct {
	FEN    string
	Result engine.Result
}

// Search every position with its own board and searcher, running up to
// workers searches at a time. Results come back in input order.
func RunBench(ctx context.Context, fens []string, limits engine.Limits, opts engine.Options, workers int) ([]BenchResult, error) {
	results := make([]BenchResult, len(fens))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, fen := range fens {
		i, fen := i, fen
		g.Go(func() error {
			board, err := core.NewBoard(fen)
			if err != nil {
				return err
			}
			searcher, err := engine.NewSearcher(board, opts)
			if err != nil {
				return err
			}
			result, err := searcher.Search(ctx, limits)
			if err != nil {
				return err
			}
			results[i] = BenchResult{FEN: fen, Result: result}

			log.Info().
				Str("fen", fen).
				Str("move", result.BestMove.String()).
				Int("score", result.Score).
				Int("depth", result.Depth).
				Uint64("nodes", result.Nodes).
				Dur("elapsed", result.Elapsed).
				Msg("bench-position")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

type BenchSummary struct {
	Positions int
	Nodes     uint64
	Elapsed   time.Duration
	NPS       uint64
}

// Elapsed is the sum of the search times, so NPS is per searcher.
func SummarizeBench(results []BenchResult) BenchSummary {
	summary := BenchSummary{
		Positions: len(results),
		Nodes:     lo.SumBy(results, func(r BenchResult) uint64 { return r.Result.Nodes }),
		Elapsed:   lo.SumBy(results, func(r BenchResult) time.Duration { return r.Result.Elapsed }),
	}
	if summary.Elapsed > 0 {
		summary.NPS = uint64(float64(summary.Nodes) / summary.Elapsed.Seconds())
	}
	return summary
}
