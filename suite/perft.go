package suite

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"bulwark/core"
)

var ErrInvalidSuite = errors.New("invalid perft suite")

// One line of a perft suite: a position and the expected node counts by
// depth.
type PerftTest struct {
	FEN    string
	Counts map[int]uint64
}

// Depths with an expected count, shallowest first.
func (test PerftTest) Depths() []int {
	depths := lo.Keys(test.Counts)
	sort.Ints(depths)
	return depths
}

type PerftResult struct {
	FEN     string
	Depth   int
	Want    uint64
	Got     uint64
	Elapsed time.Duration
}

func (result PerftResult) Passed() bool { return result.Want == result.Got }

// Read a suite in the usual EPD style, one position per line:
//
//	rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1 ;D1 20 ;D2 400
//
// Blank lines and lines starting with # are skipped.
func LoadPerftSuite(r io.Reader) ([]PerftTest, error) {
	var perftTests []PerftTest
	scanner := bufio.NewScanner(r)
	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, ";")
		perftTest := PerftTest{FEN: strings.TrimSpace(fields[0]), Counts: make(map[int]uint64)}
		if _, err := core.NewBoard(perftTest.FEN); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidSuite, lineNumber, err)
		}

		for _, field := range fields[1:] {
			depthField, countField, ok := strings.Cut(strings.TrimSpace(field), " ")
			if !ok || !strings.HasPrefix(depthField, "D") {
				return nil, fmt.Errorf("%w: line %d: bad count %q", ErrInvalidSuite, lineNumber, field)
			}
			depth, err := strconv.Atoi(depthField[1:])
			if err != nil || depth < 1 {
				return nil, fmt.Errorf("%w: line %d: bad depth %q", ErrInvalidSuite, lineNumber, depthField)
			}
			count, err := strconv.ParseUint(strings.TrimSpace(countField), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: bad node count %q", ErrInvalidSuite, lineNumber, countField)
			}
			perftTest.Counts[depth] = count
		}
		perftTests = append(perftTests, perftTest)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return perftTests, nil
}

// Run every test of the suite up to maxDepth, spreading the positions over
// the given number of workers. Each worker has its own board. Results come
// back in suite order.
func RunPerft(ctx context.Context, perftTests []PerftTest, maxDepth, workers int) ([]PerftResult, error) {
	results := make([][]PerftResult, len(perftTests))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, perftTest := range perftTests {
		i, perftTest := i, perftTest
		g.Go(func() error {
			board, err := core.NewBoard(perftTest.FEN)
			if err != nil {
				return err
			}
			for _, depth := range perftTest.Depths() {
				if depth > maxDepth {
					break
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				start := time.Now()
				result := PerftResult{
					FEN:   perftTest.FEN,
					Depth: depth,
					Want:  perftTest.Counts[depth],
					Got:   board.Perft(depth),
				}
				result.Elapsed = time.Since(start)
				results[i] = append(results[i], result)

				event := log.Debug()
				if !result.Passed() {
					event = log.Warn()
				}
				event.Str("fen", result.FEN).
					Int("depth", depth).
					Uint64("want", result.Want).
					Uint64("got", result.Got).
					Dur("elapsed", result.Elapsed).
					Msg("perft")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lo.Flatten(results), nil
}

type PerftSummary struct {
	Tests  int
	Passed int
	Nodes  uint64
}

func SummarizePerft(results []PerftResult) PerftSummary {
	return PerftSummary{
		Tests:  len(results),
		Passed: lo.CountBy(results, PerftResult.Passed),
		Nodes:  lo.SumBy(results, func(result PerftResult) uint64 { return result.Got }),
	}
}
