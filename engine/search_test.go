package engine

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"lukechampine.com/frand"

	"bulwark/core"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func testOptions(opts Options) Options {
	opts.HashSizeMB = 1
	opts.QuiescenceHashSizeMB = 1
	return opts
}

func newTestSearcher(t *testing.T, pos Position, opts Options) *Searcher {
	t.Helper()
	s, err := NewSearcher(pos, testOptions(opts))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func searchDepth(t *testing.T, fen string, opts Options, depth int) Result {
	t.Helper()
	s := newTestSearcher(t, mustBoard(t, fen), opts)
	result, err := s.Search(context.Background(), Limits{Depth: depth})
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func isLegal(t *testing.T, fen string, move core.Move) bool {
	t.Helper()
	return legalOn(mustBoard(t, fen), move)
}

func legalOn(board *core.Board, move core.Move) bool {
	var list core.MoveList
	board.GenLegalMoves(&list)
	for _, legal := range list.Slice() {
		if legal == move {
			return true
		}
	}
	return false
}

func TestMateInOne(t *testing.T) {
	const fen = "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1"
	result := searchDepth(t, fen, DefaultOptions(), 4)
	if result.BestMove.String() != "a1a8" {
		t.Fatalf("best move = %s, want a1a8", result.BestMove)
	}
	if result.Score != MateScore-1 {
		t.Fatalf("score = %d, want %d", result.Score, MateScore-1)
	}
	if result.Depth != 1 {
		t.Fatalf("a mate found at depth 1 should end the search, got depth %d", result.Depth)
	}
	if MateDistance(result.Score) != 1 {
		t.Fatalf("mate distance = %d", MateDistance(result.Score))
	}
}

func TestQuiescenceAvoidsHorizon(t *testing.T) {
	// The d5 pawn is defended by the e6 pawn.
	const fen = "4k3/8/4p3/3p4/8/8/8/3QK3 w - - 0 1"

	blind := DefaultOptions()
	blind.QuiescenceDepth = 0
	if result := searchDepth(t, fen, blind, 1); result.BestMove.String() != "d1d5" {
		t.Fatalf("without quiescence the pawn grab should look best, got %s", result.BestMove)
	}

	result := searchDepth(t, fen, DefaultOptions(), 1)
	if result.BestMove.String() == "d1d5" {
		t.Fatalf("with quiescence the queen should not take a defended pawn")
	}
	if result.Score < core.QueenValue/2 {
		t.Fatalf("score %d doesn't keep the queen", result.Score)
	}
}

// Whether the opponent can now take a rook for less than it's worth.
func rookHangs(board *core.Board) bool {
	var list core.MoveList
	board.GenLegalMoves(&list)
	for _, move := range list.Slice() {
		if move.Captured() == core.Rook && board.StaticExchange(move) > 0 {
			return true
		}
	}
	return false
}

func TestQuiescenceKeepsTheRook(t *testing.T) {
	tests := []struct {
		name      string
		fen       string
		blindMove string
	}{
		// Taking d5 loses the rook to the e6 pawn one ply later.
		{"pawn grab", "4k3/8/4p3/3p4/8/8/8/3RK3 w - - 0 1", "d1d5"},
		// The rook is attacked by the bishop and has to find a safe square.
		{"attacked rook", "4k3/8/8/8/3R4/8/1b6/4K3 w - - 0 1", ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.blindMove != "" {
				blind := DefaultOptions()
				blind.QuiescenceDepth = 0
				if result := searchDepth(t, test.fen, blind, 1); result.BestMove.String() != test.blindMove {
					t.Fatalf("without quiescence %s should look best, got %s", test.blindMove, result.BestMove)
				}
			}

			result := searchDepth(t, test.fen, DefaultOptions(), 1)
			board := mustBoard(t, test.fen)
			board.DoMove(result.BestMove)
			if rookHangs(board) {
				t.Fatalf("%s leaves the rook to be taken", result.BestMove)
			}
			if result.Score <= 0 {
				t.Fatalf("score %d doesn't keep the rook", result.Score)
			}
		})
	}
}

func TestSearchResultsAreLegalAndDeterministic(t *testing.T) {
	for _, fen := range []string{core.FENStartPosition, core.FENKiwiPete, "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1"} {
		first := searchDepth(t, fen, DefaultOptions(), 4)
		second := searchDepth(t, fen, DefaultOptions(), 4)
		if first.BestMove != second.BestMove || first.Score != second.Score || first.Nodes != second.Nodes {
			t.Fatalf("%s: two searches disagree: %+v vs %+v", fen, first, second)
		}
		if !isLegal(t, fen, first.BestMove) {
			t.Fatalf("%s: illegal best move %s", fen, first.BestMove)
		}
		if len(first.PV) == 0 || first.PV[0] != first.BestMove {
			t.Fatalf("%s: pv %v doesn't start with the best move", fen, first.PV)
		}

		// Every move of the pv is legal in turn.
		board := mustBoard(t, fen)
		for _, move := range first.PV {
			if !legalOn(board, move) {
				t.Fatalf("%s: pv move %s is illegal", fen, move)
			}
			board.DoMove(move)
		}
	}
}

// Random positions reached from a few openings, rebuilt from their FEN so
// no game history comes along.
func randomPositions(t *testing.T, seed string, n int) []*core.Board {
	t.Helper()
	var key [32]byte
	copy(key[:], seed)
	rng := frand.NewCustom(key[:], 1024, 12)

	starts := []string{core.FENStartPosition, core.FENKiwiPete, "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1"}
	var boards []*core.Board
	for len(boards) < n {
		board := mustBoard(t, starts[len(boards)%len(starts)])
		plies := 4 + rng.Intn(12)
		for ply := 0; ply < plies; ply++ {
			var list core.MoveList
			board.GenLegalMoves(&list)
			if list.Count == 0 {
				break
			}
			board.DoMove(list.Moves[rng.Intn(list.Count)])
		}
		var list core.MoveList
		board.GenLegalMoves(&list)
		if list.Count == 0 || board.IsDraw() {
			continue
		}
		boards = append(boards, mustBoard(t, board.FEN()))
	}
	return boards
}

func TestNegamaxColorSymmetry(t *testing.T) {
	if testing.Short() {
		t.Skip("slow")
	}
	for _, board := range randomPositions(t, "negamax-symmetry", 6) {
		fen := board.FEN()
		mirror := board.Mirror()
		s := newTestSearcher(t, board, ExhaustiveOptions())
		m := newTestSearcher(t, mirror, ExhaustiveOptions())

		for depth := 1; depth <= 4; depth++ {
			full, _ := s.Negamax(depth, -Infinity, Infinity)
			mirrored, _ := m.Negamax(depth, -Infinity, Infinity)
			if full != mirrored {
				t.Fatalf("%s depth %d: %d but the mirror scores %d", fen, depth, full, mirrored)
			}

			windows := [][2]int{{full - 50, full + 50}, {full - 1, full}, {full + 10, full + 200}}
			for _, w := range windows {
				alpha, beta := w[0], w[1]
				got, _ := s.Negamax(depth, alpha, beta)
				gotMirror, _ := m.Negamax(depth, alpha, beta)
				if got != gotMirror {
					t.Fatalf("%s depth %d window (%d, %d): %d but the mirror scores %d", fen, depth, alpha, beta, got, gotMirror)
				}
				if want := clamp(full, alpha, beta); got != want {
					t.Fatalf("%s depth %d window (%d, %d): got %d, want %d", fen, depth, alpha, beta, got, want)
				}
			}
		}
	}
}

// The score a reference search gives a root move.
func referenceScore(t *testing.T, fen string, move core.Move, depth int) int {
	t.Helper()
	board := mustBoard(t, fen)
	board.DoMove(move)
	child := mustBoard(t, board.FEN())

	var list core.MoveList
	child.GenLegalMoves(&list)
	if list.Count == 0 {
		if child.InCheck() {
			return -MatedIn(0)
		}
		return DrawScore
	}
	s := newTestSearcher(t, child, ExhaustiveOptions())
	score, _ := s.Negamax(depth, -Infinity, Infinity)
	return -score
}

func TestDeeperSearchesDontChooseWorseMoves(t *testing.T) {
	positions := []string{
		"4k3/8/8/3q4/8/8/3R4/4K3 w - - 0 1",
		"6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1",
		"k7/2P5/1K6/8/8/8/8/8 w - - 0 1",
	}
	for _, fen := range positions {
		previous := -Infinity
		for depth := 1; depth <= 4; depth++ {
			result := searchDepth(t, fen, DefaultOptions(), depth)
			score := referenceScore(t, fen, result.BestMove, 2)
			if score < previous {
				t.Fatalf("%s: depth %d chose %s scoring %d, worse than %d", fen, depth, result.BestMove, score, previous)
			}
			previous = score
		}
	}
}

// Counts calls to DoNullMove that break the rules for a null move.
type nullMoveWatcher struct {
	*core.Board
	afterNull  []bool
	nullMoves  int
	violations int
}

func (w *nullMoveWatcher) DoMove(move core.Move) {
	w.afterNull = append(w.afterNull, false)
	w.Board.DoMove(move)
}

func (w *nullMoveWatcher) UndoMove(move core.Move) {
	w.afterNull = w.afterNull[:len(w.afterNull)-1]
	w.Board.UndoMove(move)
}

func (w *nullMoveWatcher) DoNullMove() {
	w.nullMoves++
	if w.Board.InCheck() || (len(w.afterNull) > 0 && w.afterNull[len(w.afterNull)-1]) {
		w.violations++
	}
	w.afterNull = append(w.afterNull, true)
	w.Board.DoNullMove()
}

func (w *nullMoveWatcher) UndoNullMove() {
	w.afterNull = w.afterNull[:len(w.afterNull)-1]
	w.Board.UndoNullMove()
}

func TestSearchNeverNullMovesInCheck(t *testing.T) {
	fens := append(inCheckCorpus(t, 10), core.FENKiwiPete, "r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5Q2/PPPP1PPP/RNB1K1NR w KQkq - 2 3")
	total := 0
	for _, fen := range fens {
		watcher := &nullMoveWatcher{Board: mustBoard(t, fen)}
		s := newTestSearcher(t, watcher, DefaultOptions())
		if _, err := s.Search(context.Background(), Limits{Depth: 5}); err != nil {
			t.Fatal(err)
		}
		if watcher.violations != 0 {
			t.Fatalf("%s: %d null moves made in check or after a null move", fen, watcher.violations)
		}
		total += watcher.nullMoves
	}
	if total == 0 {
		t.Fatalf("no null moves tried at all")
	}
}

type moveGenCounter struct {
	*core.Board
	calls int
}

func (c *moveGenCounter) GenLegalMoves(list *core.MoveList) {
	c.calls++
	c.Board.GenLegalMoves(list)
}

func TestQuiescenceStandsPatBeforeGeneratingMoves(t *testing.T) {
	counter := &moveGenCounter{Board: mustBoard(t, "4k3/8/8/8/8/8/8/QQQ1K3 w - - 0 1")}
	s := newTestSearcher(t, counter, DefaultOptions())

	if score := s.Quiescence(-100, 100); score != 100 {
		t.Fatalf("quiescence = %d, want the beta bound", score)
	}
	if counter.calls != 0 {
		t.Fatalf("moves generated %d times at a node that stands pat", counter.calls)
	}

	// Below beta it has to look at the captures.
	eval := core.Evaluate(counter.Board)
	s.Quiescence(eval+10, eval+20)
	if counter.calls == 0 {
		t.Fatalf("no moves generated below beta")
	}
}

// Scores every position as even and counts how often it was asked.
type flatEvaluator struct {
	calls int
}

func (e *flatEvaluator) Evaluate(Position) int {
	e.calls++
	return 0
}

func TestSearchUsesTheGivenEvaluator(t *testing.T) {
	s := newTestSearcher(t, mustBoard(t, core.FENStartPosition), ExhaustiveOptions())
	eval := &flatEvaluator{}
	s.SetEvaluator(eval)

	result, err := s.Search(context.Background(), Limits{Depth: 3})
	if err != nil {
		t.Fatal(err)
	}
	if eval.calls == 0 {
		t.Fatalf("evaluator never called")
	}
	if result.Score != 0 {
		t.Fatalf("every leaf is even but the search scored %d", result.Score)
	}
	if !isLegal(t, core.FENStartPosition, result.BestMove) {
		t.Fatalf("illegal move %s", result.BestMove)
	}
}

func countKillers(o *MoveOrderer) int {
	n := 0
	for _, pair := range o.killers {
		for _, key := range pair {
			if key != 0 {
				n++
			}
		}
	}
	return n
}

func TestKillersLastAsLongAsTheRoot(t *testing.T) {
	// Only pawns and kings, so no move at the first ply can give check and a
	// depth 1 search records no killers of its own.
	const (
		first  = "4k3/pppppppp/8/8/8/8/PPPPPPPP/4K3 w - - 0 1"
		second = "3k4/pppppppp/8/8/8/8/PPPPPPPP/3K4 w - - 0 1"
	)
	s := newTestSearcher(t, mustBoard(t, first), DefaultOptions())

	deep, err := s.Search(context.Background(), Limits{Depth: 4})
	if err != nil {
		t.Fatal(err)
	}
	if countKillers(s.orderer) == 0 {
		t.Fatalf("no killers recorded by a depth 4 search")
	}
	killers := s.orderer.killers

	if _, err := s.Search(context.Background(), Limits{Depth: 1}); err != nil {
		t.Fatal(err)
	}
	if s.orderer.killers != killers {
		t.Fatalf("killers changed by another search of the same position")
	}

	s.SetPosition(mustBoard(t, second))
	result, err := s.Search(context.Background(), Limits{Depth: 1})
	if err != nil {
		t.Fatal(err)
	}
	if n := countKillers(s.orderer); n != 0 {
		t.Fatalf("%d killers survived a new root position", n)
	}
	if s.orderer.PVMove(0) != result.BestMove.Key() {
		t.Fatalf("pv hint at the root isn't the new best move")
	}
	for ply := 1; ply < len(deep.PV); ply++ {
		if move := s.orderer.PVMove(ply); move != 0 {
			t.Fatalf("pv hint %x at ply %d left over from the old position", move, ply)
		}
	}
}

func TestNoLegalMovesAtRoot(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want int
	}{
		{"checkmate", "7k/6Q1/6K1/8/8/8/8/8 b - - 0 1", MatedIn(0)},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", DrawScore},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := searchDepth(t, test.fen, DefaultOptions(), 3)
			if result.BestMove != core.NullMove || result.Score != test.want {
				t.Fatalf("got %s with score %d, want no move and %d", result.BestMove, result.Score, test.want)
			}
		})
	}
}

func TestExpiredBudgetStillCompletesDepthOne(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name   string
		ctx    context.Context
		limits Limits
	}{
		{"deadline", context.Background(), Limits{Time: time.Nanosecond}},
		{"cancelled context", cancelled, Limits{}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := newTestSearcher(t, mustBoard(t, core.FENKiwiPete), DefaultOptions())
			result, err := s.Search(test.ctx, test.limits)
			if err != nil {
				t.Fatal(err)
			}
			if result.Depth != 1 {
				t.Fatalf("searched to depth %d", result.Depth)
			}
			if !isLegal(t, core.FENKiwiPete, result.BestMove) {
				t.Fatalf("illegal move %s", result.BestMove)
			}
		})
	}
}

func TestStopKeepsLastCompletedDepth(t *testing.T) {
	s := newTestSearcher(t, mustBoard(t, core.FENStartPosition), DefaultOptions())
	var reported []int
	s.SetReporter(func(it Iteration) {
		reported = append(reported, it.Depth)
		if it.Depth == 3 {
			s.Stop()
		}
	})

	result, err := s.Search(context.Background(), Limits{Depth: 30})
	if err != nil {
		t.Fatal(err)
	}
	if result.Depth != 3 {
		t.Fatalf("result depth = %d, want 3", result.Depth)
	}
	if len(reported) != 3 || reported[0] != 1 || reported[2] != 3 {
		t.Fatalf("reported depths %v", reported)
	}

	// A stop request doesn't carry over into the next search.
	result, err = s.Search(context.Background(), Limits{Depth: 2})
	if err != nil {
		t.Fatal(err)
	}
	if result.Depth != 2 {
		t.Fatalf("second search stopped at depth %d", result.Depth)
	}
}

func TestInvalidOptionsAreRejected(t *testing.T) {
	board := mustBoard(t, core.FENStartPosition)

	bad := DefaultOptions()
	bad.HashSizeMB = 0
	if _, err := NewSearcher(board, bad); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("NewSearcher: expected ErrInvalidOptions, got %v", err)
	}

	s := newTestSearcher(t, board, DefaultOptions())
	bad = s.Options()
	bad.LMRReduction = 0
	if err := s.SetOptions(bad); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("SetOptions: expected ErrInvalidOptions, got %v", err)
	}
	if s.Options().LMRReduction != DefaultOptions().LMRReduction {
		t.Fatalf("rejected options replaced the old ones")
	}

	if _, err := s.Search(context.Background(), Limits{Depth: -1}); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("negative depth: expected ErrInvalidOptions, got %v", err)
	}

	before := s.tt.Len()
	good := s.Options()
	good.HashSizeMB = 2
	if err := s.SetOptions(good); err != nil {
		t.Fatal(err)
	}
	if s.tt.Len() != 2*before {
		t.Fatalf("table not resized: %d entries", s.tt.Len())
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name  string
		tweak func(*Options)
		ok    bool
	}{
		{"defaults", func(*Options) {}, true},
		{"exhaustive", func(o *Options) { *o = ExhaustiveOptions() }, true},
		{"no quiescence", func(o *Options) { o.QuiescenceDepth = 0 }, true},
		{"negative quiescence depth", func(o *Options) { o.QuiescenceDepth = -1 }, false},
		{"zero quiescence hash", func(o *Options) { o.QuiescenceHashSizeMB = 0 }, false},
		{"null move without reduction", func(o *Options) { o.NullMoveReduction = 0 }, false},
		{"null move off without reduction", func(o *Options) { o.NullMove = false; o.NullMoveReduction = 0 }, true},
		{"futility without margins", func(o *Options) { o.FutilityMargins = nil }, false},
		{"razoring without margins", func(o *Options) { o.RazorMargins = []int{0} }, false},
		{"negative delta margin", func(o *Options) { o.DeltaMargin = -5 }, false},
		{"lmr from the first move", func(o *Options) { o.LMRMinMoveIndex = 0 }, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			opts := DefaultOptions()
			test.tweak(&opts)
			err := opts.Validate()
			if test.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !test.ok && !errors.Is(err, ErrInvalidOptions) {
				t.Fatalf("expected ErrInvalidOptions, got %v", err)
			}
		})
	}
}

func TestPVLine(t *testing.T) {
	board := mustBoard(t, core.FENStartPosition)
	e4 := mustMove(t, board, "e2e4")
	board.DoMove(e4)
	e5 := mustMove(t, board, "e7e5")

	var child, pv PVLine
	child.Update(e5, PVLine{})
	pv.Update(e4, child)
	if pv.String() != "e2e4 e7e5" || pv.GetPVMove() != e4 {
		t.Fatalf("pv = %q", pv.String())
	}
	copied := pv.Copy()
	pv.Clear()
	if copied.String() != "e2e4 e7e5" || pv.GetPVMove() != core.NullMove {
		t.Fatalf("copy shares storage with the original")
	}
}
