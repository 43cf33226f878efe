package engine

import (
	"slices"
	"testing"

	"bulwark/core"
)

func mustBoard(t *testing.T, fen string) *core.Board {
	t.Helper()
	board, err := core.NewBoard(fen)
	if err != nil {
		t.Fatalf("%s: %v", fen, err)
	}
	return board
}

func mustMove(t *testing.T, board *core.Board, moveAsString string) core.Move {
	t.Helper()
	move, err := core.ParseMove(board, moveAsString)
	if err != nil {
		t.Fatalf("%s: %v", moveAsString, err)
	}
	return move
}

func rankedMoves(list *core.MoveList) []string {
	moves := make([]string, list.Count)
	for i := 0; i < list.Count; i++ {
		moves[i] = list.Moves[i].String()
	}
	return moves
}

const orderingFEN = "4k3/1P6/4p3/3p4/4P3/8/8/3QK2R w K - 0 1"

func TestRankBands(t *testing.T) {
	board := mustBoard(t, orderingFEN)
	orderer := NewMoveOrderer()

	killer := mustMove(t, board, "h1g1")
	orderer.RecordCutoff(killer, core.White, 0, 1)
	hashMove := mustMove(t, board, "d1d3")

	var list core.MoveList
	board.GenLegalMoves(&list)
	orderer.Rank(&list, board, 0, hashMove.Key(), false)
	got := rankedMoves(&list)

	want := []string{"d1d3", "e4d5", "b7b8q", "b7b8r", "b7b8b", "b7b8n", "h1g1"}
	if !slices.Equal(got[:len(want)], want) {
		t.Fatalf("ranked moves start with %v, want %v", got[:len(want)], want)
	}
	if got[len(want)] != "d1d5" {
		t.Fatalf("the losing capture should follow the killers, got %v", got)
	}
	for i := 1; i < list.Count; i++ {
		if list.Scores[i-1] < list.Scores[i] {
			t.Fatalf("scores not sorted at %d: %v", i, list.Scores[:list.Count])
		}
	}
}

func TestRankPrefersPVMoveOnPV(t *testing.T) {
	board := mustBoard(t, orderingFEN)
	orderer := NewMoveOrderer()
	pvMove := mustMove(t, board, "e1f2")
	hashMove := mustMove(t, board, "d1d3")
	orderer.RecordPV(0, pvMove)

	var list core.MoveList
	board.GenLegalMoves(&list)
	orderer.Rank(&list, board, 0, hashMove.Key(), true)
	if got := rankedMoves(&list)[:2]; !slices.Equal(got, []string{"e1f2", "d1d3"}) {
		t.Fatalf("on the PV: got %v", got)
	}

	board.GenLegalMoves(&list)
	orderer.Rank(&list, board, 0, hashMove.Key(), false)
	if got := rankedMoves(&list)[0]; got != "d1d3" {
		t.Fatalf("off the PV the hash move goes first, got %s", got)
	}
}

func TestRankIsDeterministic(t *testing.T) {
	for _, fen := range []string{core.FENStartPosition, core.FENKiwiPete, orderingFEN} {
		board := mustBoard(t, fen)
		orderer := NewMoveOrderer()

		var first, second core.MoveList
		board.GenLegalMoves(&first)
		board.GenLegalMoves(&second)
		orderer.Rank(&first, board, 3, 0, false)
		orderer.Rank(&second, board, 3, 0, false)
		if !slices.Equal(first.Slice(), second.Slice()) {
			t.Fatalf("%s: two rankings of the same list differ", fen)
		}

		// Quiet moves without history keep generation order.
		var generated core.MoveList
		board.GenLegalMoves(&generated)
		quiet := func(list *core.MoveList) []core.Move {
			var moves []core.Move
			for _, move := range list.Slice() {
				if move.IsQuiet() {
					moves = append(moves, move)
				}
			}
			return moves
		}
		if !slices.Equal(quiet(&first), quiet(&generated)) {
			t.Fatalf("%s: equal scores did not keep generation order", fen)
		}
	}
}

func TestRankTacticalOrdersChecksAfterPromotions(t *testing.T) {
	board := mustBoard(t, "4k3/1P6/8/8/8/8/8/R3K3 w - - 0 1")
	var list core.MoveList
	board.GenLegalMoves(&list)
	list.Filter(func(move core.Move) bool {
		return move.IsCapture() || move.IsPromotion() || move.GivesCheck()
	})
	NewMoveOrderer().RankTactical(&list, board)

	got := rankedMoves(&list)
	if got[0] != "b7b8q" {
		t.Fatalf("expected queen promotion first, got %v", got)
	}
	checkIndex := slices.Index(got, "a1a8")
	if checkIndex < 0 {
		t.Fatalf("rook check missing from %v", got)
	}
	for _, move := range got[checkIndex:] {
		if len(move) == 5 {
			t.Fatalf("promotion %s ranked after a check in %v", move, got)
		}
	}
}

func TestRecordCutoff(t *testing.T) {
	board := mustBoard(t, orderingFEN)
	orderer := NewMoveOrderer()
	first := mustMove(t, board, "h1g1")
	second := mustMove(t, board, "e1f1")
	capture := mustMove(t, board, "e4d5")

	orderer.RecordCutoff(capture, core.White, 4, 3)
	if orderer.IsKiller(4, capture) {
		t.Fatalf("captures must not become killers")
	}

	orderer.RecordCutoff(first, core.White, 4, 3)
	orderer.RecordCutoff(first, core.White, 4, 3)
	orderer.RecordCutoff(second, core.White, 4, 3)
	if !orderer.IsKiller(4, first) || !orderer.IsKiller(4, second) {
		t.Fatalf("both killers should be remembered")
	}
	if orderer.killers[4][0] != second.Key() || orderer.killers[4][1] != first.Key() {
		t.Fatalf("the newest killer goes first: %v", orderer.killers[4])
	}
	if orderer.IsKiller(5, first) {
		t.Fatalf("killers are per ply")
	}
	if h := orderer.history[core.White][core.Rook][core.G1]; h != 18 {
		t.Fatalf("history = %d, want 2*depth^2 = 18", h)
	}

	orderer.AgeHistory()
	if h := orderer.history[core.White][core.Rook][core.G1]; h != 9 {
		t.Fatalf("aged history = %d, want 9", h)
	}

	orderer.Clear()
	if orderer.IsKiller(4, first) || orderer.history[core.White][core.Rook][core.G1] != 0 {
		t.Fatalf("Clear left state behind")
	}
}

func TestHistoryStaysBelowBadCaptures(t *testing.T) {
	board := mustBoard(t, orderingFEN)
	orderer := NewMoveOrderer()
	move := mustMove(t, board, "h1g1")
	for i := 0; i < 1000; i++ {
		orderer.RecordCutoff(move, core.White, 10, MaxPly-1)
	}
	if h := orderer.history[core.White][core.Rook][core.G1]; h > HistoryCeiling {
		t.Fatalf("history %d passed the ceiling", h)
	}
}
