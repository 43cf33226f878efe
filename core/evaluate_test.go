package core

import "testing"

func TestEvaluateStartPositionIsBalanced(t *testing.T) {
	if score := Evaluate(mustBoard(t, FENStartPosition)); score != 0 {
		t.Fatalf("start position should evaluate to 0, got %d", score)
	}
}

func TestEvaluateMirrorSymmetry(t *testing.T) {
	for _, fen := range testFENs {
		board := mustBoard(t, fen)
		mirrored := board.Mirror()
		if got, want := Evaluate(mirrored), Evaluate(board); got != want {
			t.Errorf("%s: mirrored eval %d, original %d", fen, got, want)
		}
	}
}

func TestEvaluateIsSideRelative(t *testing.T) {
	white := mustBoard(t, "4k3/8/8/8/8/8/8/3QK3 w - - 0 1")
	black := mustBoard(t, "4k3/8/8/8/8/8/8/3QK3 b - - 0 1")
	if Evaluate(white) <= 0 {
		t.Fatalf("white to move with an extra queen should be ahead, got %d", Evaluate(white))
	}
	if Evaluate(white) != -Evaluate(black) {
		t.Fatalf("eval should flip sign with the side to move: %d vs %d", Evaluate(white), Evaluate(black))
	}
}

func TestKingSafetyPenalizesCrowding(t *testing.T) {
	crowded := mustBoard(t, "4k3/3Q4/8/8/8/8/8/4K3 b - - 0 1")
	distant := mustBoard(t, "4k3/8/8/8/8/8/Q7/4K3 b - - 0 1")
	if Evaluate(crowded) >= Evaluate(distant) {
		t.Fatalf("a queen next to the king should be worse for black: crowded %d distant %d",
			Evaluate(crowded), Evaluate(distant))
	}
}
