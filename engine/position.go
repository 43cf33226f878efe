package engine

import "bulwark/core"

// The board the search works on. Moves are made and unmade in place; the
// search never copies a position.
type Position interface {
	// Read by the evaluator.
	core.BoardView

	GenLegalMoves(list *core.MoveList)
	DoMove(move core.Move)
	UndoMove(move core.Move)
	DoNullMove()
	UndoNullMove()

	InCheck() bool
	IsDraw() bool
	Hash() uint64
	NonPawnMaterial(color core.Color) int
	StaticExchange(move core.Move) int
}

// Scores a position from the point of view of the side to move. A position
// and its color-flipped mirror must get the same score, and scores must
// stay well inside (-MateBound, MateBound).
type Evaluator interface {
	Evaluate(pos Position) int
}

// The material, piece-square, and king safety evaluation of package core.
type StaticEvaluator struct{}

func (StaticEvaluator) Evaluate(pos Position) int {
	return core.Evaluate(pos)
}

var _ Position = (*core.Board)(nil)
