package engine

import (
	"strings"

	"github.com/samber/lo"

	"bulwark/core"
)

// The principal variation: the line the search expects both sides to play.
// Each node builds its own line from the line of the child that raised
// alpha.
type PVLine struct {
	Moves []core.Move
}

func (pv *PVLine) Clear() {
	pv.Moves = pv.Moves[:0]
}

// Make the line the given move followed by the child's line.
func (pv *PVLine) Update(move core.Move, child PVLine) {
	pv.Clear()
	pv.Moves = append(pv.Moves, move)
	pv.Moves = append(pv.Moves, child.Moves...)
}

func (pv PVLine) GetPVMove() core.Move {
	if len(pv.Moves) == 0 {
		return core.NullMove
	}
	return pv.Moves[0]
}

func (pv PVLine) Copy() PVLine {
	return PVLine{Moves: append([]core.Move(nil), pv.Moves...)}
}

func (pv PVLine) String() string {
	return strings.Join(lo.Map(pv.Moves, func(move core.Move, _ int) string {
		return move.String()
	}), " ")
}
