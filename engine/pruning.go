package engine

import (
	"github.com/samber/lo"

	"bulwark/core"
)

// What the pruning decisions know about the node being searched.
type NodeState struct {
	Depth     int
	Ply       int
	MoveIndex int
	Alpha     int
	Beta      int

	InCheck     bool
	StaticEval  int
	PVNode      bool
	NullAllowed bool

	// Non-pawn material of the side to move and of its opponent.
	NonPawnMaterial         int
	OpponentNonPawnMaterial int
}

// Decides when the search may skip, reduce, or cut short work. Every
// decision is a pure function of the options, the node, and the move.
type PruningPolicy struct {
	opts *Options
}

func NewPruningPolicy(opts *Options) PruningPolicy {
	return PruningPolicy{opts: opts}
}

// Null move pruning is unsound in check, right after another null move, at
// PV nodes, and when the side to move has only pawns (zugzwang), and it
// can't prove a cutoff against a mate score.
func (p PruningPolicy) AllowNullMove(n *NodeState) bool {
	return p.opts.NullMove &&
		n.NullAllowed &&
		!n.InCheck &&
		!n.PVNode &&
		n.Depth >= p.opts.NullMoveMinDepth &&
		n.NonPawnMaterial > 0 &&
		!IsMateScore(n.Beta) &&
		n.StaticEval >= n.Beta
}

func (p PruningPolicy) NullMoveReduction(depth int) int {
	return p.opts.NullMoveReduction + depth/6
}

// Razoring drops straight into quiescence near the leaves when the static
// eval is so far below alpha that only tactics could save the node.
func (p PruningPolicy) ShouldRazor(n *NodeState) bool {
	return p.opts.Razoring &&
		!n.InCheck &&
		!n.PVNode &&
		n.Depth >= 1 && n.Depth < len(p.opts.RazorMargins) &&
		!IsMateScore(n.Alpha) &&
		n.StaticEval+p.opts.RazorMargins[n.Depth] < n.Alpha
}

// Futility pruning skips quiet moves near the leaves that can't raise the
// static eval up to alpha. The first move of a node is always searched.
func (p PruningPolicy) ShouldFutilityPrune(n *NodeState, move core.Move) bool {
	return p.opts.Futility &&
		!n.InCheck &&
		!n.PVNode &&
		n.MoveIndex > 0 &&
		n.Depth >= 1 && n.Depth < len(p.opts.FutilityMargins) &&
		move.IsQuiet() &&
		!move.GivesCheck() &&
		!IsMateScore(n.Alpha) &&
		n.StaticEval+p.opts.FutilityMargins[n.Depth] <= n.Alpha
}

// Delta pruning skips captures that can't raise the score to alpha even
// after winning the captured piece. It applies in quiescence (depth 0) and at
// non-PV frontier nodes (depth 1), and is off once the opponent is down to
// endgame material, where a single capture can decide the game.
func (p PruningPolicy) ShouldDeltaPrune(n *NodeState, move core.Move) bool {
	if n.Depth > 1 || (n.Depth == 1 && n.PVNode) {
		return false
	}
	return p.opts.DeltaPruning &&
		!n.InCheck &&
		move.IsCapture() &&
		!move.IsPromotion() &&
		!move.GivesCheck() &&
		!IsMateScore(n.Alpha) &&
		n.OpponentNonPawnMaterial > core.EndgameMaterial/2 &&
		n.StaticEval+move.CapturedValue()+p.opts.DeltaMargin <= n.Alpha
}

// How many plies to reduce a late quiet move by, or 0 to search it at full
// depth. The reduced depth is never below one ply.
func (p PruningPolicy) LMRReduction(n *NodeState, move core.Move, isKiller bool) int {
	if !p.opts.LMR ||
		n.Depth < p.opts.LMRMinDepth ||
		n.MoveIndex < p.opts.LMRMinMoveIndex ||
		n.InCheck ||
		!move.IsQuiet() ||
		move.GivesCheck() ||
		move.IsRecapture() ||
		isKiller {
		return 0
	}

	reduction := p.opts.LMRReduction
	if !n.PVNode && n.MoveIndex >= 2*p.opts.LMRMinMoveIndex {
		reduction++
	}
	return lo.Clamp(reduction, 0, n.Depth-2)
}
