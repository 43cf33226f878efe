package engine

import (
	"context"

	"bulwark/core"
)

// Run a single fixed-depth search of the current position with the given
// window and no time limit. Killers and history from earlier searches are
// used, but the principal variation of earlier searches is not followed.
func (s *Searcher) Negamax(depth, alpha, beta int) (int, PVLine) {
	s.ctx = context.Background()
	s.enforceStop = false
	s.stopped = false
	s.nodes = 0

	var pv PVLine
	score := s.negamax(depth, 0, alpha, beta, false, false, &pv)
	return score, pv
}

// The main alpha-beta search. Scores are from the point of view of the side
// to move, and are always kept inside [alpha, beta]. When the search is
// stopped the returned score is meaningless and nothing is stored.
func (s *Searcher) negamax(depth, ply, alpha, beta int, nullAllowed, onPV bool, pv *PVLine) int {
	pv.Clear()
	if s.stopped {
		return 0
	}
	s.countNode()

	isRoot := ply == 0
	pvNode := beta-alpha > 1

	if !isRoot {
		if s.pos.IsDraw() {
			return clamp(DrawScore, alpha, beta)
		}
		if ply >= MaxPly-1 {
			return clamp(s.evaluate(), alpha, beta)
		}

		// Mate distance pruning: no line from here can do better than
		// mating next move, or worse than being mated right now.
		alpha = max(alpha, MatedIn(ply))
		beta = min(beta, MateIn(ply+1))
		if alpha >= beta {
			return alpha
		}
	}

	key := s.pos.Hash()
	hashMove := uint16(0)
	if s.opts.UseTT {
		if entry, ok := s.tt.Lookup(key, ply); ok {
			hashMove = entry.Move
			if !isRoot && entry.Depth >= depth {
				switch {
				case entry.Bound == Exact:
					return clamp(entry.Score, alpha, beta)
				case entry.Bound == LowerBound && entry.Score >= beta:
					return beta
				case entry.Bound == UpperBound && entry.Score <= alpha:
					return alpha
				}
			}
		}
	}

	inCheck := s.pos.InCheck()
	if inCheck && !isRoot {
		depth++
	}

	if depth <= 0 {
		return s.quiescenceOrEval(alpha, beta, ply)
	}

	staticEval := -Infinity
	if !inCheck {
		staticEval = s.evaluate()
	}
	us := s.pos.SideToMove()
	node := NodeState{
		Depth:                   depth,
		Ply:                     ply,
		Alpha:                   alpha,
		Beta:                    beta,
		InCheck:                 inCheck,
		StaticEval:              staticEval,
		PVNode:                  pvNode,
		NullAllowed:             nullAllowed,
		NonPawnMaterial:         s.pos.NonPawnMaterial(us),
		OpponentNonPawnMaterial: s.pos.NonPawnMaterial(us.Other()),
	}

	if !isRoot && s.policy.ShouldRazor(&node) {
		score := s.quiescenceOrEval(alpha, alpha+1, ply)
		if s.stopped {
			return 0
		}
		if score <= alpha {
			return alpha
		}
	}

	if !isRoot && s.policy.AllowNullMove(&node) &&
		invariant(!inCheck, "null move while in check") &&
		invariant(nullAllowed, "null move right after a null move") {
		reduction := s.policy.NullMoveReduction(depth)
		s.pos.DoNullMove()
		var childPV PVLine
		score := -s.negamax(depth-1-reduction, ply+1, -beta, -beta+1, false, false, &childPV)
		s.pos.UndoNullMove()
		if s.stopped {
			return 0
		}
		if score >= beta {
			return beta
		}
	}

	list := &s.moveLists[ply]
	s.pos.GenLegalMoves(list)
	if list.Count == 0 {
		if inCheck {
			return clamp(MatedIn(ply), alpha, beta)
		}
		return clamp(DrawScore, alpha, beta)
	}
	s.orderer.Rank(list, s.pos, ply, hashMove, onPV)

	bestMove := core.NullMove
	bound := UpperBound
	var childPV PVLine

	for i := 0; i < list.Count; i++ {
		move := list.Moves[i]
		if ply <= 2 {
			if s.pollStop(); s.stopped {
				return 0
			}
		}

		node.MoveIndex = i
		node.Alpha = alpha
		if s.policy.ShouldFutilityPrune(&node, move) &&
			invariant(move.IsQuiet() && !move.GivesCheck(), "futility pruning a tactical move") {
			continue
		}
		if s.policy.ShouldDeltaPrune(&node, move) {
			continue
		}

		childOnPV := onPV && move.Key() == s.orderer.PVMove(ply)
		reduction := s.policy.LMRReduction(&node, move, s.orderer.IsKiller(ply, move))

		s.pos.DoMove(move)
		var score int
		if reduction > 0 {
			score = -s.negamax(depth-1-reduction, ply+1, -alpha-1, -alpha, true, false, &childPV)
			if score > alpha && !s.stopped {
				score = -s.negamax(depth-1, ply+1, -beta, -alpha, true, childOnPV, &childPV)
			}
		} else {
			score = -s.negamax(depth-1, ply+1, -beta, -alpha, true, childOnPV, &childPV)
		}
		s.pos.UndoMove(move)

		if s.stopped {
			return 0
		}

		if score >= beta {
			s.orderer.RecordCutoff(move, us, ply, depth)
			if s.opts.UseTT {
				s.tt.Store(key, depth, ply, beta, LowerBound, move.Key())
			}
			return beta
		}
		if score > alpha {
			alpha = score
			bestMove = move
			bound = Exact
			pv.Update(move, childPV)
		}
	}

	if s.opts.UseTT {
		s.tt.Store(key, depth, ply, alpha, bound, bestMove.Key())
	}
	return alpha
}

func (s *Searcher) quiescenceOrEval(alpha, beta, ply int) int {
	if s.opts.QuiescenceDepth == 0 {
		return clamp(s.evaluate(), alpha, beta)
	}
	return s.quiescence(alpha, beta, ply, s.opts.QuiescenceDepth, 0)
}
