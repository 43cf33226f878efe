package engine

import (
	"context"

	"bulwark/core"
)

// Run a quiescence search of the current position with no time limit.
func (s *Searcher) Quiescence(alpha, beta int) int {
	s.ctx = context.Background()
	s.enforceStop = false
	s.stopped = false
	return s.quiescenceOrEval(alpha, beta, 0)
}

// Search captures, promotions, and (for the first few plies) checks until
// the position is quiet, so the static evaluator is never asked to judge a
// position in the middle of an exchange. The side to move may stand pat on
// the static eval unless it's in check, in which case every evasion is
// searched. qdepth counts down to a hard floor where the static eval is
// returned; qply counts the plies spent in quiescence so far.
func (s *Searcher) quiescence(alpha, beta, ply, qdepth, qply int) int {
	if s.stopped {
		return 0
	}
	s.countNode()

	if ply >= MaxPly-1 {
		return clamp(s.evaluate(), alpha, beta)
	}

	key := s.pos.Hash()
	if s.opts.UseQuiescenceTT {
		if entry, ok := s.qtt.Probe(key, qdepth, ply); ok {
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

	inCheck := s.pos.InCheck()
	originalAlpha := alpha
	standPat := -Infinity
	if !inCheck {
		standPat = s.evaluate()
		if standPat >= beta {
			return beta
		}
		if qdepth == 0 {
			return clamp(standPat, alpha, beta)
		}
		if standPat > alpha {
			alpha = standPat
		}
	} else if qdepth == 0 {
		return clamp(s.evaluate(), alpha, beta)
	}

	list := &s.moveLists[ply]
	s.pos.GenLegalMoves(list)
	if list.Count == 0 {
		if inCheck {
			return clamp(MatedIn(ply), alpha, beta)
		}
		return clamp(DrawScore, originalAlpha, beta)
	}

	if !inCheck {
		searchChecks := qply < s.opts.QuiescenceCheckPlies
		list.Filter(func(move core.Move) bool {
			return move.IsCapture() || move.IsPromotion() || (searchChecks && move.GivesCheck())
		})
	}
	s.orderer.RankTactical(list, s.pos)

	us := s.pos.SideToMove()
	node := NodeState{
		Ply:                     ply,
		Beta:                    beta,
		InCheck:                 inCheck,
		StaticEval:              standPat,
		NonPawnMaterial:         s.pos.NonPawnMaterial(us),
		OpponentNonPawnMaterial: s.pos.NonPawnMaterial(us.Other()),
	}

	bestMove := core.NullMove
	bound := UpperBound
	for i := 0; i < list.Count; i++ {
		move := list.Moves[i]
		node.MoveIndex = i
		node.Alpha = alpha
		if s.policy.ShouldDeltaPrune(&node, move) {
			continue
		}

		s.pos.DoMove(move)
		score := -s.quiescence(-beta, -alpha, ply+1, qdepth-1, qply+1)
		s.pos.UndoMove(move)

		if s.stopped {
			return 0
		}
		if score >= beta {
			if s.opts.UseQuiescenceTT {
				s.qtt.Store(key, qdepth, ply, beta, LowerBound, move.Key())
			}
			return beta
		}
		if score > alpha {
			alpha = score
			bestMove = move
			bound = Exact
		}
	}

	if s.opts.UseQuiescenceTT {
		s.qtt.Store(key, qdepth, ply, alpha, bound, bestMove.Key())
	}
	return alpha
}
