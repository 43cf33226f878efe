package core

import (
	"math/bits"
)

// Values used when exchanging pieces. The king is given a value high enough
// that trading it away is never worth it.
var seeValues = [7]int{0, PawnValue, KnightValue, BishopValue, RookValue, QueenValue, 20000}

// Static exchange evaluation: the material balance, from the mover's point
// of view, of the sequence of captures on the move's destination square when
// each side always recaptures with its least valuable attacker and may stop
// whenever continuing would lose material.
func (board *Board) StaticExchange(move Move) int {
	if move.IsCastle() {
		return 0
	}

	from, to := move.From(), move.To()
	occupied := board.occupied() ^ (1 << from)

	var gain [32]int
	gain[0] = seeValues[move.Captured()]
	attacker := move.Moved()
	if move.IsPromotion() {
		attacker = move.Promotion()
		gain[0] += seeValues[attacker] - PawnValue
	}
	if move.Type() == EnPassant {
		captureSq := to - 8
		if board.Side == Black {
			captureSq = to + 8
		}
		occupied ^= 1 << captureSq
	}

	side := board.Side.Other()
	depth := 0
	for {
		depth++
		gain[depth] = seeValues[attacker] - gain[depth-1]
		if depth == len(gain)-1 {
			break
		}

		attackers := board.attackersTo(to, occupied) & board.ColorBB[side]
		if attackers == 0 {
			break
		}
		sq, kind := board.leastValuableAttacker(attackers)
		occupied ^= 1 << sq
		attacker = kind
		side = side.Other()
	}

	for depth--; depth > 0; depth-- {
		gain[depth-1] = -max(-gain[depth-1], gain[depth])
	}
	return gain[0]
}

func (board *Board) leastValuableAttacker(attackers uint64) (int, PieceKind) {
	for kind := Pawn; kind <= King; kind++ {
		if bb := attackers & board.KindBB[kind]; bb != 0 {
			return bits.TrailingZeros64(bb), kind
		}
	}
	return NoSquare, NoKind
}
