package engine

const (
	// Larger than any score the search can return.
	Infinity = 50000

	// The score of giving mate right now. Mate found n plies from the
	// root scores MateScore-n, and being mated scores -(MateScore-n).
	MateScore = 49000

	// The deepest ply the search will visit.
	MaxPly = 128

	// Scores at or beyond this magnitude are mate scores.
	MateBound = MateScore - MaxPly

	DrawScore = 0
)

func IsMateScore(score int) bool {
	return score >= MateBound || score <= -MateBound
}

// The score of mating the opponent ply plies from the root.
func MateIn(ply int) int { return MateScore - ply }

// The score of being mated ply plies from the root.
func MatedIn(ply int) int { return -MateScore + ply }

// The number of full moves to the mate a mate score stands for, negative
// when the side to move is the one getting mated.
func MateDistance(score int) int {
	if score > 0 {
		return (MateScore - score + 1) / 2
	}
	return -(MateScore + score) / 2
}

// Fail-hard: keep a score inside the window.
func clamp(score, alpha, beta int) int {
	if score <= alpha {
		return alpha
	}
	if score >= beta {
		return beta
	}
	return score
}
