package core

const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 975

	// Total non-pawn material, both sides counted, at and under which the
	// king uses its endgame table.
	EndgameMaterial = 2*RookValue + 2*BishopValue
)

// Piece values indexed by kind. The king has no material value.
var PieceValues = [7]int{0, PawnValue, KnightValue, BishopValue, RookValue, QueenValue, 0}

// Piece square tables indexed by piece kind, then square. They're written
// from white's point of view with the eighth rank first, so a white piece
// on square sq reads entry sq^56 and a black piece reads entry sq.
var PieceSquareTables = [7][64]int{
	{},

	// Piece-square table for pawns
	{
		0, 0, 0, 0, 0, 0, 0, 0,
		50, 50, 50, 50, 50, 50, 50, 50,
		25, 25, 25, 30, 30, 25, 25, 25,
		5, 5, 10, 20, 20, 10, 5, 5,
		-5, -2, 3, 15, 15, 3, -2, -5,
		-5, 2, 5, 5, 5, 5, 2, -5,
		0, 0, 0, -10, -10, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
	},

	// Piece-square table for knights
	{
		-15, -15, -15, -15, -15, -15, -15, -15,
		-2, -2, -2, -2, -2, -2, -2, -2,
		-5, 0, 2, 2, 2, 2, 0, -5,
		-5, 0, 15, 25, 25, 15, 0, -5,
		-5, 0, 15, 25, 25, 15, 0, -5,
		-5, 0, 25, 25, 25, 25, 0, -5,
		-2, -2, -2, -2, -2, -2, -2, -2,
		-15, -15, -15, -15, -15, -15, -15, -15,
	},

	// Piece-square table for bishops
	{
		0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
		2, 5, 5, 0, 0, 5, 5, 2,
		2, 15, 5, 0, 0, 5, 15, 2,
		2, -5, -25, 0, 0, -25, -5, 2,
	},

	// Piece-square table for rooks, which like the seventh rank
	{
		0, 0, 0, 0, 0, 0, 0, 0,
		10, 10, 10, 10, 10, 10, 10, 10,
		0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 5, 5, 0, 0, 0,
	},

	// Queens aren't given a positional preference
	{},

	// Piece square table for kings in the middle game. The endgame table
	// is kept separately below.
	{
		-75, -75, -75, -75, -75, -75, -75, -75,
		-75, -75, -75, -75, -75, -75, -75, -75,
		-75, -75, -75, -75, -75, -75, -75, -75,
		-75, -75, -75, -75, -75, -75, -75, -75,
		-75, -75, -75, -75, -75, -75, -75, -75,
		-75, -75, -75, -75, -75, -75, -75, -75,
		25, 25, -10, -50, -50, -10, 25, 25,
		75, 50, 0, 0, 0, 0, 50, 75,
	},
}

// Piece square table for kings in the endgame
var KingEndgameTable = [64]int{
	-10, -10, -10, -10, -10, -10, -10, -10,
	-10, -5, -5, -5, -5, -5, -5, -10,
	-10, 2, 5, 5, 5, 5, 2, -10,
	-10, 2, 5, 25, 25, 5, 2, -10,
	-10, 2, 5, 25, 25, 5, 2, -10,
	-10, 2, 5, 5, 5, 5, 2, -10,
	-10, -5, -5, -5, -5, -5, -5, -10,
	-10, -10, -10, -10, -10, -10, -10, -10,
}

// Values for enemy pieces that crowd a king, indexed by piece kind.
var piecesAroundKingValues = [7]int{0, 8, 12, 12, 16, 88, 4}

// What the evaluator needs to know about a position.
type BoardView interface {
	PieceAt(sq int) Piece
	SideToMove() Color
}

// Evaluate a position from the point of view of the side to move. The
// score is material, piece placement, and king safety; a position and its
// color-flipped mirror always get the same score.
func Evaluate(view BoardView) int {
	var (
		score       [2]int
		kingSquares [2]int
		nonPawn     int
	)

	for sq := 0; sq < 64; sq++ {
		piece := view.PieceAt(sq)
		if piece == NoPiece {
			continue
		}
		color, kind := piece.Color(), piece.Kind()
		if kind == King {
			kingSquares[color] = sq
			continue
		}
		if kind != Pawn {
			nonPawn += PieceValues[kind]
		}
		score[color] += PieceValues[kind] + PieceSquareTables[kind][pstIndex(color, sq)]
	}

	endgame := nonPawn <= EndgameMaterial
	for _, color := range []Color{White, Black} {
		index := pstIndex(color, kingSquares[color])
		if endgame {
			score[color] += KingEndgameTable[index]
		} else {
			score[color] += PieceSquareTables[King][index]
		}
		score[color] += evaluateKingSafety(view, color, kingSquares[color])
	}

	us := view.SideToMove()
	return score[us] - score[us.Other()]
}

func pstIndex(color Color, sq int) int {
	if color == White {
		return sq ^ 56
	}
	return sq
}

// Evaluate the saftey of the king by looking at what kind of enemy pieces
// surround it. The more dangerous the crowd, the bigger the penalty.
func evaluateKingSafety(view BoardView, color Color, kingSq int) (score int) {
	around := kingAttacks[kingSq]
	for around != 0 {
		sq := popLSB(&around)
		if piece := view.PieceAt(sq); piece != NoPiece && piece.Color() != color {
			score -= piecesAroundKingValues[piece.Kind()]
		}
	}
	return score
}
