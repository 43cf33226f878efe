package core

import (
	"math/bits"
)

// Ray directions. The first four increase the square index and the last
// four decrease it, which decides how the nearest blocker on a ray is found.
const (
	north = iota
	east
	northEast
	northWest
	south
	west
	southEast
	southWest
)

var (
	knightAttacks [64]uint64
	kingAttacks   [64]uint64
	pawnAttacks   [2][64]uint64
	rays          [8][64]uint64

	bishopDirections = [4]int{northEast, northWest, southEast, southWest}
	rookDirections   = [4]int{north, east, south, west}
)

func init() {
	// file and rank deltas for each ray direction
	deltas := [8][2]int{{0, 1}, {1, 0}, {1, 1}, {-1, 1}, {0, -1}, {-1, 0}, {1, -1}, {-1, -1}}
	knightJumps := [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}

	onBoard := func(file, rank int) bool { return file >= 0 && file < 8 && rank >= 0 && rank < 8 }

	for sq := 0; sq < 64; sq++ {
		file, rank := sq%8, sq/8
		for dir, delta := range deltas {
			f, r := file+delta[0], rank+delta[1]
			if onBoard(f, r) {
				kingAttacks[sq] |= 1 << (r*8 + f)
			}
			for onBoard(f, r) {
				rays[dir][sq] |= 1 << (r*8 + f)
				f, r = f+delta[0], r+delta[1]
			}
		}
		for _, jump := range knightJumps {
			if f, r := file+jump[0], rank+jump[1]; onBoard(f, r) {
				knightAttacks[sq] |= 1 << (r*8 + f)
			}
		}
		for _, df := range []int{-1, 1} {
			if onBoard(file+df, rank+1) {
				pawnAttacks[White][sq] |= 1 << ((rank+1)*8 + file + df)
			}
			if onBoard(file+df, rank-1) {
				pawnAttacks[Black][sq] |= 1 << ((rank-1)*8 + file + df)
			}
		}
	}
}

func slidingAttacks(sq int, occupied uint64, directions [4]int) (attacks uint64) {
	for _, dir := range directions {
		ray := rays[dir][sq]
		attacks |= ray
		if blockers := ray & occupied; blockers != 0 {
			var nearest int
			if dir < south {
				nearest = bits.TrailingZeros64(blockers)
			} else {
				nearest = 63 - bits.LeadingZeros64(blockers)
			}
			attacks &^= rays[dir][nearest]
		}
	}
	return attacks
}

func bishopAttacks(sq int, occupied uint64) uint64 {
	return slidingAttacks(sq, occupied, bishopDirections)
}

func rookAttacks(sq int, occupied uint64) uint64 {
	return slidingAttacks(sq, occupied, rookDirections)
}

func pieceAttacks(kind PieceKind, sq int, occupied uint64) uint64 {
	switch kind {
	case Knight:
		return knightAttacks[sq]
	case Bishop:
		return bishopAttacks(sq, occupied)
	case Rook:
		return rookAttacks(sq, occupied)
	case Queen:
		return bishopAttacks(sq, occupied) | rookAttacks(sq, occupied)
	case King:
		return kingAttacks[sq]
	default:
		return 0
	}
}

// Whether any piece of the given color attacks the square.
func (board *Board) squareAttacked(sq int, by Color) bool {
	occupied := board.occupied()
	if pawnAttacks[by.Other()][sq]&board.pieces(by, Pawn) != 0 {
		return true
	}
	if knightAttacks[sq]&board.pieces(by, Knight) != 0 {
		return true
	}
	if kingAttacks[sq]&board.pieces(by, King) != 0 {
		return true
	}
	queens := board.pieces(by, Queen)
	if diagonal := board.pieces(by, Bishop) | queens; diagonal != 0 && bishopAttacks(sq, occupied)&diagonal != 0 {
		return true
	}
	if straight := board.pieces(by, Rook) | queens; straight != 0 && rookAttacks(sq, occupied)&straight != 0 {
		return true
	}
	return false
}

// Every piece of either color attacking the square, given an occupancy that
// may have pieces removed from it.
func (board *Board) attackersTo(sq int, occupied uint64) uint64 {
	diagonal := board.KindBB[Bishop] | board.KindBB[Queen]
	straight := board.KindBB[Rook] | board.KindBB[Queen]
	attackers := pawnAttacks[Black][sq] & board.pieces(White, Pawn)
	attackers |= pawnAttacks[White][sq] & board.pieces(Black, Pawn)
	attackers |= knightAttacks[sq] & board.KindBB[Knight]
	attackers |= kingAttacks[sq] & board.KindBB[King]
	attackers |= bishopAttacks(sq, occupied) & diagonal
	attackers |= rookAttacks(sq, occupied) & straight
	return attackers & occupied
}

// Generate the legal moves of the position. Pseudo-legal moves are made and
// unmade to test them, which is also when the check and recapture flags are
// set.
func (board *Board) GenLegalMoves(list *MoveList) {
	list.Clear()

	var pseudo MoveList
	board.genPseudoMoves(&pseudo)

	us := board.Side
	previous := board.LastMove()
	for _, move := range pseudo.Slice() {
		board.DoMove(move)
		if !board.squareAttacked(board.kingSquare(us), us.Other()) {
			if board.InCheck() {
				move |= checkFlag
			}
			if move.IsCapture() && previous.IsCapture() && move.To() == previous.To() {
				move |= recaptureFlag
			}
			list.Add(move)
		}
		board.UndoMove(move)
	}
}

func (board *Board) genPseudoMoves(list *MoveList) {
	us, them := board.Side, board.Side.Other()
	own, enemy := board.ColorBB[us], board.ColorBB[them]
	occupied := own | enemy

	forward, startRank := 8, 1
	if us == Black {
		forward, startRank = -8, 6
	}

	pawns := board.pieces(us, Pawn)
	for pawns != 0 {
		from := popLSB(&pawns)
		if to := from + forward; board.Squares[to] == NoPiece {
			addPawnMove(list, from, to, NoKind)
			if from/8 == startRank && board.Squares[to+forward] == NoPiece {
				list.Add(NewMove(from, to+forward, Quiet, Pawn, NoKind))
			}
		}
		targets := pawnAttacks[us][from] & enemy
		for targets != 0 {
			to := popLSB(&targets)
			addPawnMove(list, from, to, board.Squares[to].Kind())
		}
		if board.EPSquare != NoSquare && pawnAttacks[us][from]&(1<<board.EPSquare) != 0 {
			list.Add(NewMove(from, board.EPSquare, EnPassant, Pawn, Pawn))
		}
	}

	for kind := Knight; kind <= King; kind++ {
		pieces := board.pieces(us, kind)
		for pieces != 0 {
			from := popLSB(&pieces)
			targets := pieceAttacks(kind, from, occupied) &^ own
			for targets != 0 {
				to := popLSB(&targets)
				captured := board.Squares[to].Kind()
				moveType := Quiet
				if captured != NoKind {
					moveType = Capture
				}
				list.Add(NewMove(from, to, moveType, kind, captured))
			}
		}
	}

	board.genCastles(list, occupied)
}

func addPawnMove(list *MoveList, from, to int, captured PieceKind) {
	if rank := to / 8; rank == 0 || rank == 7 {
		for _, promotion := range [4]MoveType{QueenPromotion, RookPromotion, BishopPromotion, KnightPromotion} {
			list.Add(NewMove(from, to, promotion, Pawn, captured))
		}
		return
	}
	moveType := Quiet
	if captured != NoKind {
		moveType = Capture
	}
	list.Add(NewMove(from, to, moveType, Pawn, captured))
}

// Castling requires the squares between king and rook to be empty and the
// king not to start on or pass through an attacked square. Landing on an
// attacked square is caught by the legality test.
func (board *Board) genCastles(list *MoveList, occupied uint64) {
	us, them := board.Side, board.Side.Other()
	kingside, queenside, home := WhiteKingside, WhiteQueenside, E1
	if us == Black {
		kingside, queenside, home = BlackKingside, BlackQueenside, E8
	}
	if board.CastlingRights&(kingside|queenside) == 0 || board.squareAttacked(home, them) {
		return
	}

	between := uint64(0b11) << (home + 1)
	if board.CastlingRights&kingside != 0 && occupied&between == 0 && !board.squareAttacked(home+1, them) {
		list.Add(NewMove(home, home+2, CastleKingside, King, NoKind))
	}
	between = uint64(0b111) << (home - 3)
	if board.CastlingRights&queenside != 0 && occupied&between == 0 && !board.squareAttacked(home-1, them) {
		list.Add(NewMove(home, home-2, CastleQueenside, King, NoKind))
	}
}

// Count the leaf nodes of the legal move tree to the given depth.
func (board *Board) Perft(depth int) uint64 {
	if depth == 0 {
		return 1
	}

	var list MoveList
	board.GenLegalMoves(&list)
	if depth == 1 {
		return uint64(list.Count)
	}

	var nodes uint64
	for _, move := range list.Slice() {
		board.DoMove(move)
		nodes += board.Perft(depth - 1)
		board.UndoMove(move)
	}
	return nodes
}

// Perft split by root move, keyed by the move in long algebraic notation.
func (board *Board) Divide(depth int) map[string]uint64 {
	counts := make(map[string]uint64)
	if depth < 1 {
		return counts
	}

	var list MoveList
	board.GenLegalMoves(&list)
	for _, move := range list.Slice() {
		board.DoMove(move)
		counts[move.String()] = board.Perft(depth - 1)
		board.UndoMove(move)
	}
	return counts
}
