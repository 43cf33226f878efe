package core

import (
	"math/bits"
)

type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Other() Color { return c ^ 1 }

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

type PieceKind uint8

const (
	NoKind PieceKind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

// A piece is its kind in the low three bits and its color in the fourth,
// so NoPiece is the zero value.
type Piece uint8

const NoPiece Piece = 0

func MakePiece(color Color, kind PieceKind) Piece {
	return Piece(uint8(color)<<3 | uint8(kind))
}

func (p Piece) Kind() PieceKind { return PieceKind(p & 0x7) }
func (p Piece) Color() Color    { return Color(p >> 3) }

// Square indexes, a1 = 0 through h8 = 63.
const (
	A1 = iota
	B1
	C1
	D1
	E1
	F1
	G1
	H1
)

const (
	A8 = iota + 56
	B8
	C8
	D8
	E8
	F8
	G8
	H8
)

const (
	// A different bit for each of the four castling rights.
	WhiteKingside uint8 = 1 << iota
	WhiteQueenside
	BlackKingside
	BlackQueenside

	// Constant representing no en passant square
	NoSquare = -1

	// Starting FEN position
	FENStartPosition = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

	// A FEN position called kiwipete. It's a particular
	// tricky position for chess move generators and serves
	// as a good test for the move generator.
	FENKiwiPete = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
)

// Castling rights that survive a move touching a given square.
var castleMask [64]uint8

func init() {
	for sq := range castleMask {
		castleMask[sq] = 0xf
	}
	castleMask[E1] &^= WhiteKingside | WhiteQueenside
	castleMask[H1] &^= WhiteKingside
	castleMask[A1] &^= WhiteQueenside
	castleMask[E8] &^= BlackKingside | BlackQueenside
	castleMask[H8] &^= BlackKingside
	castleMask[A8] &^= BlackQueenside
}

// The state that can't be recovered from a move alone, saved before the
// move is made so it can be unmade.
type UndoInfo struct {
	Move           Move
	Captured       Piece
	CastlingRights uint8
	EPSquare       int
	HalfMoveClock  int
	Hash           uint64
}

// The primary internal representation of the board. It's a hybrid of
// bitboards, used for attack detection and move generation, and a mailbox,
// used for quick lookups of what stands on a square.
type Board struct {
	Squares [64]Piece
	KindBB  [7]uint64
	ColorBB [2]uint64

	Side           Color
	EPSquare       int
	CastlingRights uint8

	// Plies since the last capture or pawn move, for the fifty-move rule.
	HalfMoveClock   int
	FullMoveCounter int

	// Zobrist key, updated incrementally as moves are made and restored
	// from the undo stack when they're unmade.
	key uint64

	undoStack []UndoInfo

	// Keys of every position before the current one, for repetition
	// detection.
	history []uint64
}

// Create a board from a FEN string.
func NewBoard(fen string) (*Board, error) {
	board := &Board{}
	if err := board.LoadFEN(fen); err != nil {
		return nil, err
	}
	return board, nil
}

func (board *Board) Hash() uint64         { return board.key }
func (board *Board) SideToMove() Color    { return board.Side }
func (board *Board) PieceAt(sq int) Piece { return board.Squares[sq] }
func (board *Board) occupied() uint64     { return board.ColorBB[White] | board.ColorBB[Black] }
func (board *Board) pieces(c Color, k PieceKind) uint64 {
	return board.ColorBB[c] & board.KindBB[k]
}

func (board *Board) kingSquare(c Color) int {
	return bits.TrailingZeros64(board.pieces(c, King))
}

// The last move made on the board, or NullMove if there is none (or it was
// a null move).
func (board *Board) LastMove() Move {
	if len(board.undoStack) == 0 {
		return NullMove
	}
	return board.undoStack[len(board.undoStack)-1].Move
}

func (board *Board) putPiece(piece Piece, sq int) {
	bb := uint64(1) << sq
	board.Squares[sq] = piece
	board.KindBB[piece.Kind()] |= bb
	board.ColorBB[piece.Color()] |= bb
	board.key ^= pieceKeys[piece][sq]
}

func (board *Board) removePiece(sq int) Piece {
	piece := board.Squares[sq]
	bb := uint64(1) << sq
	board.Squares[sq] = NoPiece
	board.KindBB[piece.Kind()] &^= bb
	board.ColorBB[piece.Color()] &^= bb
	board.key ^= pieceKeys[piece][sq]
	return piece
}

func (board *Board) movePiece(from, to int) {
	board.putPiece(board.removePiece(from), to)
}

// Make a move on the board. The move must be legal in the current position.
func (board *Board) DoMove(move Move) {
	from, to := move.From(), move.To()
	us := board.Side

	undoInfo := UndoInfo{
		Move:           move,
		CastlingRights: board.CastlingRights,
		EPSquare:       board.EPSquare,
		HalfMoveClock:  board.HalfMoveClock,
		Hash:           board.key,
	}
	board.history = append(board.history, board.key)

	// Remove the current en passant square if any
	if board.EPSquare != NoSquare {
		board.key ^= epKeys[board.EPSquare%8]
		board.EPSquare = NoSquare
	}

	moving := board.Squares[from]
	switch move.Type() {
	case EnPassant:
		captureSq := to - 8
		if us == Black {
			captureSq = to + 8
		}
		undoInfo.Captured = board.removePiece(captureSq)
		board.movePiece(from, to)
	case CastleKingside:
		board.movePiece(from, to)
		board.movePiece(from+3, from+1)
	case CastleQueenside:
		board.movePiece(from, to)
		board.movePiece(from-4, from-1)
	case KnightPromotion, BishopPromotion, RookPromotion, QueenPromotion:
		if board.Squares[to] != NoPiece {
			undoInfo.Captured = board.removePiece(to)
		}
		board.removePiece(from)
		board.putPiece(MakePiece(us, move.Promotion()), to)
	default:
		if board.Squares[to] != NoPiece {
			undoInfo.Captured = board.removePiece(to)
		}
		board.movePiece(from, to)
	}

	board.HalfMoveClock++
	if moving.Kind() == Pawn || undoInfo.Captured != NoPiece {
		board.HalfMoveClock = 0
	}

	// Only record an en passant square when an enemy pawn can actually
	// capture on it, so transpositions hash the same.
	if moving.Kind() == Pawn && abs(to-from) == 16 {
		epSquare := (from + to) / 2
		if pawnAttacks[us][epSquare]&board.pieces(us.Other(), Pawn) != 0 {
			board.EPSquare = epSquare
			board.key ^= epKeys[epSquare%8]
		}
	}

	if rights := board.CastlingRights & castleMask[from] & castleMask[to]; rights != board.CastlingRights {
		board.key ^= castleKeys[board.CastlingRights] ^ castleKeys[rights]
		board.CastlingRights = rights
	}

	if us == Black {
		board.FullMoveCounter++
	}
	board.Side = us.Other()
	board.key ^= sideKey
	board.undoStack = append(board.undoStack, undoInfo)
}

// Unmake the last move made on the board.
func (board *Board) UndoMove(move Move) {
	undoInfo := board.undoStack[len(board.undoStack)-1]
	board.undoStack = board.undoStack[:len(board.undoStack)-1]
	board.history = board.history[:len(board.history)-1]

	board.Side = board.Side.Other()
	us := board.Side
	from, to := move.From(), move.To()

	switch move.Type() {
	case EnPassant:
		board.movePiece(to, from)
		captureSq := to - 8
		if us == Black {
			captureSq = to + 8
		}
		board.putPiece(undoInfo.Captured, captureSq)
	case CastleKingside:
		board.movePiece(to, from)
		board.movePiece(from+1, from+3)
	case CastleQueenside:
		board.movePiece(to, from)
		board.movePiece(from-1, from-4)
	case KnightPromotion, BishopPromotion, RookPromotion, QueenPromotion:
		board.removePiece(to)
		board.putPiece(MakePiece(us, Pawn), from)
		if undoInfo.Captured != NoPiece {
			board.putPiece(undoInfo.Captured, to)
		}
	default:
		board.movePiece(to, from)
		if undoInfo.Captured != NoPiece {
			board.putPiece(undoInfo.Captured, to)
		}
	}

	if us == Black {
		board.FullMoveCounter--
	}
	board.CastlingRights = undoInfo.CastlingRights
	board.EPSquare = undoInfo.EPSquare
	board.HalfMoveClock = undoInfo.HalfMoveClock
	board.key = undoInfo.Hash
}

// Pass the turn to the opponent. The half move clock is reset so repetition
// detection never looks across a null move.
func (board *Board) DoNullMove() {
	board.undoStack = append(board.undoStack, UndoInfo{
		Move:           NullMove,
		CastlingRights: board.CastlingRights,
		EPSquare:       board.EPSquare,
		HalfMoveClock:  board.HalfMoveClock,
		Hash:           board.key,
	})
	board.history = append(board.history, board.key)

	if board.EPSquare != NoSquare {
		board.key ^= epKeys[board.EPSquare%8]
		board.EPSquare = NoSquare
	}
	board.HalfMoveClock = 0
	board.Side = board.Side.Other()
	board.key ^= sideKey
}

func (board *Board) UndoNullMove() {
	undoInfo := board.undoStack[len(board.undoStack)-1]
	board.undoStack = board.undoStack[:len(board.undoStack)-1]
	board.history = board.history[:len(board.history)-1]

	board.Side = board.Side.Other()
	board.EPSquare = undoInfo.EPSquare
	board.HalfMoveClock = undoInfo.HalfMoveClock
	board.key = undoInfo.Hash
}

// Whether the side to move is in check.
func (board *Board) InCheck() bool {
	return board.squareAttacked(board.kingSquare(board.Side), board.Side.Other())
}

// Whether the position is drawn by the fifty-move rule, by repetition, or
// by insufficient material. A single repetition counts, which is what a
// search wants.
func (board *Board) IsDraw() bool {
	if board.HalfMoveClock >= 100 {
		return true
	}

	n := len(board.history)
	for i := n - 2; i >= 0 && i >= n-board.HalfMoveClock; i -= 2 {
		if board.history[i] == board.key {
			return true
		}
	}
	return board.insufficientMaterial()
}

func (board *Board) insufficientMaterial() bool {
	if board.KindBB[Pawn]|board.KindBB[Rook]|board.KindBB[Queen] != 0 {
		return false
	}
	return bits.OnesCount64(board.KindBB[Knight]|board.KindBB[Bishop]) <= 1
}

// The material value of the knights, bishops, rooks, and queens of a side.
func (board *Board) NonPawnMaterial(c Color) int {
	material := 0
	for kind := Knight; kind <= Queen; kind++ {
		material += bits.OnesCount64(board.pieces(c, kind)) * PieceValues[kind]
	}
	return material
}

// Compute the zobrist key from scratch.
func (board *Board) computeKey() uint64 {
	var key uint64
	for sq, piece := range board.Squares {
		if piece != NoPiece {
			key ^= pieceKeys[piece][sq]
		}
	}
	key ^= castleKeys[board.CastlingRights]
	if board.EPSquare != NoSquare {
		key ^= epKeys[board.EPSquare%8]
	}
	if board.Side == Black {
		key ^= sideKey
	}
	return key
}
