package core

import (
	"errors"
	"fmt"
	"strings"
)

// A move is packed into 32 bits:
//
//	bits  0-5   from square
//	bits  6-11  to square
//	bits 12-15  move type
//	bits 16-18  kind of the moving piece
//	bits 19-21  kind of the captured piece (NoKind for non-captures)
//	bit  22     the move gives check
//	bit  23     the move recaptures on the square of the previous capture
//
// The low 16 bits identify a move inside a position and are what the
// search keeps in its tables (see Key).
type Move uint32

type MoveType uint8

const (
	Quiet MoveType = iota
	Capture
	EnPassant
	CastleKingside
	CastleQueenside
	KnightPromotion
	BishopPromotion
	RookPromotion
	QueenPromotion
)

const (
	// Represents the absence of a move. It can never be legal since
	// its from and to squares are the same.
	NullMove Move = 0

	// The most moves any legal chess position can have is 218, so this
	// leaves plenty of room.
	MaxMoves = 256

	checkFlag     Move = 1 << 22
	recaptureFlag Move = 1 << 23
)

var ErrInvalidMove = errors.New("invalid move")

// Create a move from its parts. The check and recapture flags are set by the
// move generator, which is the only place that knows them.
func NewMove(from, to int, moveType MoveType, moved, captured PieceKind) Move {
	return Move(from) | Move(to)<<6 | Move(moveType)<<12 | Move(moved)<<16 | Move(captured)<<19
}

func (m Move) From() int           { return int(m & 0x3f) }
func (m Move) To() int             { return int((m >> 6) & 0x3f) }
func (m Move) Type() MoveType      { return MoveType((m >> 12) & 0xf) }
func (m Move) Moved() PieceKind    { return PieceKind((m >> 16) & 0x7) }
func (m Move) Captured() PieceKind { return PieceKind((m >> 19) & 0x7) }
func (m Move) GivesCheck() bool    { return m&checkFlag != 0 }
func (m Move) IsRecapture() bool   { return m&recaptureFlag != 0 }
func (m Move) IsCapture() bool     { return m.Captured() != NoKind }
func (m Move) IsPromotion() bool   { return m.Type() >= KnightPromotion }
func (m Move) IsCastle() bool      { return m.Type() == CastleKingside || m.Type() == CastleQueenside }

// Quiet moves are the ones that neither capture nor promote.
func (m Move) IsQuiet() bool { return !m.IsCapture() && !m.IsPromotion() }

// The identity of the move inside its position, without the flags that
// depend on the path the search took to get there.
func (m Move) Key() uint16 { return uint16(m) }

// The piece kind a pawn promotes to, or NoKind.
func (m Move) Promotion() PieceKind {
	switch m.Type() {
	case KnightPromotion:
		return Knight
	case BishopPromotion:
		return Bishop
	case RookPromotion:
		return Rook
	case QueenPromotion:
		return Queen
	default:
		return NoKind
	}
}

func (m Move) CapturedValue() int  { return PieceValues[m.Captured()] }
func (m Move) PromotionValue() int { return PieceValues[m.Promotion()] }

// Long algebraic notation, as used by the UCI protocol.
func (m Move) String() string {
	if m == NullMove {
		return "0000"
	}
	var sb strings.Builder
	sb.WriteString(SquareName(m.From()))
	sb.WriteString(SquareName(m.To()))
	switch m.Promotion() {
	case Knight:
		sb.WriteByte('n')
	case Bishop:
		sb.WriteByte('b')
	case Rook:
		sb.WriteByte('r')
	case Queen:
		sb.WriteByte('q')
	}
	return sb.String()
}

// A fixed size list of moves and the scores the move orderer assigns them.
type MoveList struct {
	Moves  [MaxMoves]Move
	Scores [MaxMoves]int
	Count  int
}

func (list *MoveList) Add(move Move) {
	list.Moves[list.Count] = move
	list.Scores[list.Count] = 0
	list.Count++
}

func (list *MoveList) Clear() {
	list.Count = 0
}

func (list *MoveList) Slice() []Move {
	return list.Moves[:list.Count]
}

// Keep only the moves for which keep returns true, preserving their order.
func (list *MoveList) Filter(keep func(Move) bool) {
	n := 0
	for i := 0; i < list.Count; i++ {
		if keep(list.Moves[i]) {
			list.Moves[n] = list.Moves[i]
			list.Scores[n] = list.Scores[i]
			n++
		}
	}
	list.Count = n
}

// Find the legal move in the position matching the given long algebraic
// notation string.
func ParseMove(board *Board, moveAsString string) (Move, error) {
	var list MoveList
	board.GenLegalMoves(&list)
	moveAsString = strings.ToLower(strings.TrimSpace(moveAsString))
	for _, move := range list.Slice() {
		if move.String() == moveAsString {
			return move, nil
		}
	}
	return NullMove, fmt.Errorf("%w: %q in %s", ErrInvalidMove, moveAsString, board.FEN())
}
