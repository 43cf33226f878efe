package core

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

var ErrInvalidFEN = errors.New("invalid fen")

var pieceChars = map[byte]Piece{
	'P': MakePiece(White, Pawn), 'N': MakePiece(White, Knight), 'B': MakePiece(White, Bishop),
	'R': MakePiece(White, Rook), 'Q': MakePiece(White, Queen), 'K': MakePiece(White, King),
	'p': MakePiece(Black, Pawn), 'n': MakePiece(Black, Knight), 'b': MakePiece(Black, Bishop),
	'r': MakePiece(Black, Rook), 'q': MakePiece(Black, Queen), 'k': MakePiece(Black, King),
}

func (p Piece) char() byte {
	for char, piece := range pieceChars {
		if piece == p {
			return char
		}
	}
	return '.'
}

// Load a position from a FEN string. The half move clock and full move
// counter may be omitted. The board is left untouched when the string
// can't be parsed.
func (board *Board) LoadFEN(fen string) error {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return fmt.Errorf("%w: expected at least 4 fields, got %d", ErrInvalidFEN, len(fields))
	}

	var loaded Board
	loaded.EPSquare = NoSquare
	loaded.FullMoveCounter = 1

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: expected 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}
	for i, rank := range ranks {
		file := 0
		for j := 0; j < len(rank); j++ {
			char := rank[j]
			if char >= '1' && char <= '8' {
				file += int(char - '0')
				continue
			}
			piece, ok := pieceChars[char]
			if !ok {
				return fmt.Errorf("%w: unknown piece %q", ErrInvalidFEN, char)
			}
			if file > 7 {
				return fmt.Errorf("%w: rank %d is too long", ErrInvalidFEN, 8-i)
			}
			loaded.putPiece(piece, (7-i)*8+file)
			file++
		}
		if file != 8 {
			return fmt.Errorf("%w: rank %d has %d files", ErrInvalidFEN, 8-i, file)
		}
	}
	if bits.OnesCount64(loaded.pieces(White, King)) != 1 || bits.OnesCount64(loaded.pieces(Black, King)) != 1 {
		return fmt.Errorf("%w: each side needs exactly one king", ErrInvalidFEN)
	}
	if loaded.KindBB[Pawn]&(0xff|0xff<<56) != 0 {
		return fmt.Errorf("%w: pawn on the first or last rank", ErrInvalidFEN)
	}

	switch fields[1] {
	case "w":
		loaded.Side = White
	case "b":
		loaded.Side = Black
	default:
		return fmt.Errorf("%w: side to move %q", ErrInvalidFEN, fields[1])
	}

	if fields[2] != "-" {
		for _, char := range fields[2] {
			switch char {
			case 'K':
				loaded.CastlingRights |= WhiteKingside
			case 'Q':
				loaded.CastlingRights |= WhiteQueenside
			case 'k':
				loaded.CastlingRights |= BlackKingside
			case 'q':
				loaded.CastlingRights |= BlackQueenside
			default:
				return fmt.Errorf("%w: castling rights %q", ErrInvalidFEN, fields[2])
			}
		}
	}
	// Drop rights whose king or rook has left its square.
	for sq, mask := range castleMask {
		if mask != 0xf && loaded.Squares[sq] != homePiece(sq) {
			loaded.CastlingRights &= mask
		}
	}

	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFEN, err)
		}
		if pawnAttacks[loaded.Side.Other()][sq]&loaded.pieces(loaded.Side, Pawn) != 0 {
			loaded.EPSquare = sq
		}
	}

	if len(fields) > 4 {
		clock, err := strconv.Atoi(fields[4])
		if err != nil || clock < 0 {
			return fmt.Errorf("%w: half move clock %q", ErrInvalidFEN, fields[4])
		}
		loaded.HalfMoveClock = clock
	}
	if len(fields) > 5 {
		counter, err := strconv.Atoi(fields[5])
		if err != nil || counter < 1 {
			return fmt.Errorf("%w: full move counter %q", ErrInvalidFEN, fields[5])
		}
		loaded.FullMoveCounter = counter
	}

	if loaded.squareAttacked(loaded.kingSquare(loaded.Side.Other()), loaded.Side) {
		return fmt.Errorf("%w: side not to move is in check", ErrInvalidFEN)
	}

	loaded.key = loaded.computeKey()
	*board = loaded
	return nil
}

func homePiece(sq int) Piece {
	switch sq {
	case E1:
		return MakePiece(White, King)
	case A1, H1:
		return MakePiece(White, Rook)
	case E8:
		return MakePiece(Black, King)
	default:
		return MakePiece(Black, Rook)
	}
}

// The FEN string of the current position.
func (board *Board) FEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := board.Squares[rank*8+file]
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(piece.char())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	if board.Side == White {
		sb.WriteString(" w ")
	} else {
		sb.WriteString(" b ")
	}

	if board.CastlingRights == 0 {
		sb.WriteByte('-')
	}
	if board.CastlingRights&WhiteKingside != 0 {
		sb.WriteByte('K')
	}
	if board.CastlingRights&WhiteQueenside != 0 {
		sb.WriteByte('Q')
	}
	if board.CastlingRights&BlackKingside != 0 {
		sb.WriteByte('k')
	}
	if board.CastlingRights&BlackQueenside != 0 {
		sb.WriteByte('q')
	}

	if board.EPSquare == NoSquare {
		sb.WriteString(" -")
	} else {
		sb.WriteString(" " + SquareName(board.EPSquare))
	}
	fmt.Fprintf(&sb, " %d %d", board.HalfMoveClock, board.FullMoveCounter)
	return sb.String()
}

// The color-flipped position: the board mirrored top to bottom, every
// piece changing color, and the other side to move. It's the same
// position from the opponent's point of view.
func (board *Board) Mirror() *Board {
	mirrored := &Board{
		Side:            board.Side.Other(),
		EPSquare:        NoSquare,
		HalfMoveClock:   board.HalfMoveClock,
		FullMoveCounter: board.FullMoveCounter,
	}
	for sq, piece := range board.Squares {
		if piece != NoPiece {
			mirrored.putPiece(MakePiece(piece.Color().Other(), piece.Kind()), sq^56)
		}
	}
	if board.EPSquare != NoSquare {
		mirrored.EPSquare = board.EPSquare ^ 56
	}
	rights := board.CastlingRights
	mirrored.CastlingRights = (rights&(WhiteKingside|WhiteQueenside))<<2 | (rights&(BlackKingside|BlackQueenside))>>2
	mirrored.key = mirrored.computeKey()
	return mirrored
}
