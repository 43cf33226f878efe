package core

import (
	"fmt"
	"math/bits"
	"strings"
)

// Convert a board coordinate as a string - such as f6 or b2 -
// into a square index.
func ParseSquare(coordinate string) (int, error) {
	if len(coordinate) != 2 || coordinate[0] < 'a' || coordinate[0] > 'h' || coordinate[1] < '1' || coordinate[1] > '8' {
		return NoSquare, fmt.Errorf("bad square %q", coordinate)
	}
	file := int(coordinate[0] - 'a')
	rank := int(coordinate[1] - '1')
	return rank*8 + file, nil
}

// Convert a square index into a board coordinate.
func SquareName(sq int) string {
	return string([]byte{byte('a' + sq%8), byte('1' + sq/8)})
}

// Get the index of the least significant set bit and clear it. A useful
// helper when walking the squares of a bitboard.
func popLSB(bb *uint64) int {
	sq := bits.TrailingZeros64(*bb)
	*bb &= *bb - 1
	return sq
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// A human readable drawing of the board, white at the bottom.
func (board *Board) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d | ", rank+1)
		for file := 0; file < 8; file++ {
			sb.WriteByte(board.Squares[rank*8+file].char())
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("   ----------------\n")
	sb.WriteString("    a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "fen: %s\n", board.FEN())
	fmt.Fprintf(&sb, "key: 0x%x\n", board.key)
	return sb.String()
}
