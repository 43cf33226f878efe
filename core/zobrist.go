package core

import (
	"encoding/binary"

	"lukechampine.com/frand"
)

// Zobrist keys. Castling keys are indexed by the full rights value, so
// changing rights is a single xor of the old and new keys.
var (
	pieceKeys  [15][64]uint64
	castleKeys [16]uint64
	epKeys     [8]uint64
	sideKey    uint64
)

// Keys come from a fixed seed so hashes are the same from run to run,
// which keeps searches and logs reproducible.
func init() {
	seed := make([]byte, 32)
	copy(seed, "bulwark-zobrist-keys")
	rng := frand.NewCustom(seed, 1024, 12)

	var buf [8]byte
	next := func() uint64 {
		rng.Read(buf[:])
		return binary.LittleEndian.Uint64(buf[:])
	}

	for _, color := range []Color{White, Black} {
		for kind := Pawn; kind <= King; kind++ {
			piece := MakePiece(color, kind)
			for sq := 0; sq < 64; sq++ {
				pieceKeys[piece][sq] = next()
			}
		}
	}
	for i := range castleKeys {
		castleKeys[i] = next()
	}
	for i := range epKeys {
		epKeys[i] = next()
	}
	sideKey = next()
}
