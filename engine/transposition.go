package engine

import (
	"fmt"
	"math"
	"unsafe"
)

// What kind of value a transposition table entry holds.
type Bound uint8

const (
	NoBound Bound = iota
	Exact
	LowerBound
	UpperBound
)

func (b Bound) String() string {
	switch b {
	case Exact:
		return "exact"
	case LowerBound:
		return "lower"
	case UpperBound:
		return "upper"
	default:
		return "none"
	}
}

// A probed entry. Score is already relative to the probing node.
type Entry struct {
	Depth int
	Score int
	Bound Bound
	Move  uint16
}

type slot struct {
	tag        uint16
	move       uint16
	score      int32
	depth      int8
	bound      Bound
	generation uint8
}

type TableStats struct {
	Probes     uint64
	Hits       uint64
	Collisions uint64
	Stores     uint64
}

// A fixed size hash table of search results. The entry count is a power of
// two, a key's slot is its low bits, and the top 16 bits of the key are kept
// to tell positions sharing a slot apart.
type TranspositionTable struct {
	slots      []slot
	mask       uint64
	generation uint8
	stats      TableStats
}

func NewTranspositionTable(sizeMB int) (*TranspositionTable, error) {
	tt := &TranspositionTable{}
	if err := tt.Resize(sizeMB); err != nil {
		return nil, err
	}
	return tt, nil
}

// Reallocate the table to the largest power of two entry count that fits in
// sizeMB megabytes. Everything stored is lost.
func (tt *TranspositionTable) Resize(sizeMB int) error {
	if sizeMB < 1 {
		return fmt.Errorf("%w: transposition table size must be at least 1 MB, got %d", ErrInvalidOptions, sizeMB)
	}
	count := uint64(sizeMB) * 1024 * 1024 / uint64(unsafe.Sizeof(slot{}))
	count = roundDownToPowerOfTwo(count)
	tt.slots = make([]slot, count)
	tt.mask = count - 1
	tt.generation = 0
	tt.stats = TableStats{}
	return nil
}

func roundDownToPowerOfTwo(n uint64) uint64 {
	power := uint64(1)
	for power*2 <= n {
		power *= 2
	}
	return power
}

func (tt *TranspositionTable) Len() int { return len(tt.slots) }

func (tt *TranspositionTable) Stats() TableStats { return tt.stats }

// Start a new search. Entries from earlier searches are replaced first.
// Generation 0 only marks entries stored before the first search or before
// the counter last wrapped, so it never comes round as current again.
func (tt *TranspositionTable) NewSearch() {
	tt.generation++
	if tt.generation == 0 {
		for i := range tt.slots {
			tt.slots[i].generation = 0
		}
		tt.generation = 1
	}
}

func (tt *TranspositionTable) Clear() {
	clear(tt.slots)
	tt.generation = 0
	tt.stats = TableStats{}
}

// Return the entry for the key, at any depth. A slot holding a different
// position is a miss.
func (tt *TranspositionTable) Lookup(key uint64, ply int) (Entry, bool) {
	tt.stats.Probes++
	s := &tt.slots[key&tt.mask]
	if s.bound == NoBound {
		return Entry{}, false
	}
	if s.tag != uint16(key>>48) {
		tt.stats.Collisions++
		return Entry{}, false
	}
	tt.stats.Hits++
	return Entry{
		Depth: int(s.depth),
		Score: scoreFromTable(int(s.score), ply),
		Bound: s.bound,
		Move:  s.move,
	}, true
}

// Return the entry for the key if it was searched at least depth deep.
func (tt *TranspositionTable) Probe(key uint64, depth, ply int) (Entry, bool) {
	entry, ok := tt.Lookup(key, ply)
	if !ok || entry.Depth < depth {
		return entry, false
	}
	return entry, true
}

// The best move stored for the key, or 0.
func (tt *TranspositionTable) ProbeMove(key uint64) uint16 {
	s := &tt.slots[key&tt.mask]
	if s.bound == NoBound || s.tag != uint16(key>>48) {
		return 0
	}
	return s.move
}

// Store a search result. A slot is overwritten when it's empty, when it was
// written by an earlier search, or when the new result is at least as deep.
func (tt *TranspositionTable) Store(key uint64, depth, ply, score int, bound Bound, move uint16) {
	s := &tt.slots[key&tt.mask]
	tag := uint16(key >> 48)
	if s.bound != NoBound && s.generation == tt.generation && depth < int(s.depth) {
		return
	}
	if move == 0 && s.tag == tag {
		move = s.move
	}

	tt.stats.Stores++
	*s = slot{
		tag:        tag,
		move:       move,
		score:      int32(scoreToTable(score, ply)),
		depth:      int8(min(depth, math.MaxInt8)),
		bound:      bound,
		generation: tt.generation,
	}
}

// Permille of a sample of slots written during the current search.
func (tt *TranspositionTable) HashFull() int {
	sample := min(1000, len(tt.slots))
	used := 0
	for i := 0; i < sample; i++ {
		if tt.slots[i].bound != NoBound && tt.slots[i].generation == tt.generation {
			used++
		}
	}
	return used * 1000 / sample
}

// Mate scores are stored relative to the node so the entry stays correct
// when the position is reached at a different ply.
func scoreToTable(score, ply int) int {
	if score >= MateBound {
		return score + ply
	}
	if score <= -MateBound {
		return score - ply
	}
	return score
}

func scoreFromTable(score, ply int) int {
	if score >= MateBound {
		return score - ply
	}
	if score <= -MateBound {
		return score + ply
	}
	return score
}
