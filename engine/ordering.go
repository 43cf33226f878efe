package engine

import (
	"bulwark/core"
)

// Move ordering bands. A move's score is its band plus a bonus that orders
// it inside the band; the bonuses never reach the next band up.
const (
	PVMoveScore       = 1_100_000
	HashMoveScore     = 1_000_000
	GoodCaptureScore  = 800_000
	PromotionScore    = 700_000
	CheckScore        = 650_000
	FirstKillerScore  = 600_000
	SecondKillerScore = 590_000
	BadCaptureScore   = 500_000

	// Bonus for taking back on the square of the last capture.
	RecaptureBonus = 50

	// History scores are halved once any of them passes this, which also
	// keeps them below the bad capture band.
	HistoryCeiling = 1 << 16
)

// Ranks moves so the ones most likely to cause a cutoff are searched first.
// It remembers killer moves per ply, history scores per side, piece, and
// destination, and the principal variation of the last completed depth.
type MoveOrderer struct {
	killers [MaxPly][2]uint16
	history [2][7][64]int
	pv      [MaxPly]uint16
}

func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Score and sort a move list for a main search node. The hash move and, when
// the node is still on the last principal variation, the PV move for the
// ply go first.
func (o *MoveOrderer) Rank(list *core.MoveList, pos Position, ply int, hashMove uint16, onPV bool) {
	pvMove := uint16(0)
	if onPV {
		pvMove = o.PVMove(ply)
	}
	side := pos.SideToMove()

	for i := 0; i < list.Count; i++ {
		move := list.Moves[i]
		key := move.Key()
		var score int
		switch {
		case pvMove != 0 && key == pvMove:
			score = PVMoveScore
		case hashMove != 0 && key == hashMove:
			score = HashMoveScore
		case move.IsCapture():
			score = captureScore(move, pos)
		case move.IsPromotion():
			score = PromotionScore + move.PromotionValue()
		case key == o.killers[ply][0]:
			score = FirstKillerScore
		case key == o.killers[ply][1]:
			score = SecondKillerScore
		default:
			score = o.history[side][move.Moved()][move.To()]
		}
		list.Scores[i] = score
	}
	sortMoves(list)
}

// Score and sort the moves of a quiescence node: captures, promotions, and
// checks, or every evasion when in check.
func (o *MoveOrderer) RankTactical(list *core.MoveList, pos Position) {
	side := pos.SideToMove()
	for i := 0; i < list.Count; i++ {
		move := list.Moves[i]
		var score int
		switch {
		case move.IsCapture():
			score = captureScore(move, pos)
		case move.IsPromotion():
			score = PromotionScore + move.PromotionValue()
		case move.GivesCheck():
			score = CheckScore
		default:
			score = o.history[side][move.Moved()][move.To()]
		}
		list.Scores[i] = score
	}
	sortMoves(list)
}

// Captures that don't lose material go in the good capture band, most
// valuable victim first and least valuable attacker next. The rest go in
// the bad capture band by how much they lose.
func captureScore(move core.Move, pos Position) int {
	see := pos.StaticExchange(move)
	if see < 0 {
		return BadCaptureScore + see
	}
	score := GoodCaptureScore + move.CapturedValue()*10 - core.PieceValues[move.Moved()]/10
	if move.IsPromotion() {
		score += move.PromotionValue()
	}
	if move.IsRecapture() {
		score += RecaptureBonus
	}
	return score
}

// Stable insertion sort by descending score. Equal scores keep the order the
// moves were generated in.
func sortMoves(list *core.MoveList) {
	for i := 1; i < list.Count; i++ {
		for j := i; j > 0 && list.Scores[j-1] < list.Scores[j]; j-- {
			list.Moves[j], list.Moves[j-1] = list.Moves[j-1], list.Moves[j]
			list.Scores[j], list.Scores[j-1] = list.Scores[j-1], list.Scores[j]
		}
	}
}

// Remember a quiet move that caused a beta cutoff. Captures and promotions
// are ordered by their own bands and are never recorded.
func (o *MoveOrderer) RecordCutoff(move core.Move, side core.Color, ply, depth int) {
	if !move.IsQuiet() || ply >= MaxPly {
		return
	}

	key := move.Key()
	if o.killers[ply][0] != key {
		o.killers[ply][1] = o.killers[ply][0]
		o.killers[ply][0] = key
	}

	entry := &o.history[side][move.Moved()][move.To()]
	*entry += depth * depth
	if *entry > HistoryCeiling {
		o.AgeHistory()
	}
}

func (o *MoveOrderer) IsKiller(ply int, move core.Move) bool {
	key := move.Key()
	return ply < MaxPly && (o.killers[ply][0] == key || o.killers[ply][1] == key)
}

// Remember the move the last completed depth played at a ply of its
// principal variation.
func (o *MoveOrderer) RecordPV(ply int, move core.Move) {
	if ply < MaxPly {
		o.pv[ply] = move.Key()
	}
}

func (o *MoveOrderer) PVMove(ply int) uint16 {
	if ply >= MaxPly {
		return 0
	}
	return o.pv[ply]
}

func (o *MoveOrderer) ClearPV() {
	o.pv = [MaxPly]uint16{}
}

// Halve every history score, so older cutoffs count for less.
func (o *MoveOrderer) AgeHistory() {
	for side := range o.history {
		for kind := range o.history[side] {
			for sq := range o.history[side][kind] {
				o.history[side][kind][sq] /= 2
			}
		}
	}
}

func (o *MoveOrderer) ClearKillers() {
	o.killers = [MaxPly][2]uint16{}
}

func (o *MoveOrderer) Clear() {
	o.ClearKillers()
	o.ClearPV()
	o.history = [2][7][64]int{}
}
