package engine

import (
	"errors"
	"fmt"
)

var ErrInvalidOptions = errors.New("invalid search options")

// The tunable parameters of the search. The zero value is not usable;
// start from DefaultOptions.
type Options struct {
	// Size of the main transposition table in megabytes.
	HashSizeMB int

	// Size of the quiescence transposition table in megabytes.
	QuiescenceHashSizeMB int

	// Maximum depth of the quiescence search. Zero turns quiescence off and
	// leaves are scored by the static evaluator alone.
	QuiescenceDepth int

	// How many plies into quiescence quiet checking moves are still
	// searched.
	QuiescenceCheckPlies int

	UseTT           bool
	UseQuiescenceTT bool

	// Null move pruning is tried at depths of at least NullMoveMinDepth,
	// reducing by NullMoveReduction + depth/6.
	NullMove          bool
	NullMoveMinDepth  int
	NullMoveReduction int

	// Futility pruning margins, indexed by remaining depth. Pruning is
	// tried at depths 1 through len(FutilityMargins)-1.
	Futility        bool
	FutilityMargins []int

	// Delta pruning skips captures that can't bring the score back up to
	// alpha even with DeltaMargin to spare.
	DeltaPruning bool
	DeltaMargin  int

	// Razoring margins, indexed by remaining depth like FutilityMargins.
	Razoring     bool
	RazorMargins []int

	// Late move reductions apply from LMRMinDepth and move index
	// LMRMinMoveIndex on, reducing by LMRReduction plies.
	LMR             bool
	LMRMinDepth     int
	LMRMinMoveIndex int
	LMRReduction    int
}

func DefaultOptions() Options {
	return Options{
		HashSizeMB:           32,
		QuiescenceHashSizeMB: 4,
		QuiescenceDepth:      8,
		QuiescenceCheckPlies: 1,
		UseTT:                true,
		UseQuiescenceTT:      true,
		NullMove:             true,
		NullMoveMinDepth:     3,
		NullMoveReduction:    2,
		Futility:             true,
		FutilityMargins:      []int{0, 150, 250},
		DeltaPruning:         true,
		DeltaMargin:          250,
		Razoring:             true,
		RazorMargins:         []int{0, 150, 200, 250},
		LMR:                  true,
		LMRMinDepth:          3,
		LMRMinMoveIndex:      3,
		LMRReduction:         1,
	}
}

// Options with every heuristic that depends on move order or on earlier
// searches turned off. Two searches of the same position with these
// options always agree, whatever order the moves are generated in.
func ExhaustiveOptions() Options {
	opts := DefaultOptions()
	opts.UseTT = false
	opts.UseQuiescenceTT = false
	opts.NullMove = false
	opts.Futility = false
	opts.DeltaPruning = false
	opts.Razoring = false
	opts.LMR = false
	return opts
}

func (opts Options) Validate() error {
	switch {
	case opts.HashSizeMB < 1:
		return fmt.Errorf("%w: hash size must be at least 1 MB, got %d", ErrInvalidOptions, opts.HashSizeMB)
	case opts.QuiescenceHashSizeMB < 1:
		return fmt.Errorf("%w: quiescence hash size must be at least 1 MB, got %d", ErrInvalidOptions, opts.QuiescenceHashSizeMB)
	case opts.QuiescenceDepth < 0 || opts.QuiescenceDepth >= MaxPly:
		return fmt.Errorf("%w: quiescence depth must be in [0, %d), got %d", ErrInvalidOptions, MaxPly, opts.QuiescenceDepth)
	case opts.QuiescenceCheckPlies < 0:
		return fmt.Errorf("%w: quiescence check plies can't be negative", ErrInvalidOptions)
	case opts.NullMove && opts.NullMoveMinDepth < 1:
		return fmt.Errorf("%w: null move minimum depth must be at least 1", ErrInvalidOptions)
	case opts.NullMove && opts.NullMoveReduction < 1:
		return fmt.Errorf("%w: null move reduction must be at least 1", ErrInvalidOptions)
	case opts.Futility && len(opts.FutilityMargins) < 2:
		return fmt.Errorf("%w: futility pruning needs margins for depth 1 and up", ErrInvalidOptions)
	case opts.Razoring && len(opts.RazorMargins) < 2:
		return fmt.Errorf("%w: razoring needs margins for depth 1 and up", ErrInvalidOptions)
	case opts.DeltaPruning && opts.DeltaMargin < 0:
		return fmt.Errorf("%w: delta margin can't be negative", ErrInvalidOptions)
	case opts.LMR && opts.LMRReduction < 1:
		return fmt.Errorf("%w: late move reduction must be at least 1 ply", ErrInvalidOptions)
	case opts.LMR && opts.LMRMinDepth < 2:
		return fmt.Errorf("%w: late move reductions need a minimum depth of at least 2", ErrInvalidOptions)
	case opts.LMR && opts.LMRMinMoveIndex < 1:
		return fmt.Errorf("%w: late move reductions never apply to the first move", ErrInvalidOptions)
	}
	return nil
}
